package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dinebook/go-client/internal/ledger"
)

func TestClassifyMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"already processed", errors.New("Transaction simulation failed: This transaction has already been processed"), AlreadyProcessed},
		{"insufficient lamports", errors.New("Transfer: insufficient lamports 100, need 2039280"), InsufficientFunds},
		{"prior credit", errors.New("Attempt to debit an account but found no record of a prior credit."), InsufficientFunds},
		{"invalid destination", errors.New("invalid destination account"), InvalidDestination},
		{"signature failure", errors.New("Transaction signature verification failure"), SignerUnavailable},
		{"invalid rating code", errors.New("failed: custom program error: 0x1770"), InvalidRating},
		{"duplicate review code", errors.New("failed: custom program error: 0x1771"), DuplicateReview},
		{"confidence code", errors.New("failed: custom program error: 0x1772"), InvalidConfidenceLevel},
		{"unknown code", errors.New("failed: custom program error: 0x1ff3"), Unknown},
		{"garbage", errors.New("something odd happened"), Unknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("%s: classified as %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassifyStructuredErrors(t *testing.T) {
	rpcErr := &ledger.RPCError{Code: -32002, Message: "Transaction simulation failed: custom program error: 0x1771"}
	if got := Classify(fmt.Errorf("submit: %w", rpcErr)); got != DuplicateReview {
		t.Fatalf("rpc error classified as %q", got)
	}

	transport := &ledger.TransportError{Err: errors.New("connection refused")}
	if got := Classify(transport); got != RemoteUnavailable {
		t.Fatalf("transport error classified as %q", got)
	}

	timedOut := &ledger.TransportError{Err: context.DeadlineExceeded}
	if got := Classify(timedOut); got != SubmissionTimeout {
		t.Fatalf("deadline transport error classified as %q", got)
	}
	if got := Classify(context.DeadlineExceeded); got != SubmissionTimeout {
		t.Fatalf("bare deadline classified as %q", got)
	}
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := Wrap(DuplicateReview, errors.New("review exists"))
	outer := Wrap(Unknown, inner)
	if got := Classify(outer); got != DuplicateReview {
		t.Fatalf("re-wrap changed kind to %q", got)
	}
	if Wrap(Unknown, nil) != nil {
		t.Fatal("wrapping nil must stay nil")
	}
}

func TestIsSuccessLike(t *testing.T) {
	if !IsSuccessLike(errors.New("this transaction has already been processed")) {
		t.Fatal("already-processed must be success-like")
	}
	if IsSuccessLike(errors.New("insufficient funds")) {
		t.Fatal("insufficient funds must not be success-like")
	}
}

func TestMessagesAreDistinguishable(t *testing.T) {
	duplicate := Message(Wrap(DuplicateReview, errors.New("x")))
	rating := Message(Wrap(InvalidRating, errors.New("x")))
	confidence := Message(Wrap(InvalidConfidenceLevel, errors.New("x")))
	if duplicate == rating || rating == confidence || duplicate == confidence {
		t.Fatal("review error messages must be distinguishable in UI text")
	}
	pending := Message(Wrap(SubmissionTimeout, errors.New("x")))
	if pending == "" || pending == duplicate {
		t.Fatal("timeout message must be present and distinct")
	}
}
