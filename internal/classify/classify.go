// Package classify maps raw submission and probe failures onto a closed
// taxonomy the caller can branch on. Everything that does not match a known
// shape falls through to Unknown carrying the original message.
package classify

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"dinebook/go-client/internal/ledger"
)

type Kind string

const (
	SignerUnavailable      Kind = "signer_unavailable"
	InsufficientFunds      Kind = "insufficient_funds"
	InvalidDestination     Kind = "invalid_destination"
	SubmissionTimeout      Kind = "submission_timeout"
	AlreadyProcessed       Kind = "already_processed"
	ConfirmationFailed     Kind = "confirmation_failed"
	DuplicateReview        Kind = "duplicate_review"
	InvalidRating          Kind = "invalid_rating"
	InvalidConfidenceLevel Kind = "invalid_confidence_level"
	RemoteUnavailable      Kind = "remote_unavailable"
	Unknown                Kind = "unknown"
)

// Remote program error codes, as emitted inside "custom program error"
// messages. Custom codes start at 6000 on the remote runtime.
const (
	codeInvalidRating          = 6000
	codeReviewAlreadyExists    = 6001
	codeInvalidConfidenceLevel = 6002
)

// ClassifiedError attaches a taxonomy kind to an underlying error.
type ClassifiedError struct {
	Kind Kind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Wrap tags err with kind. Errors already tagged keep their original kind.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *ClassifiedError
	if errors.As(err, &existing) {
		return err
	}
	return &ClassifiedError{Kind: kind, Err: err}
}

// Classify resolves err to a taxonomy kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind
	}

	var rpcErr *ledger.RPCError
	if errors.As(err, &rpcErr) {
		if kind, ok := classifyMessage(rpcErr.Message); ok {
			return kind
		}
		return Unknown
	}

	var transportErr *ledger.TransportError
	if errors.As(err, &transportErr) {
		if errors.Is(transportErr.Err, context.DeadlineExceeded) {
			return SubmissionTimeout
		}
		return RemoteUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return SubmissionTimeout
	}
	if kind, ok := classifyMessage(err.Error()); ok {
		return kind
	}
	return Unknown
}

func classifyMessage(msg string) (Kind, bool) {
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "already been processed"):
		// Duplicate submission detection at the transport layer; the
		// original transaction very likely landed.
		return AlreadyProcessed, true
	case strings.Contains(lowered, "insufficient lamports"),
		strings.Contains(lowered, "insufficient funds"),
		strings.Contains(lowered, "found no record of a prior credit"):
		return InsufficientFunds, true
	case strings.Contains(lowered, "invalid destination"),
		strings.Contains(lowered, "invalid recipient"):
		return InvalidDestination, true
	case strings.Contains(lowered, "signature verification failure"),
		strings.Contains(lowered, "signer unavailable"):
		return SignerUnavailable, true
	}
	if code, ok := customProgramCode(msg); ok {
		switch code {
		case codeInvalidRating:
			return InvalidRating, true
		case codeReviewAlreadyExists:
			return DuplicateReview, true
		case codeInvalidConfidenceLevel:
			return InvalidConfidenceLevel, true
		}
	}
	return "", false
}

// customProgramCode extracts the numeric code from a message of the form
// "... custom program error: 0x1770".
func customProgramCode(msg string) (int, bool) {
	const needle = "custom program error: 0x"
	idx := strings.Index(strings.ToLower(msg), needle)
	if idx < 0 {
		return 0, false
	}
	rest := msg[idx+len(needle):]
	end := 0
	for end < len(rest) && isHexDigit(rest[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	code, err := strconv.ParseInt(rest[:end], 16, 32)
	if err != nil {
		return 0, false
	}
	return int(code), true
}

func isHexDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// IsSuccessLike reports whether err should be recovered into a success path
// rather than surfaced: the submission already landed.
func IsSuccessLike(err error) bool {
	return Classify(err) == AlreadyProcessed
}

// Message renders a human-readable, UI-distinguishable text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case SignerUnavailable:
		return "wallet signer is unavailable; connect a wallet and try again"
	case InsufficientFunds:
		return "insufficient funds to cover the payment and fees"
	case InvalidDestination:
		return "payment destination address is invalid"
	case SubmissionTimeout:
		return "confirmation timed out; the booking may still land, check the tracking id"
	case AlreadyProcessed:
		return "this submission was already processed"
	case ConfirmationFailed:
		return "the network rejected the submitted operations"
	case DuplicateReview:
		return "you have already submitted a review for this restaurant"
	case InvalidRating:
		return "rating must be between 1 and 5"
	case InvalidConfidenceLevel:
		return "confidence level must be between 1 and 10"
	case RemoteUnavailable:
		return "the ledger endpoint is unreachable; try again later"
	default:
		return err.Error()
	}
}
