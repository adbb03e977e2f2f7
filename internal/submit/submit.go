// Package submit bundles composed operations into one atomic transaction,
// delegates signing to an external signer, and races confirmation against a
// fixed timeout.
package submit

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dinebook/go-client/internal/classify"
	"dinebook/go-client/internal/ledger"
	"dinebook/go-client/internal/program"
)

// Signer is the external wallet collaborator. The client never holds key
// material itself.
type Signer interface {
	Identity() ledger.Address
	Sign(message []byte) ([]byte, error)
}

const signatureLength = 64

// DefaultConfirmTimeout bounds how long a submission waits for confirmation
// before handing back a pending outcome.
const DefaultConfirmTimeout = 30 * time.Second

const defaultPollInterval = 500 * time.Millisecond

// Outcome is the result of one submission. Pending means the confirmation
// race timed out: the transaction may still land, and TrackingID lets the
// caller verify out-of-band.
type Outcome struct {
	TrackingID string
	Pending    bool
}

type submitClient interface {
	LatestBlockhash(ctx context.Context) (ledger.Blockhash, error)
	SubmitTransaction(ctx context.Context, wire []byte) (string, error)
	SignatureStatus(ctx context.Context, trackingID string) (*ledger.SignatureStatus, error)
}

// Submitter submits operation bundles atomically: the remote ledger applies
// all operations of a transaction or none of them.
type Submitter struct {
	client         submitClient
	signer         Signer
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

func NewSubmitter(client submitClient, signer Signer) *Submitter {
	return &Submitter{
		client:         client,
		signer:         signer,
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}
}

// WithConfirmTimeout overrides the confirmation race window. Zero or
// negative values keep the default.
func (s *Submitter) WithConfirmTimeout(d time.Duration) *Submitter {
	if d > 0 {
		s.confirmTimeout = d
	}
	return s
}

func (s *Submitter) WithPollInterval(d time.Duration) *Submitter {
	if d > 0 {
		s.pollInterval = d
	}
	return s
}

var ErrNoOperations = errors.New("no operations to submit")

// Submit signs and sends ops as one transaction, then waits for confirmation.
// A confirmation that arrives in time with no program error yields a settled
// Outcome; a program error yields a ConfirmationFailed classified error; the
// timeout yields a pending Outcome with the same tracking id.
func (s *Submitter) Submit(ctx context.Context, ops []program.Operation) (Outcome, error) {
	if len(ops) == 0 {
		return Outcome{}, ErrNoOperations
	}
	if s.signer == nil {
		return Outcome{}, classify.Wrap(classify.SignerUnavailable, errors.New("no signer configured"))
	}

	blockhash, err := s.client.LatestBlockhash(ctx)
	if err != nil {
		return Outcome{}, err
	}

	feePayer := s.signer.Identity()
	message, err := buildMessage(feePayer, blockhash, ops)
	if err != nil {
		return Outcome{}, err
	}
	signature, err := s.signer.Sign(message)
	if err != nil {
		return Outcome{}, classify.Wrap(classify.SignerUnavailable, fmt.Errorf("signer rejected message: %w", err))
	}
	if len(signature) != signatureLength {
		return Outcome{}, classify.Wrap(classify.SignerUnavailable, fmt.Errorf("signer produced %d-byte signature, want %d", len(signature), signatureLength))
	}

	wire := make([]byte, 0, 1+signatureLength+len(message))
	wire = append(wire, 1)
	wire = append(wire, signature...)
	wire = append(wire, message...)

	trackingID, err := s.client.SubmitTransaction(ctx, wire)
	if err != nil {
		return Outcome{}, err
	}
	return s.awaitConfirmation(ctx, trackingID)
}

// awaitConfirmation races the remote confirmation watcher against a timer.
// The first to settle wins; a losing watcher simply has its result ignored.
func (s *Submitter) awaitConfirmation(ctx context.Context, trackingID string) (Outcome, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- s.watchStatus(watchCtx, trackingID)
	}()

	timer := time.NewTimer(s.confirmTimeout)
	defer timer.Stop()

	select {
	case err := <-resultCh:
		if err != nil {
			return Outcome{TrackingID: trackingID}, err
		}
		return Outcome{TrackingID: trackingID}, nil
	case <-timer.C:
		slog.Info("confirmation window elapsed, submission still pending", "tracking_id", trackingID)
		return Outcome{TrackingID: trackingID, Pending: true}, nil
	case <-ctx.Done():
		return Outcome{TrackingID: trackingID, Pending: true}, nil
	}
}

func (s *Submitter) watchStatus(ctx context.Context, trackingID string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		status, err := s.client.SignatureStatus(ctx, trackingID)
		if err == nil && status != nil {
			if status.Err != "" {
				return classify.Wrap(classify.ConfirmationFailed,
					fmt.Errorf("transaction %s failed on-ledger: %s", trackingID, status.Err))
			}
			if status.Confirmed {
				return nil
			}
		}
		if err != nil {
			slog.Warn("confirmation status poll failed", "tracking_id", trackingID, "reason", err.Error())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// buildMessage serializes operations into the transaction message that gets
// signed. Layout: fee payer address, blockhash, u16 operation count, then per
// operation the program address, u16 account count with (address, flags)
// entries, and a u16-length data payload.
func buildMessage(feePayer ledger.Address, blockhash ledger.Blockhash, ops []program.Operation) ([]byte, error) {
	if len(ops) > 0xFFFF {
		return nil, fmt.Errorf("too many operations: %d", len(ops))
	}
	msg := make([]byte, 0, 128)
	msg = append(msg, feePayer[:]...)
	msg = append(msg, blockhash[:]...)
	msg = appendU16(msg, uint16(len(ops)))
	for _, op := range ops {
		if len(op.Accounts) > 0xFFFF || len(op.Data) > 0xFFFF {
			return nil, errors.New("operation exceeds message limits")
		}
		msg = append(msg, op.Program[:]...)
		msg = appendU16(msg, uint16(len(op.Accounts)))
		for _, acct := range op.Accounts {
			msg = append(msg, acct.Address[:]...)
			msg = append(msg, accountFlags(acct))
		}
		msg = appendU16(msg, uint16(len(op.Data)))
		msg = append(msg, op.Data...)
	}
	return msg, nil
}

func accountFlags(meta program.AccountMeta) byte {
	var flags byte
	if meta.Signer {
		flags |= 1
	}
	if meta.Writable {
		flags |= 2
	}
	return flags
}

func appendU16(b []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(b, buf[:]...)
}
