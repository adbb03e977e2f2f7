package ledger

import (
	"context"
	"fmt"
)

// Account is the decoded state of one remote account.
type Account struct {
	Owner    Address
	Lamports uint64
	Data     []byte
}

// KeyedAccount pairs an account with its own address, as returned by scans.
type KeyedAccount struct {
	Address Address
	Account Account
}

// ScanFilter narrows a program-account scan server-side. OwnerOffset locates
// the owner identity field inside the record's wire layout; DataSize, when
// non-zero, restricts results to records of exactly that length.
type ScanFilter struct {
	DataSize    int
	OwnerOffset int
	Owner       Address
}

// SignatureStatus reports what the network knows about one submitted
// transaction. Err carries the program-level failure verbatim when present.
type SignatureStatus struct {
	Confirmed bool
	Err       string
}

// Client is the remote ledger collaborator. Implementations must return
// ErrAccountNotFound (wrapped or bare) from AccountInfo when the address
// holds no account, and *TransportError for endpoint-level failures.
type Client interface {
	AccountInfo(ctx context.Context, addr Address) (*Account, error)
	AccountExists(ctx context.Context, addr Address) (bool, error)
	ProgramAccounts(ctx context.Context, program Address, filter ScanFilter) ([]KeyedAccount, error)
	LatestBlockhash(ctx context.Context) (Blockhash, error)
	SubmitTransaction(ctx context.Context, wire []byte) (string, error)
	SignatureStatus(ctx context.Context, trackingID string) (*SignatureStatus, error)
}

// ErrAccountNotFound distinguishes an absent account from a transport
// failure. Probing treats it as a clean "false", never as an error.
var ErrAccountNotFound = fmt.Errorf("account not found")

// RPCError is a structured error returned by the remote endpoint itself.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TransportError wraps failures to reach or parse the remote endpoint.
// Callers treat these as retryable at user discretion.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger endpoint unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
