package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Config controls the HTTP JSON-RPC client.
type Config struct {
	Endpoint          string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
}

func DefaultConfig() Config {
	return Config{
		Endpoint:          "http://127.0.0.1:8899",
		RequestTimeout:    15 * time.Second,
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// RPCClient talks to the remote ledger over HTTP JSON-RPC. One client is
// constructed per endpoint and passed explicitly into every component that
// needs it; there is no ambient global handle.
type RPCClient struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
	metrics *rpcMetrics
}

func NewRPCClient(cfg Config, reg prometheus.Registerer) *RPCClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig().Endpoint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 && cfg.Burst > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return &RPCClient{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.RequestTimeout},
		limiter: limiter,
		metrics: newRPCMetrics(reg),
	}
}

var _ Client = (*RPCClient)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Err: err}
		}
	}
	c.metrics.recordRequest(method)

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.recordFailure(method)
		slog.Warn("ledger rpc request failed", "method", method, "reason", err.Error())
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.metrics.recordFailure(method)
		return &TransportError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.recordFailure(method)
		return &TransportError{Err: err}
	}
	if parsed.Error != nil {
		c.metrics.recordFailure(method)
		return parsed.Error
	}
	if out != nil {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			c.metrics.recordFailure(method)
			return &TransportError{Err: err}
		}
	}
	return nil
}

type accountInfoValue struct {
	Data     []string `json:"data"`
	Owner    string   `json:"owner"`
	Lamports uint64   `json:"lamports"`
}

type accountInfoResult struct {
	Value *accountInfoValue `json:"value"`
}

func decodeAccountValue(v accountInfoValue) (Account, error) {
	owner, err := AddressFromBase58(v.Owner)
	if err != nil {
		return Account{}, err
	}
	var data []byte
	if len(v.Data) > 0 {
		data, err = base64.StdEncoding.DecodeString(v.Data[0])
		if err != nil {
			return Account{}, err
		}
	}
	return Account{Owner: owner, Lamports: v.Lamports, Data: data}, nil
}

func (c *RPCClient) AccountInfo(ctx context.Context, addr Address) (*Account, error) {
	var result accountInfoResult
	params := []any{addr.String(), map[string]any{"encoding": "base64"}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	account, err := decodeAccountValue(*result.Value)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return &account, nil
}

// AccountExists is the existence probe: an absent account is false with no
// error, so that callers only ever see transport-level failures.
func (c *RPCClient) AccountExists(ctx context.Context, addr Address) (bool, error) {
	_, err := c.AccountInfo(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type programAccountEntry struct {
	Pubkey  string           `json:"pubkey"`
	Account accountInfoValue `json:"account"`
}

func (c *RPCClient) ProgramAccounts(ctx context.Context, program Address, filter ScanFilter) ([]KeyedAccount, error) {
	filters := make([]any, 0, 2)
	if filter.DataSize > 0 {
		filters = append(filters, map[string]any{"dataSize": filter.DataSize})
	}
	if !filter.Owner.IsZero() {
		filters = append(filters, map[string]any{
			"memcmp": map[string]any{
				"offset": filter.OwnerOffset,
				"bytes":  filter.Owner.String(),
			},
		})
	}
	params := []any{program.String(), map[string]any{"encoding": "base64", "filters": filters}}

	var entries []programAccountEntry
	if err := c.call(ctx, "getProgramAccounts", params, &entries); err != nil {
		return nil, err
	}
	out := make([]KeyedAccount, 0, len(entries))
	for _, e := range entries {
		addr, err := AddressFromBase58(e.Pubkey)
		if err != nil {
			slog.Warn("skipping scan entry with malformed address", "pubkey", e.Pubkey)
			continue
		}
		account, err := decodeAccountValue(e.Account)
		if err != nil {
			slog.Warn("skipping scan entry with malformed account data", "pubkey", e.Pubkey, "reason", err.Error())
			continue
		}
		out = append(out, KeyedAccount{Address: addr, Account: account})
	}
	return out, nil
}

type latestBlockhashResult struct {
	Value struct {
		Blockhash string `json:"blockhash"`
	} `json:"value"`
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (Blockhash, error) {
	var result latestBlockhashResult
	if err := c.call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return Blockhash{}, err
	}
	hash, err := BlockhashFromBase58(result.Value.Blockhash)
	if err != nil {
		return Blockhash{}, &TransportError{Err: err}
	}
	return hash, nil
}

func (c *RPCClient) SubmitTransaction(ctx context.Context, wire []byte) (string, error) {
	var trackingID string
	params := []any{base64.StdEncoding.EncodeToString(wire), map[string]any{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &trackingID); err != nil {
		return "", err
	}
	return trackingID, nil
}

type signatureStatusesResult struct {
	Value []*struct {
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	} `json:"value"`
}

func (c *RPCClient) SignatureStatus(ctx context.Context, trackingID string) (*SignatureStatus, error) {
	var result signatureStatusesResult
	params := []any{[]string{trackingID}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return nil, nil
	}
	entry := result.Value[0]
	status := &SignatureStatus{
		Confirmed: entry.ConfirmationStatus == "confirmed" || entry.ConfirmationStatus == "finalized",
	}
	if len(entry.Err) > 0 && string(entry.Err) != "null" {
		status.Err = string(entry.Err)
	}
	return status, nil
}
