package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFakeEndpoint(t *testing.T, handler func(method string, params []json.RawMessage) (any, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("malformed request: %v", err)
			return
		}
		if req.ID == "" {
			t.Error("request must carry an id")
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func newTestClient(endpoint string) *RPCClient {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	return NewRPCClient(cfg, nil)
}

func TestAddressRoundTrip(t *testing.T) {
	a := Address{1, 2, 3}
	parsed, err := AddressFromBase58(a.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed != a {
		t.Fatal("base58 round trip mismatch")
	}
	if _, err := AddressFromBase58("not-base58-!!!"); err == nil {
		t.Fatal("expected error for invalid text")
	}
	if _, err := AddressFromBytes(make([]byte, 31)); err == nil {
		t.Fatal("expected error for short byte slice")
	}
}

func TestAccountExistsDistinguishesAbsenceFromFailure(t *testing.T) {
	known := Address{7}
	srv := newFakeEndpoint(t, func(method string, params []json.RawMessage) (any, *RPCError) {
		if method != "getAccountInfo" {
			return nil, &RPCError{Code: -32601, Message: "method not found"}
		}
		var addr string
		if err := json.Unmarshal(params[0], &addr); err != nil {
			return nil, &RPCError{Code: -32602, Message: "bad params"}
		}
		if addr == known.String() {
			return map[string]any{"value": map[string]any{
				"data":     []string{base64.StdEncoding.EncodeToString([]byte{1, 2}), "base64"},
				"owner":    Address{9}.String(),
				"lamports": 1000,
			}}, nil
		}
		return map[string]any{"value": nil}, nil
	})
	defer srv.Close()
	client := newTestClient(srv.URL)

	exists, err := client.AccountExists(context.Background(), known)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if !exists {
		t.Fatal("expected known account to exist")
	}

	exists, err = client.AccountExists(context.Background(), Address{8})
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if exists {
		t.Fatal("unknown account must not exist")
	}

	_, err = client.AccountInfo(context.Background(), Address{8})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountExistsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	client := newTestClient(srv.URL)

	_, err := client.AccountExists(context.Background(), Address{1})
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestProgramAccountsSendsOwnerFilter(t *testing.T) {
	owner := Address{5}
	var gotFilters string
	srv := newFakeEndpoint(t, func(method string, params []json.RawMessage) (any, *RPCError) {
		if method != "getProgramAccounts" {
			return nil, &RPCError{Code: -32601, Message: "method not found"}
		}
		gotFilters = string(params[1])
		return []map[string]any{
			{
				"pubkey": Address{6}.String(),
				"account": map[string]any{
					"data":     []string{base64.StdEncoding.EncodeToString([]byte{1}), "base64"},
					"owner":    Address{9}.String(),
					"lamports": 1,
				},
			},
		}, nil
	})
	defer srv.Close()

	entries, err := newTestClient(srv.URL).ProgramAccounts(context.Background(), Address{0xAA}, ScanFilter{
		DataSize:    88,
		OwnerOffset: 8,
		Owner:       owner,
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}

	var opts struct {
		Filters []map[string]json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal([]byte(gotFilters), &opts); err != nil {
		t.Fatalf("parse filters: %v", err)
	}
	if len(opts.Filters) != 2 {
		t.Fatalf("expected dataSize and memcmp filters, got %d", len(opts.Filters))
	}
	var memcmp struct {
		Offset int    `json:"offset"`
		Bytes  string `json:"bytes"`
	}
	if err := json.Unmarshal(opts.Filters[1]["memcmp"], &memcmp); err != nil {
		t.Fatalf("parse memcmp: %v", err)
	}
	if memcmp.Offset != 8 {
		t.Fatalf("owner filter offset must be 8, got %d", memcmp.Offset)
	}
	if memcmp.Bytes != owner.String() {
		t.Fatal("owner filter must carry the base58 owner bytes")
	}
}

func TestSubmitTransactionSurfacesRPCError(t *testing.T) {
	srv := newFakeEndpoint(t, func(method string, _ []json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32002, Message: "Transaction simulation failed: this transaction has already been processed"}
	})
	defer srv.Close()

	_, err := newTestClient(srv.URL).SubmitTransaction(context.Background(), []byte{1, 2, 3})
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if rpcErr.Code != -32002 {
		t.Fatalf("unexpected code: %d", rpcErr.Code)
	}
}

func TestSignatureStatusStates(t *testing.T) {
	responses := map[string]any{
		"unknown":   map[string]any{"value": []any{nil}},
		"confirmed": map[string]any{"value": []any{map[string]any{"confirmationStatus": "confirmed", "err": nil}}},
		"failed":    map[string]any{"value": []any{map[string]any{"confirmationStatus": "finalized", "err": map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 6001}}}}}},
	}
	srv := newFakeEndpoint(t, func(_ string, params []json.RawMessage) (any, *RPCError) {
		var ids []string
		if err := json.Unmarshal(params[0], &ids); err != nil || len(ids) != 1 {
			return nil, &RPCError{Code: -32602, Message: "bad params"}
		}
		return responses[ids[0]], nil
	})
	defer srv.Close()
	client := newTestClient(srv.URL)

	status, err := client.SignatureStatus(context.Background(), "unknown")
	if err != nil || status != nil {
		t.Fatalf("unknown signature must be (nil, nil), got (%v, %v)", status, err)
	}

	status, err = client.SignatureStatus(context.Background(), "confirmed")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status == nil || !status.Confirmed || status.Err != "" {
		t.Fatalf("unexpected confirmed status: %+v", status)
	}

	status, err = client.SignatureStatus(context.Background(), "failed")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status == nil || status.Err == "" {
		t.Fatal("program failure must surface in the status")
	}
}

func TestLatestBlockhash(t *testing.T) {
	want := Blockhash{3, 2, 1}
	srv := newFakeEndpoint(t, func(method string, _ []json.RawMessage) (any, *RPCError) {
		if method != "getLatestBlockhash" {
			return nil, &RPCError{Code: -32601, Message: fmt.Sprintf("unexpected method %s", method)}
		}
		return map[string]any{"value": map[string]any{"blockhash": want.String()}}, nil
	})
	defer srv.Close()

	got, err := newTestClient(srv.URL).LatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("blockhash failed: %v", err)
	}
	if got != want {
		t.Fatal("blockhash round trip mismatch")
	}
}
