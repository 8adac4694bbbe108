package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// JSON-RPC error codes the settlement network reports for the two transient
// failure classes.
const (
	rpcCodeRateLimited   = -32005
	rpcCodeNonceConflict = -32010
)

const confirmationPollInterval = 2 * time.Second

// RPCClient is the live ChainClient talking JSON-RPC 2.0 to a settlement
// network node.
type RPCClient struct {
	endpoint   string
	httpClient *http.Client
	requestID  func() string
}

// NewRPCClient creates a live settlement network client for the given endpoint.
func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		requestID: nextRequestID,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip, translating protocol error codes
// into the package's typed errors.
func (c *RPCClient) call(ctx context.Context, method string, params any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", method, ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if rpcResp.Error != nil {
		switch rpcResp.Error.Code {
		case rpcCodeRateLimited:
			return fmt.Errorf("%s: %s: %w", method, rpcResp.Error.Message, ErrRateLimited)
		case rpcCodeNonceConflict:
			return fmt.Errorf("%s: %s: %w", method, rpcResp.Error.Message, ErrNonceConflict)
		default:
			return fmt.Errorf("%s failed with code %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
		}
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
	}

	return nil
}

// Balance queries the account's spendable balance.
func (c *RPCClient) Balance(ctx context.Context, account string) (int64, error) {
	var balance int64

	err := c.call(ctx, "pay_getBalance", []any{account}, &balance)
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// PendingNonce queries the account's next sequence number including pending
// transactions.
func (c *RPCClient) PendingNonce(ctx context.Context, account string) (uint64, error) {
	var nonce uint64

	err := c.call(ctx, "pay_pendingNonce", []any{account}, &nonce)
	if err != nil {
		return 0, err
	}

	return nonce, nil
}

// SubmitBatch submits the batched transaction and returns its hash.
func (c *RPCClient) SubmitBatch(ctx context.Context, tx BatchTransaction) (string, error) {
	var txHash string

	err := c.call(ctx, "pay_submitBatch", []any{tx}, &txHash)
	if err != nil {
		return "", err
	}

	return txHash, nil
}

// WaitForConfirmation polls for the transaction receipt until the transaction
// is included in a block. The wait is bounded only by ctx; an operator-level
// timeout is a deployment concern.
func (c *RPCClient) WaitForConfirmation(ctx context.Context, txHash string) (*Receipt, error) {
	for {
		var receipt *Receipt

		err := c.call(ctx, "pay_getReceipt", []any{txHash}, &receipt)
		if err != nil && !retryable(err) {
			return nil, err
		}

		if receipt != nil && receipt.BlockNumber > 0 {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(confirmationPollInterval):
		}
	}
}

var requestCounter atomic.Uint64

func nextRequestID() string {
	return fmt.Sprintf("paydeck-%d", requestCounter.Add(1))
}
