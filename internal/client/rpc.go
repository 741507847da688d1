package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Category classifies the outcome of one request attempt. Every attempt is
// assigned exactly one category.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryHTTPErr Category = "http_err"
	CategoryRPCErr  Category = "rpc_err"
	CategoryTimeout Category = "timeout"
	// CategoryConnErr covers transport-level failures other than timeout:
	// DNS failure, connection refused, reset.
	CategoryConnErr  Category = "curl_err"
	CategoryOtherErr Category = "other_err"
)

// Categories lists every outcome category in report order.
var Categories = []Category{
	CategorySuccess,
	CategoryHTTPErr,
	CategoryRPCErr,
	CategoryTimeout,
	CategoryConnErr,
	CategoryOtherErr,
}

// Outcome is the immutable record of one request attempt.
type Outcome struct {
	Category  Category
	LatencyMS int64
	// HasLatency is false when the attempt never produced a timed response
	// (transport failures and timeouts).
	HasLatency   bool
	StatusCode   int   // 0 when no response was received
	RPCErrorCode int64 // numeric error.code for rpc_err outcomes, if any
}

// envelope is the JSON-RPC 2.0 request body.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Invoker issues single JSON-RPC calls against a fixed endpoint and
// classifies each result.
type Invoker struct {
	client *Client
	url    string
	method string
	params json.RawMessage

	// successOnlyLatency restricts latency samples to successful calls.
	// By default any attempt that produced a timed response contributes one,
	// including non-200 and rpc-error responses.
	successOnlyLatency bool
}

// NewInvoker creates an invoker for the given endpoint, method and params.
// params must be a valid JSON value; it is passed through verbatim.
func NewInvoker(client *Client, url, method, params string, successOnlyLatency bool) *Invoker {
	return &Invoker{
		client:             client,
		url:                url,
		method:             method,
		params:             json.RawMessage(params),
		successOnlyLatency: successOnlyLatency,
	}
}

// Invoke performs exactly one JSON-RPC call with the given request id.
// The latency timer spans from dispatch to response completion, truncated to
// whole milliseconds. Failures are classified, never returned as errors.
func (inv *Invoker) Invoke(ctx context.Context, id uint64) Outcome {
	body, err := json.Marshal(envelope{
		JSONRPC: "2.0",
		ID:      id,
		Method:  inv.method,
		Params:  inv.params,
	})
	if err != nil {
		return Outcome{Category: CategoryOtherErr}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inv.url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Category: CategoryOtherErr}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := inv.client.Do(req)
	if err != nil {
		return Outcome{Category: classifyTransportError(err)}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	if readErr != nil {
		return Outcome{Category: classifyTransportError(readErr)}
	}

	out := Outcome{
		LatencyMS:  latency,
		StatusCode: resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		out.Category = CategoryHTTPErr
	} else {
		out.Category, out.RPCErrorCode = classifyBody(respBody)
	}
	out.HasLatency = out.Category == CategorySuccess || !inv.successOnlyLatency
	return out
}

// classifyTransportError distinguishes timeout expiry from other
// transport-level failures.
func classifyTransportError(err error) Category {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	return CategoryConnErr
}

// classifyBody inspects a 200 response body: a non-null error field wins over
// result; a body with neither is treated as an RPC error.
func classifyBody(body []byte) (Category, int64) {
	if errField := gjson.GetBytes(body, "error"); errField.Exists() && errField.Type != gjson.Null {
		return CategoryRPCErr, errField.Get("code").Int()
	}
	if gjson.GetBytes(body, "result").Exists() {
		return CategorySuccess, 0
	}
	return CategoryRPCErr, 0
}
