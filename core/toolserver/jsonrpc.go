package toolserver

import (
	"context"
	"encoding/json"

	"github.com/EchoCog/echollama/core/coreerr"
)

// rpcRequest is one line-delimited JSON-RPC request of §6: stdio and SSE
// transports both decode into this shape before handing off to Dispatcher.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is the JSON-RPC response envelope. Exactly one of Result or
// Error is set.
type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

// rpcError is the JSON-RPC error object shape (§6).
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// callParams is the params shape of a `tools/call` request.
type callParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

const (
	jsonrpcParseError     = -32700
	jsonrpcInvalidRequest = -32600
	jsonrpcMethodNotFound = -32601
	jsonrpcInvalidParams  = -32602
	jsonrpcInternalError  = -32603
)

// kindToRPCCode maps the closed coreerr.Kind taxonomy to a JSON-RPC error
// code in the −32600..−32099 band named by §6/§7, keeping every Input
// family kind on the standard −32600/−32602 codes and giving State/
// External/Security/System each their own sub-range of the
// implementation-defined −32000..−32099 server-error band.
var kindToRPCCode = map[coreerr.Kind]int{
	coreerr.KindMalformedRequest:   jsonrpcInvalidRequest,
	coreerr.KindSchemaViolation:    jsonrpcInvalidParams,
	coreerr.KindArgumentOutOfRange: jsonrpcInvalidParams,

	coreerr.KindMissingParent:      -32010,
	coreerr.KindHierarchyViolation: -32011,
	coreerr.KindVersionMismatch:    -32012,
	coreerr.KindCorruptBlob:        -32013,

	coreerr.KindLLMTimeout:       -32020,
	coreerr.KindLLMRejected:      -32021,
	coreerr.KindRedisUnavailable: -32022,

	coreerr.KindManipulationCritical:           -32030,
	coreerr.KindPrincipalLoyaltyBreach:         -32031,
	coreerr.KindValidatorOverrideIrrecoverable: -32032,

	coreerr.KindIOFailure:         -32040,
	coreerr.KindOutOfMemory:       -32041,
	coreerr.KindInternalInvariant: -32042,
}

// rpcCodeFor returns the JSON-RPC error code for err, falling back to
// jsonrpcInternalError for an unrecognized error.
func rpcCodeFor(err error) int {
	ce, ok := coreerr.As(err)
	if !ok {
		return jsonrpcInternalError
	}
	if code, ok := kindToRPCCode[ce.Kind]; ok {
		return code
	}
	return jsonrpcInternalError
}

// toolListEntry is one row of the tools/list result.
type toolListEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleRequest dispatches one decoded JSON-RPC request to the matching
// method (§6: initialize, ping, tools/list, tools/call) and returns the
// response envelope to write back. It never panics on malformed params; a
// decode failure there becomes an InvalidParams error response.
func handleRequest(ctx context.Context, d *Dispatcher, req rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo":      map[string]string{"name": "consciousnessd", "version": "2.0.0"},
		}
	case "ping":
		resp.Result = map[string]interface{}{"pong": true}
	case "tools/list":
		names := ToolNames()
		entries := make([]toolListEntry, 0, len(names))
		for _, n := range names {
			desc, _ := ToolDescription(n)
			entries = append(entries, toolListEntry{Name: n, Description: desc})
		}
		resp.Result = map[string]interface{}{"tools": entries}
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &rpcError{Code: jsonrpcInvalidParams, Message: "malformed tools/call params"}
			break
		}
		body, err := d.Call(ctx, params.Name, params.Arguments)
		if err != nil {
			resp.Error = &rpcError{Code: rpcCodeFor(err), Message: err.Error()}
			break
		}
		resp.Result = map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": body}},
		}
	default:
		resp.Error = &rpcError{Code: jsonrpcMethodNotFound, Message: "unknown method " + req.Method}
	}
	return resp
}
