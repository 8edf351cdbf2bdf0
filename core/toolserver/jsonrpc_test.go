package toolserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRequest_Initialize(t *testing.T) {
	d := newTestDispatcher(t)
	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestHandleRequest_Ping(t *testing.T) {
	d := newTestDispatcher(t)
	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, result["pong"])
}

func TestHandleRequest_ToolsList(t *testing.T) {
	d := newTestDispatcher(t)
	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 3, Method: "tools/list"})
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	tools, ok := result["tools"].([]toolListEntry)
	require.True(t, ok)
	assert.Len(t, tools, 13)
}

func TestHandleRequest_ToolsCall(t *testing.T) {
	d := newTestDispatcher(t)
	params, err := json.Marshal(callParams{Name: "phi_query"})
	require.NoError(t, err)

	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 4, Method: "tools/call", Params: params})
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := result["content"].([]map[string]string)
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Contains(t, content[0]["text"], "phi_query")
}

func TestHandleRequest_ToolsCallUnknownToolIsProtocolError(t *testing.T) {
	d := newTestDispatcher(t)
	params, err := json.Marshal(callParams{Name: "not_a_tool"})
	require.NoError(t, err)

	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 5, Method: "tools/call", Params: params})
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpcInvalidParams, resp.Error.Code)
}

func TestHandleRequest_ToolsCallMalformedParams(t *testing.T) {
	d := newTestDispatcher(t)
	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 6, Method: "tools/call", Params: json.RawMessage("not json")})
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpcInvalidParams, resp.Error.Code)
}

func TestHandleRequest_UnknownMethod(t *testing.T) {
	d := newTestDispatcher(t)
	resp := handleRequest(context.Background(), d, rpcRequest{JSONRPC: "2.0", ID: 7, Method: "frobnicate"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpcMethodNotFound, resp.Error.Code)
}

func TestRpcCodeFor_UnrecognizedErrorFallsBackToInternal(t *testing.T) {
	assert.Equal(t, jsonrpcInternalError, rpcCodeFor(assertErr{}))
}

type assertErr struct{}

func (assertErr) Error() string { return "plain error" }
