package toolserver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/EchoCog/echollama/core/logging"
)

// maxLineBytes bounds a single incoming JSON-RPC line, generous enough for
// a request carrying the full 64 KiB user-text bound plus framing.
const maxLineBytes = 256 * 1024

// ServeStdio implements §6's line-delimited JSON-RPC-over-stdio transport:
// each line in is one JSON-RPC request, each line written to out is its
// response. Diagnostic logs never touch out; they go through logger
// (wired to stderr by the composition root) so out carries only protocol
// frames. ServeStdio returns when in reaches EOF or a read fails, when a
// response cannot be written, or when ctx is found cancelled after the next
// line is read; a read blocked waiting for input is not interrupted by ctx.
func ServeStdio(ctx context.Context, d *Dispatcher, in io.Reader, out io.Writer, logger logging.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn("malformed JSON-RPC line", map[string]interface{}{"error": err.Error()})
			_ = enc.Encode(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: jsonrpcParseError, Message: "malformed JSON-RPC request"}})
			continue
		}

		resp := handleRequest(ctx, d, req)
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
