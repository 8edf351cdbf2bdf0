package toolserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/EchoCog/echollama/core/logging"
)

// NewHTTPHandler builds the HTTP+SSE transport of §6: a single `POST /mcp`
// endpoint carrying one JSON-RPC request per body and responding with a
// single `message` Server-Sent Event carrying the JSON-RPC response, plus a
// `GET /healthz` liveness probe. Grounded on the teacher's gin.Default() +
// cors.DefaultConfig() wiring; CORS allows every origin, and the handler
// is bound to one Dispatcher.
func NewHTTPHandler(d *Dispatcher, logger logging.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/mcp", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeSSEFrame(c, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: jsonrpcParseError, Message: "malformed JSON-RPC request"}})
			return
		}

		resp := handleRequest(c.Request.Context(), d, req)
		writeSSEFrame(c, resp)
	})

	return r
}

// writeSSEFrame emits resp as a single `message` SSE event. §6 uses SSE as
// a transport wrapper around one-shot JSON-RPC exchanges, not a streaming
// protocol, so every request produces exactly one event.
func writeSSEFrame(c *gin.Context, resp rpcResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.String(http.StatusOK, "event: message\ndata: %s\n\n", payload)
}
