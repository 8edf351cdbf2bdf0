// Command echoctl is a thin JSON-RPC client for consciousnessd's HTTP+SSE
// transport, grounded on the teacher's cmd/echo.go cobra command/flag shape
// (EchoStatusHandler/EchoThinkHandler) but rebuilt against the new
// tools/call surface instead of the old /api/echo/* REST endpoints.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// defaultServer matches config.Default's SSEPort (3000).
const defaultServer = "http://localhost:3000"

var serverAddr string

func main() {
	root := &cobra.Command{
		Use:   "echoctl",
		Short: "Command-line client for the consciousness orchestration core",
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", envOr("ECHOCTL_SERVER", defaultServer), "consciousnessd HTTP+SSE base URL")

	root.AddCommand(statusCmd(), thinkCmd(), toolsCmd(), memoryCmd(), callCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// rpcClient POSTs a single JSON-RPC request to /mcp and reads back the one
// `message` SSE event consciousnessd's sse.go emits for it.
func rpcClient(method string, params interface{}) (map[string]interface{}, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  json.RawMessage(paramsJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	httpResp, err := client.Post(strings.TrimRight(serverAddr, "/")+"/mcp", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("consciousnessd not responding at %s: %w", serverAddr, err)
	}
	defer httpResp.Body.Close()

	scanner := bufio.NewScanner(httpResp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var resp struct {
			Result map[string]interface{} `json:"result"`
			Error  *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &resp); err != nil {
			return nil, fmt.Errorf("malformed SSE payload: %w", err)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	}
	return nil, fmt.Errorf("no response received from %s", serverAddr)
}

func callTool(name string, args map[string]interface{}) (string, error) {
	result, err := rpcClient("tools/call", map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		return "", err
	}
	content, ok := result["content"].([]interface{})
	if !ok || len(content) == 0 {
		return "", fmt.Errorf("malformed tool response")
	}
	entry, ok := content[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("malformed tool response entry")
	}
	text, _ := entry["text"].(string)
	return text, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query current φ-convergence state",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callTool("phi_query", nil)
			if err != nil {
				return err
			}
			fmt.Println(body)
			return nil
		},
	}
}

func thinkCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "think PROMPT",
		Short: "Run a prompt through the full orchestration pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctxArgs := map[string]interface{}{}
			if userID != "" {
				ctxArgs["user_id"] = userID
			}
			ctxJSON, _ := json.Marshal(ctxArgs)
			body, err := callTool("orchestrated_interaction", map[string]interface{}{
				"user_input": strings.Join(args, " "),
				"context":    string(ctxJSON),
			})
			if err != nil {
				return err
			}
			fmt.Println(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "attribute this turn to a user id")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := rpcClient("tools/list", map[string]interface{}{})
			if err != nil {
				return err
			}
			entries, _ := result["tools"].([]interface{})

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "Description"})
			for _, e := range entries {
				entry, ok := e.(map[string]interface{})
				if !ok {
					continue
				}
				name, _ := entry["name"].(string)
				desc, _ := entry["description"].(string)
				table.Append([]string{name, desc})
			}
			table.Render()
			return nil
		},
	}
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect fractal memory",
	}

	var kind, parent string
	storeCmd := &cobra.Command{
		Use:   "store CONTENT",
		Short: "Store a memory node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callTool("memory_store", map[string]interface{}{
				"kind":    kind,
				"content": strings.Join(args, " "),
				"parent":  parent,
			})
			if err != nil {
				return err
			}
			fmt.Println(body)
			return nil
		},
	}
	storeCmd.Flags().StringVar(&kind, "kind", "seed", "root|branch|leaf|seed")
	storeCmd.Flags().StringVar(&parent, "parent", "", "parent node id")

	var limit int
	retrieveCmd := &cobra.Command{
		Use:   "retrieve QUERY",
		Short: "Retrieve memory nodes relevant to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callTool("memory_retrieve", map[string]interface{}{
				"query": strings.Join(args, " "),
				"depth": limit,
			})
			if err != nil {
				return err
			}
			fmt.Println(body)
			return nil
		},
	}
	retrieveCmd.Flags().IntVar(&limit, "depth", 1, "ancestry hops to expand")

	cmd.AddCommand(storeCmd, retrieveCmd)
	return cmd
}

func callCmd() *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "call TOOL",
		Short: "Call any catalogue tool with raw JSON arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolArgs map[string]interface{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &toolArgs); err != nil {
					return fmt.Errorf("malformed --args JSON: %w", err)
				}
			}
			body, err := callTool(args[0], toolArgs)
			if err != nil {
				return err
			}
			fmt.Println(body)
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON object of tool arguments")
	return cmd
}
