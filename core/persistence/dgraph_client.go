// DgraphClient is the optional graph-backed mirror of the fractal memory
// hierarchy (§4.A/§4.B). fractalmemory.Store calls UpsertNode after every
// successful Store() once DGRAPH_ENDPOINT names a reachable cluster; the
// mirror is never authoritative, so a Dgraph outage degrades the graph
// index's freshness without affecting correctness of the file-backed Store.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/dgo/v230"
	"github.com/dgraph-io/dgo/v230/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DgraphClient manages the connection to Dgraph used to mirror fractal
// memory nodes into a queryable graph.
type DgraphClient struct {
	mu         sync.RWMutex
	conn       *grpc.ClientConn
	client     *dgo.Dgraph
	ctx        context.Context
	cancel     context.CancelFunc
	endpoint   string
	connected  bool
	retryCount int
	retryDelay time.Duration
}

// DgraphConfig configures a DgraphClient's endpoint and connection retry
// policy.
type DgraphConfig struct {
	Endpoint   string
	RetryCount int
	RetryDelay time.Duration
}

// DefaultDgraphConfig reads DGRAPH_ENDPOINT (§6), falling back to the
// standard local Dgraph Alpha port.
func DefaultDgraphConfig() *DgraphConfig {
	endpoint := os.Getenv("DGRAPH_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9080"
	}
	return &DgraphConfig{
		Endpoint:   endpoint,
		RetryCount: 3,
		RetryDelay: time.Second * 2,
	}
}

// NewDgraphClient dials config.Endpoint, making up to config.RetryCount
// attempts, each bounded by a dial timeout.
func NewDgraphClient(config *DgraphConfig) (*DgraphClient, error) {
	if config == nil {
		config = DefaultDgraphConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &DgraphClient{
		ctx:        ctx,
		cancel:     cancel,
		endpoint:   config.Endpoint,
		retryCount: config.RetryCount,
		retryDelay: config.RetryDelay,
	}

	if err := client.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to Dgraph: %w", err)
	}

	return client, nil
}

func (dc *DgraphClient) connect() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	const dialTimeout = 5 * time.Second
	var lastErr error
	for i := 0; i < dc.retryCount; i++ {
		dialCtx, dialCancel := context.WithTimeout(dc.ctx, dialTimeout)
		conn, err := grpc.DialContext(
			dialCtx,
			dc.endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithBlock(),
		)
		dialCancel()
		if err != nil {
			lastErr = err
			time.Sleep(dc.retryDelay)
			continue
		}

		dc.conn = conn
		dc.client = dgo.NewDgraphClient(api.NewDgraphClient(conn))
		dc.connected = true
		return nil
	}

	return fmt.Errorf("failed to connect after %d attempts: %w", dc.retryCount, lastErr)
}

// Close releases the underlying gRPC connection.
func (dc *DgraphClient) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.cancel()
	if dc.conn != nil {
		return dc.conn.Close()
	}
	return nil
}

// IsConnected reports whether the client holds a live connection.
func (dc *DgraphClient) IsConnected() bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.connected
}

func (dc *DgraphClient) mutate(ctx context.Context, mu *api.Mutation) error {
	dc.mu.RLock()
	client := dc.client
	dc.mu.RUnlock()
	if client == nil {
		return fmt.Errorf("dgraph client not connected")
	}

	txn := client.NewTxn()
	defer txn.Discard(ctx)

	if _, err := txn.Mutate(ctx, mu); err != nil {
		return err
	}
	return txn.Commit(ctx)
}

// UpsertNode mutates a single fractal-memory node's JSON representation
// into the graph, keyed by its store-assigned node id. It implements
// fractalmemory.GraphMirror.
func (dc *DgraphClient) UpsertNode(ctx context.Context, nodeID string, node interface{}) error {
	payload, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshal node %s: %w", nodeID, err)
	}
	return dc.mutate(ctx, &api.Mutation{SetJson: payload, CommitNow: true})
}
