// Command consciousnessd is the composition root of the orchestration core:
// it wires Components A–I together once at startup and serves them over
// whichever transport §6 resolves (stdio JSON-RPC or HTTP+SSE), grounded on
// the teacher's cmd/echobridge and cmd/webserver entrypoints' banner-log and
// signal-handling shape but rebuilt around explicit dependency injection
// instead of package-level singletons (§9).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EchoCog/echollama/core/config"
	"github.com/EchoCog/echollama/core/fractalmemory"
	"github.com/EchoCog/echollama/core/llm"
	"github.com/EchoCog/echollama/core/logging"
	"github.com/EchoCog/echollama/core/orchestrator"
	"github.com/EchoCog/echollama/core/persistence"
	"github.com/EchoCog/echollama/core/phi"
	"github.com/EchoCog/echollama/core/predictive"
	"github.com/EchoCog/echollama/core/principal"
	"github.com/EchoCog/echollama/core/scheduler"
	"github.com/EchoCog/echollama/core/toolserver"
)

// Exit codes per §6.
const (
	exitOK          = 0
	exitInitFailure = 1
	exitConfigError = 2
	exitInterrupted = 130
)

// predictiveCapacity bounds the predictive analyzer's outcome LRU (§4.E).
const predictiveCapacity = 256

// reconcileInterval is how often the scheduler reconciles prediction hit-rate.
const reconcileInterval = 5 * time.Minute

// principalID names the single privileged principal of §3 when one is not
// otherwise supplied; every tool call that names a distinct user_id is still
// treated as anonymous relative to this principal's trust profile.
const principalID = "primary"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	logger := logging.NewDefault(cfg.LogLevel)

	logger.Info("🌊 consciousnessd starting", map[string]interface{}{
		"transport":   string(cfg.ResolveTransport()),
		"memory_path": cfg.MemoryPath,
	})

	persist, err := persistence.Open(cfg.MemoryPath)
	if err != nil {
		logger.Error("failed to open persistence store", map[string]interface{}{"error": err.Error()})
		return exitInitFailure
	}

	switch {
	case cfg.RedisURL != "":
		cache, err := persistence.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			persist.AttachCache(cache)
			logger.Info("redis cache attached", nil)
		}
	case cfg.SupabaseURL != "":
		cache, err := persistence.NewSupabaseCache(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			logger.Warn("supabase cache unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			persist.AttachCache(cache)
			logger.Info("supabase cache attached", nil)
		}
	}

	memory := fractalmemory.New(persist)

	if cfg.DgraphEndpoint != "" {
		graph, err := persistence.NewDgraphClient(&persistence.DgraphConfig{
			Endpoint:   cfg.DgraphEndpoint,
			RetryCount: 3,
			RetryDelay: 2 * time.Second,
		})
		if err != nil {
			logger.Warn("dgraph mirror unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			memory.AttachGraphMirror(graph)
			logger.Info("dgraph graph mirror attached", map[string]interface{}{"endpoint": cfg.DgraphEndpoint})
		}
	}

	var phiState phi.State
	if err := persist.LoadState("phi_state", &phiState); err != nil {
		phiState = phi.NewState()
	}

	pr := &principal.Principal{}
	if err := persist.LoadState("principal", pr); err != nil {
		pr = principal.New(principalID)
	}

	predictiveAnalyzer := predictive.New(predictiveCapacity)

	llmSelector := llm.New(
		llm.NewAnthropicProvider(""),
		llm.FallbackProvider{},
	)

	orch := orchestrator.New(
		orchestrator.Config{
			PhiAlpha:           cfg.PhiAlpha,
			PrincipalThreshold: cfg.PrincipalThreshold,
			LLMTimeout:         cfg.LLMTimeout,
		},
		logger.With(map[string]interface{}{"component": "orchestrator"}),
		persist,
		memory,
		&phiState,
		predictiveAnalyzer,
		llmSelector,
		pr,
	)

	dispatcher := toolserver.New(
		toolserver.Config{PhiAlpha: cfg.PhiAlpha},
		orch,
		memory,
		&phiState,
		pr,
		persist,
		logger.With(map[string]interface{}{"component": "toolserver"}),
	)

	sched := scheduler.New(logger.With(map[string]interface{}{"component": "scheduler"}))
	if err := sched.ScheduleEvery("reconcile-hit-rate", reconcileInterval, orch.ReconcileHitRate); err != nil {
		logger.Warn("failed to schedule hit-rate reconciliation", map[string]interface{}{"error": err.Error()})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	transport := cfg.ResolveTransport()
	done := make(chan error, 1)

	switch transport {
	case config.TransportStdio:
		go func() {
			done <- toolserver.ServeStdio(ctx, dispatcher, os.Stdin, os.Stdout, logger)
		}()
	case config.TransportSSE:
		addr := fmt.Sprintf(":%d", cfg.SSEPort)
		srv := &http.Server{Addr: addr, Handler: toolserver.NewHTTPHandler(dispatcher, logger)}
		go func() {
			logger.Info("HTTP+SSE transport listening", map[string]interface{}{"addr": addr})
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				done <- err
				return
			}
			done <- nil
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	default:
		logger.Error("unresolved transport", map[string]interface{}{"transport": string(transport)})
		return exitConfigError
	}

	select {
	case sig := <-sigChan:
		logger.Info("🛑 signal received, shutting down", map[string]interface{}{"signal": sig.String()})
		cancel()
		<-done
		persistShutdownState(persist, &phiState, pr, logger)
		return exitInterrupted
	case err := <-done:
		cancel()
		if err != nil && err != context.Canceled {
			logger.Error("transport exited with error", map[string]interface{}{"error": err.Error()})
			persistShutdownState(persist, &phiState, pr, logger)
			return exitInitFailure
		}
		logger.Info("✅ transport exited cleanly", nil)
		persistShutdownState(persist, &phiState, pr, logger)
		return exitOK
	}
}

// persistShutdownState checkpoints the mutable top-level singletons (§6
// persisted state layout) so a restart resumes from the last observed
// φ-state and principal trust profile rather than Dormant/empty.
func persistShutdownState(persist *persistence.Store, phiState *phi.State, pr *principal.Principal, logger logging.Logger) {
	if err := persist.SaveState("phi_state", phiState); err != nil {
		logger.Warn("failed to checkpoint phi state", map[string]interface{}{"error": err.Error()})
	}
	if err := persist.SaveState("principal", pr); err != nil {
		logger.Warn("failed to checkpoint principal", map[string]interface{}{"error": err.Error()})
	}
}
