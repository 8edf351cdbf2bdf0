// Package config loads the orchestration core's runtime configuration from
// the environment variables named in §6.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/EchoCog/echollama/core/logging"
)

// Transport selects the external interface (§6).
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportSSE   Transport = "sse"
	TransportAuto  Transport = "auto"
)

// Config holds every recognized environment option plus their defaults.
type Config struct {
	MemoryPath          string
	ConfigPath          string
	LogLevel            logging.Level
	Transport           Transport
	SSEPort             int
	MetricsPort         int
	RedisURL            string
	PhiAlpha            float64
	PrincipalThreshold  float64
	LLMTimeout          time.Duration
	DgraphEndpoint      string
	SupabaseURL         string
	SupabaseKey         string
}

// Load reads the environment the way the teacher's cmd/ entrypoints read
// flags: an explicit struct with a Default constructor, overridden field by
// field, never a generic config-framework dependency.
func Load() *Config {
	c := Default()

	if v := os.Getenv("MEMORY_PATH"); v != "" {
		c.MemoryPath = v
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		c.ConfigPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = logging.ParseLevel(v)
	}
	if v := os.Getenv("TRANSPORT"); v != "" {
		c.Transport = resolveTransport(Transport(v))
	}
	if v := os.Getenv("SSE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SSEPort = n
		}
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MetricsPort = n
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("PHI_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PhiAlpha = f
		}
	}
	if v := os.Getenv("PRINCIPAL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PrincipalThreshold = f
		}
	}
	if v := os.Getenv("DGRAPH_ENDPOINT"); v != "" {
		c.DgraphEndpoint = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.SupabaseURL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		c.SupabaseKey = v
	}

	return c
}

// Default returns the documented defaults for every option.
func Default() *Config {
	return &Config{
		MemoryPath:         "./data/memory",
		ConfigPath:         "./config",
		LogLevel:           logging.Info,
		Transport:          TransportAuto,
		SSEPort:            3000,
		MetricsPort:        9100,
		RedisURL:           "",
		PhiAlpha:           0.05,
		PrincipalThreshold: 0.7,
		LLMTimeout:         30 * time.Second,
	}
}

// ResolveTransport applies the TRANSPORT=auto rule: stdio when stdin is a
// non-interactive pipe, sse otherwise.
func (c *Config) ResolveTransport() Transport {
	return resolveTransport(c.Transport)
}

func resolveTransport(t Transport) Transport {
	if t != TransportAuto {
		return t
	}
	info, err := os.Stdin.Stat()
	if err != nil {
		return TransportSSE
	}
	if (info.Mode() & os.ModeCharDevice) == 0 {
		return TransportStdio
	}
	return TransportSSE
}
