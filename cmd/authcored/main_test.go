package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(config.Config{LogLevel: "debug", LogFormat: "console"})
	require.NoError(t, err)

	_, err = newLogger(config.Config{LogLevel: "loud", LogFormat: "json"})
	assert.Error(t, err)
}

func TestOpenDBRequiresDSN(t *testing.T) {
	_, err := openDB(context.Background(), "")
	assert.Error(t, err)
}

func TestServeWithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg, err := config.Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"ADDR":             addr,
		"REDIS_ADDR":       mr.Addr(),
		"ARGON2_MEMORY_KB": "8192",
		"ARGON2_TIME":      "1",
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zerolog.Nop(), false) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/readyz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServePushesEngineMetrics(t *testing.T) {
	var metricPosts atomic.Int64
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/metrics" {
			metricPosts.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg, err := config.Process(context.Background(), envconfig.MapLookuper(map[string]string{
		"ADDR":                        addr,
		"OTEL_EXPORTER_OTLP_ENDPOINT": strings.TrimPrefix(collector.URL, "http://"),
		"METRICS_PUSH_INTERVAL":       "50ms",
		"ARGON2_MEMORY_KB":            "8192",
		"ARGON2_TIME":                 "1",
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zerolog.Nop(), false) }()

	require.Eventually(t, func() bool {
		return metricPosts.Load() > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
