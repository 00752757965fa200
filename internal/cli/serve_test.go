package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sitenav/pkg/adapters/redis"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServer(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeNav(t)
	cfg.History = HistoryConfig{RedisAddr: mr.Addr(), Prefix: "test:"}
	cfg.Server.ShutdownTimeout = time.Second

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- RunServer(ctx, cfg, NewLogger(false), &out, ServeOptions{
			Listener: ln,
			Ready:    func(addr string) { ready <- addr },
		})
	}()

	var base string
	select {
	case addr := <-ready:
		base = "http://" + addr
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(base+"/navigate", "application/json", strings.NewReader(`{"path":"/guide/install"}`))
	require.NoError(t, err)
	var target domain.Target
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&target))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.TargetResolved, target.Kind)
	assert.Equal(t, "Installation", target.Node.Name)

	assert.Eventually(t, func() bool {
		resp, err := http.Get(base + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(body), `sitenav_navigations_total{issuer="link",outcome="Resolved"}`)
	}, time.Second, 10*time.Millisecond)

	// The shared router persists its history to redis.
	store := redis.New(mr.Addr(), "", 0, redis.WithPrefix("test:"))
	defer store.Close()
	assert.Eventually(t, func() bool {
		h, err := store.Load(context.Background(), PrimarySession)
		if err != nil {
			return false
		}
		current, ok := h.Current()
		return ok && current.Path == "/guide/install"
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
