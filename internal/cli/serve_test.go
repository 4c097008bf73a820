package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deeplink/internal/config"
)

// startServe runs the serve command on a random port and returns its base
// URL and a stop function that waits for shutdown.
func startServe(t *testing.T, opts *ServeOptions) (string, func() error) {
	t.Helper()

	addrCh := make(chan string, 1)
	opts.listen = func(network, _ string) (net.Listener, error) {
		l, err := net.Listen(network, "127.0.0.1:0")
		if err == nil {
			addrCh <- l.Addr().String()
		}
		return l, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, opts) }()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		cancel()
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("serve did not start listening")
	}

	return "http://" + addr, func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			return context.DeadlineExceeded
		}
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServe(t *testing.T) {
	base, stop := startServe(t, &ServeOptions{RootOptions: &RootOptions{Format: "text"}})

	status, body := get(t, base+"/v1/resolve?url=roblox://navigation/home")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"route":"home"`)

	status, _ = get(t, base+"/healthz")
	assert.Equal(t, http.StatusOK, status)

	// The parser reports into the same recorder /metrics serves.
	_, body = get(t, base+"/metrics")
	assert.Contains(t, body, `deeplink_matches_total{route="home",surface="protocol"} 1`)

	require.NoError(t, stop())
}

func TestServe_CorpusReadiness(t *testing.T) {
	cfg := config.Default()
	cfg.Corpus.Path = filepath.Join(t.TempDir(), "corpus.db")

	base, stop := startServe(t, &ServeOptions{
		RootOptions: &RootOptions{Format: "text", Config: cfg},
		Corpus:      true,
	})

	status, _ := get(t, base+"/readyz")
	assert.Equal(t, http.StatusOK, status)

	require.NoError(t, stop())
}

func TestServe_ListenError(t *testing.T) {
	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text"},
		listen: func(string, string) (net.Listener, error) {
			return nil, &net.OpError{Op: "listen", Err: io.ErrClosedPipe}
		},
	}

	err := runServe(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
