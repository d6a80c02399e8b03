package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeServer blocks in Start until Shutdown is called or startErr is returned.
type fakeServer struct {
	startErr    error
	shutdownErr error
	stopped     chan struct{}
	shutdowns   atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (f *fakeServer) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return f.shutdownErr
}

func TestRunServer(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("cancelled-context-shuts-down-both", func(t *testing.T) {
		api, metrics := newFakeServer(), newFakeServer()
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- RunServer(ctx, logger, "test", api, metrics, time.Second)
		}()
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("RunServer did not return")
		}
		assert.Equal(t, int32(1), api.shutdowns.Load())
		assert.Equal(t, int32(1), metrics.shutdowns.Load())
	})

	t.Run("start-failure-stops-everything", func(t *testing.T) {
		api := newFakeServer()
		api.startErr = errors.New("address already in use")
		metrics := newFakeServer()

		err := RunServer(context.Background(), logger, "test", api, metrics, time.Second)

		require.ErrorContains(t, err, "address already in use")
		assert.Equal(t, int32(1), metrics.shutdowns.Load())
	})

	t.Run("shutdown-error-returned", func(t *testing.T) {
		api := newFakeServer()
		api.shutdownErr = errors.New("deadline exceeded")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := RunServer(ctx, logger, "test", api, nil, time.Second)

		require.ErrorContains(t, err, "deadline exceeded")
	})
}
