package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubPurger struct {
	calls  atomic.Int32
	err    error
	cancel context.CancelFunc
}

func (p *stubPurger) PurgeExpired(context.Context) (int64, error) {
	if p.calls.Add(1) == 2 {
		p.cancel()
	}
	return 3, p.err
}

func TestPurgeExpiredOnlyLogsFailures(t *testing.T) {
	for name, purgeErr := range map[string]error{"success": nil, "failure": errors.New("db down")} {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p := &stubPurger{err: purgeErr, cancel: cancel}

			purgeExpired(ctx, p, time.Millisecond, zap.New(core))

			assert.GreaterOrEqual(t, p.calls.Load(), int32(2))
			if purgeErr == nil {
				assert.Zero(t, logs.Len())
				return
			}
			assert.Equal(t, logs.Len(), logs.FilterMessage("Failed to purge expired records").Len())
			assert.Positive(t, logs.Len())
		})
	}
}

func TestPurgeExpiredDisabled(t *testing.T) {
	p := &stubPurger{cancel: func() {}}
	purgeExpired(context.Background(), p, 0, zap.NewNop())
	assert.Zero(t, p.calls.Load())
}
