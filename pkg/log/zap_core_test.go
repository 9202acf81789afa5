package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/scratchfile-go/pkg/metrics"
)

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestTextCoreWith(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := newZapEncoder(&Config{Format: "json", DisableTimestamp: true})
	core := NewTextCore(enc, zapcore.AddSync(buf), zapcore.InfoLevel)
	lg := zap.New(core).With(FieldModule("objects"))

	lg.Debug("hidden")
	lg.Info("visible", FieldTag(125))
	require.NoError(t, lg.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"module":"objects"`)
	assert.Contains(t, out, `"tag":125`)
}

func newAsyncCore(t *testing.T, mutate func(cfg *Config)) (*asyncTextIOCore, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := &Config{Format: "json", DisableTimestamp: true, AsyncWriteEnable: true}
	if mutate != nil {
		mutate(cfg)
	}
	core := NewAsyncTextIOCore(cfg, zapcore.AddSync(buf), zapcore.DebugLevel)
	t.Cleanup(core.Stop)
	return core, buf
}

func TestAsyncCoreFlushesOnStop(t *testing.T) {
	core, buf := newAsyncCore(t, nil)
	lg := zap.New(core).With(FieldPath("a.sb"))
	for i := 0; i < 10; i++ {
		lg.Info("loaded", zap.Int("i", i))
	}
	core.Stop()
	core.Stop()

	out := buf.String()
	assert.Equal(t, 10, strings.Count(out, `"msg":"loaded"`))
	assert.Contains(t, out, `"path":"a.sb"`)
	assert.Contains(t, out, `"i":9`)
}

func TestAsyncCoreTruncatesLongEntries(t *testing.T) {
	before := counterValue(metrics.LoggingTruncatedWrites)
	core, buf := newAsyncCore(t, func(cfg *Config) { cfg.AsyncWriteMaxBytesPerLog = 32 })
	zap.New(core).Info(strings.Repeat("x", 200))
	core.Stop()

	out := buf.String()
	assert.Len(t, out, 32)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, before+1, counterValue(metrics.LoggingTruncatedWrites))
}

func TestAsyncCoreDropsAfterStop(t *testing.T) {
	before := counterValue(metrics.LoggingDroppedWrites)
	core, buf := newAsyncCore(t, nil)
	core.Stop()

	zap.New(core).Error("too late")
	assert.Empty(t, buf.String())
	assert.Equal(t, before+1, counterValue(metrics.LoggingDroppedWrites))
}

func TestAsyncWriteDefaults(t *testing.T) {
	cfg := &Config{AsyncWriteNonDroppableLevel: "bogus"}
	cfg.initialize()
	assert.Equal(t, "error", cfg.AsyncWriteNonDroppableLevel)
	assert.Equal(t, 1024, cfg.AsyncWritePendingLength)
	assert.Equal(t, 100*time.Millisecond, cfg.AsyncWriteDroppedTimeout)
	assert.Equal(t, 1024*1024, cfg.AsyncWriteMaxBytesPerLog)
}

func TestInitLoggerAsyncAndCleanup(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := &Config{Level: "info", Format: "json", DisableTimestamp: true, AsyncWriteEnable: true}
	lg, props, err := InitLoggerWithWriteSyncer(cfg, zapcore.AddSync(buf))
	require.NoError(t, err)
	_, async := props.Core.(*asyncTextIOCore)
	assert.True(t, async)

	lg.Info("queued")
	Cleanup()
	assert.Contains(t, buf.String(), "queued")
}

func TestTestLogger(t *testing.T) {
	ctx, tl := WithTestLogger(context.Background(), t)
	Ctx(ctx).Debug("first")
	Ctx(WithProject(ctx, "demo.sb")).Info("second")
	assert.EqualValues(t, 2, tl.Lines())

	lg, _, err := InitTestLogger(t, &Config{Level: "warn"})
	require.NoError(t, err)
	lg.Info("dropped by level")
	lg.Warn("kept")
}
