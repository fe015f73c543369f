// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/vulnbench/internal/config"
)

// testSink is a concurrency-safe in-memory WriteSyncer.
type testSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *testSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *testSink) Sync() error { return nil }

func (s *testSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

var _ zapcore.WriteSyncer = (*testSink)(nil)

func TestInitialize_WritesToConsoleWriter(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &testSink{}
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "test-svc"}, sink)

	GetLogger().Info("hello", zap.String("k", "v"))

	out := sink.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, "test-svc")
}

func TestInitialize_OnlyFirstCallWins(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &testSink{}
	second := &testSink{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, second)

	GetLogger().Info("routed")

	assert.Contains(t, first.String(), "routed")
	assert.Empty(t, second.String())
}

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &testSink{}
	Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, sink)

	logger := GetLogger()
	logger.Debug("suppressed")
	logger.Info("visible")

	out := sink.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "visible")
}

func TestInitialize_LevelFiltering(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &testSink{}
	Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, sink)

	logger := GetLogger()
	logger.Info("below threshold")
	logger.Warn("at threshold")

	out := sink.String()
	assert.NotContains(t, out, "below threshold")
	assert.Contains(t, out, "at threshold")
}

func TestGetLogger_FallbackBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// Usable without panicking even though Initialize never ran.
	logger.Info("fallback works")
}

func TestSync_NoopWithoutLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotPanics(t, Sync)
}

func TestGetEncoder(t *testing.T) {
	assert.NotNil(t, getEncoder("json"))
	assert.NotNil(t, getEncoder("console"))
	assert.NotNil(t, getEncoder(""))
}
