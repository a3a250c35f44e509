package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

// TestNoopMetrics verifies the no-op recorder accepts all calls.
func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordNodeExecution(ctx, "node", time.Second, nil)
		m.RecordNodeExecution(ctx, "node", time.Second, errors.New("x"))
		m.RecordGraphRun(ctx, true, time.Second)
		m.RecordJournalWrite(ctx, "node", 100)
	})
}

// TestNoopSpanManager verifies no-op spans are safe and leave context intact.
func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	runCtx, runSpan := sm.StartRunSpan(ctx, "graph", "run-1")
	assert.Equal(t, ctx, runCtx)
	assert.NotNil(t, runSpan)

	nodeCtx, nodeSpan := sm.StartNodeSpan(ctx, "node")
	assert.Equal(t, ctx, nodeCtx)
	assert.NotNil(t, nodeSpan)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(runSpan, nil)
		sm.EndSpanWithError(nodeSpan, errors.New("x"))
		sm.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
	})
}
