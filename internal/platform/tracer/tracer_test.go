package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"credguard/internal/platform/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanVerificationSubmit,
		tracer.String(tracer.AttrVariant, "file"),
		tracer.Bool(tracer.AttrPreviewOnly, true),
	)

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Int64(tracer.AttrSequence, 3))
	span.AddEvent(tracer.EventSuperseded)
	span.End(errors.New("superseded"))
}

func TestOTelTracer_StartWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanIssuancePoll,
		tracer.String(tracer.AttrJobID, "job-1"),
		tracer.Int64(tracer.AttrAttempt, 2),
	)
	require.NotNil(t, ctx)
	span.AddEvent(tracer.EventPollResult, tracer.String(tracer.AttrStatus, "offer_sent"))
	span.End(nil)
}

func TestDurationAttribute(t *testing.T) {
	attr := tracer.Duration("latency", 150*time.Millisecond)
	assert.Equal(t, "latency", attr.Key)
	assert.Equal(t, int64(150), attr.Value)
}
