// Package tracing provides distributed tracing infrastructure for the
// orchestrator. It integrates with OpenTelemetry to provide span creation,
// context propagation, and trace export capabilities.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is resolved against the global TracerProvider, which NewProvider
// installs via otel.SetTracerProvider. Call sites that never configured a
// Provider get otel's default no-op provider, so these helpers are always
// safe to call.
var tracer = otel.Tracer("zeroshot")

// StartTriggerSpan starts a span around a single agent's trigger-evaluation
// pass, recording the matched topic once it's known. Callers that find no
// match should still call End(span, nil); the span name and attributes are
// set up front since evaluateLocked doesn't know the topic until a trigger
// matches.
func StartTriggerSpan(ctx context.Context, clusterID, agentID, role string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, SpanPrefixTrigger+"evaluate", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String(AttrClusterID, clusterID),
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrAgentRole, role),
	)
	return ctx, span
}

// RecordTriggerMatch annotates span with the topic and action kind that
// matched, called once evaluateLocked finds a match.
func RecordTriggerMatch(span trace.Span, topic, actionKind string) {
	span.SetAttributes(
		attribute.String(AttrTriggerTopic, topic),
		attribute.String(AttrActionKind, actionKind),
	)
	span.AddEvent(EventTriggerMatched)
}

// StartProviderSpan starts a span around a single provider invocation
// (subprocess spawn or direct API call) for agentID.
func StartProviderSpan(ctx context.Context, agentID, providerType string) (context.Context, trace.Span) {
	name := fmt.Sprintf("%s%s", SpanPrefixProvider, providerType)
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrProviderType, providerType),
	)
	return ctx, span
}

// RecordProcessSpawned annotates span with the spawned child's PID, called
// once a provider's subprocess is running.
func RecordProcessSpawned(span trace.Span, pid int) {
	span.SetAttributes(attribute.Int(AttrChildPID, pid))
	span.AddEvent(EventProcessSpawned)
}

// StartIsolationSpan starts a span around provisioning a cluster's sandbox
// (worktree or container).
func StartIsolationSpan(ctx context.Context, clusterID, kind string) (context.Context, trace.Span) {
	name := fmt.Sprintf("%s%s", SpanPrefixIsolation, kind)
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String(AttrClusterID, clusterID),
		attribute.String(AttrIsolationKind, kind),
	)
	return ctx, span
}

// StartProcessStartSpan starts a short span around a provider subprocess's
// cmd.Start() call, the syscall-level fork/exec rather than the whole
// provider round-trip StartProviderSpan covers.
func StartProcessStartSpan(ctx context.Context, providerName string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, SpanPrefixProvider+providerName+".start", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String(AttrProviderType, providerName))
	return ctx, span
}

// End records err on span, if any, sets the final span status, and ends the
// span. Every Start*Span call must be paired with exactly one End call.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
