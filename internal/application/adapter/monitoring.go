// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import "context"

// SpanOptions describes a traced unit of work.
type SpanOptions struct {
	Name       string
	Op         string
	Attributes map[string]string
}

// Instrumentation runs units of work inside tracing spans.
type Instrumentation interface {
	// StartSpan runs fn inside a span named by opts. The error returned by fn is
	// recorded on the span and returned unchanged.
	StartSpan(ctx context.Context, opts SpanOptions, fn func(ctx context.Context) error) error
}

// CrashReporter is a best-effort sink for unexpected errors. It never affects control flow.
type CrashReporter interface {
	Report(ctx context.Context, err error)
}
