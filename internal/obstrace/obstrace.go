// Package obstrace wraps github.com/opentracing/opentracing-go span
// creation for each analyzer pass, matching the root-span-from-context
// pattern the server and engine test suites exercise (opentracing.Span
// embedded in a context, Finish called unconditionally on return).
package obstrace

import (
	"context"

	"github.com/opentracing/opentracing-go"
)

// StartPassSpan starts a child span named "analyzer.<pass>" from whatever
// span is already in ctx (or a no-op root span if none is). The returned
// context carries the new span; callers must call the returned finish func
// exactly once, typically deferred.
func StartPassSpan(ctx context.Context, pass string) (context.Context, func()) {
	span, spanCtx := opentracing.StartSpanFromContext(ctx, "analyzer."+pass)
	return spanCtx, span.Finish
}

// FinishWithError tags a span with the failing pass's error before
// finishing it, so trace backends surface which pass broke a translation.
func FinishWithError(span opentracing.Span, err error) {
	if err != nil {
		span.SetTag("error", true)
		span.LogKV("error.message", err.Error())
	}
	span.Finish()
}
