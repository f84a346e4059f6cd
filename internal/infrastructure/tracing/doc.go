/*
Package tracing records request spans for the sandbox daemon.

Spans are created by the HTTP middleware and by outbound calls to the
model server, buffered, and written to the structured log by a single
collector goroutine. The trace id is the request id, so a log search for
one X-Request-ID shows the inbound request and every model call it made.

# Usage

	tracer := tracing.New("clio-sandboxd", logger)
	defer tracer.Close()

	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "assistant.generate")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Propagation

	X-Trace-ID  trace id, shared by every span of a request
	X-Span-ID   id of the calling span
*/
package tracing
