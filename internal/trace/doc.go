// Package trace records spans for chunk group assembly and build driving.
//
// A build opens one "build" span; every chunk group assembled under it opens
// a "chunking" span, and artifacts resolved for a group open "resolve"
// spans. Records go to a Sink chosen from the command line:
//
//	devchunk build --trace=build.json --trace-level=detail
//
// Writing to a .json file yields a chrome://tracing document, .ndjson one
// record per line, and anything else (including "-" for stderr) text.
// The ring mode keeps the newest records in memory only; they are dumped
// when a build fails.
//
//	ctx = trace.WithSink(ctx, sink)
//	ctx, span := trace.Start(ctx, trace.ScopeGroup, "chunking")
//	defer span.End()
package trace
