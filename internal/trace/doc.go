// Package trace persists kernel events as a compressed JSON-line
// stream.
//
// A Recorder plugs into the kernel as an event sink: every event
// becomes one sonic-encoded line tagged with a ULID event id and the
// run id, written through a gzip or zstd compressor. A BLAKE2b digest
// of the compressed stream is maintained as it is written, so a trace
// file can be verified without decompressing it.
//
// Key Components:
//   - Recorder: event sink writing id-tagged JSON lines
//   - Line: the on-disk record (event id, run id, kernel event fields)
//   - Summary: line/byte counts and the stream digest, from Close
//
// Example Usage:
//
//	rec, err := trace.Open("run.trace", trace.CodecGzip, logger)
//	if err != nil { ... }
//	k := kernel.New(kernel.Config{Sinks: []kernel.EventSink{rec}})
//	k.Run(main, nil)
//	summary, err := rec.Close()
package trace
