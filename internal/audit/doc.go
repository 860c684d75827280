// Package audit relays session lifecycle events to caller-supplied sinks.
//
// [Dispatcher] buffers events and delivers them on one background goroutine,
// either dropping (and counting) or blocking when the buffer is full. Sinks
// write channels, JSON lines or log lines, and [MultiSink] fans out.
//
// The store decides which events to emit; this package never filters them and
// must not import goSession.
package audit
