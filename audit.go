package goSession

import (
	"io"
	"log"

	"github.com/MrEthical07/goSession/internal/audit"
)

// AuditEvent is one session lifecycle record delivered to an [AuditSink].
type AuditEvent = audit.Event

// AuditSink receives audit events on the store's dispatcher goroutine.
type AuditSink = audit.Sink

// Audit event names.
const (
	AuditLoginSuccess         = audit.EventLoginSuccess
	AuditLoginFailure         = audit.EventLoginFailure
	AuditLoginRateLimited     = audit.EventLoginRateLimited
	AuditLogout               = audit.EventLogout
	AuditSessionRestored      = audit.EventSessionRestored
	AuditSessionRestoreFailed = audit.EventSessionRestoreFailed
	AuditSessionExpired       = audit.EventSessionExpired
	AuditPersistFailed        = audit.EventPersistFailed
)

// NoOpSink discards every event.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers events on a buffered channel, dropping when full.
type ChannelSink = audit.ChannelSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// JSONWriterSink writes one JSON object per event.
type JSONWriterSink = audit.JSONWriterSink

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// LogSink prints events through a *log.Logger.
type LogSink = audit.LogSink

// NewLogSink returns a sink printing to logger, or the standard logger when nil.
func NewLogSink(logger *log.Logger) *LogSink {
	return audit.NewLogSink(logger)
}

// MultiSink fans each event out to every sink in order.
type MultiSink = audit.MultiSink
