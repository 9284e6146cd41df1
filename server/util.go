package server

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newHTTPErrorLog routes net/http's internal errors (TLS handshakes, bad
// requests, handler panics outside the pool) into the structured logger
func newHTTPErrorLog(l *zap.SugaredLogger) *log.Logger {
	stdLog, err := zap.NewStdLogAt(l.Desugar().Named("http"), zapcore.WarnLevel)
	if err != nil {
		return zap.NewStdLog(l.Desugar())
	}
	return stdLog
}
