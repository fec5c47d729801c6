package mintls

import "go.uber.org/zap"

// Logger wraps a *zap.Logger for handshake and connection diagnostics. A
// nil *Config or nil Config.Logger yields a no-op logger so callers never
// need a nil check of their own.
type Logger struct {
	z *zap.Logger
}

func NewLogger(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

func nopLogger() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.z.Debug(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.z.Error(msg, fields...)
}
