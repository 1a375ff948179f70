package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured logger that masks credential-like values in
// messages, errors and metadata before emission. It is constructed once and
// injected; nothing in this package keeps global state.
type Logger struct {
	sugar *zap.SugaredLogger
	dev   bool
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	dev := true
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		dev = false
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zapLogger.Sugar(), dev: dev}, nil
}

// FromZap wraps an existing zap core, used by tests to observe output.
func FromZap(core zapcore.Core, dev bool) *Logger {
	return &Logger{sugar: zap.New(core).Sugar(), dev: dev}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(l.sanitize(keysAndValues)...), dev: l.dev}
}

func (l *Logger) Error(msg string, err error, keysAndValues ...interface{}) {
	kv := l.sanitize(keysAndValues)
	if err != nil {
		kv = append(kv, "error", Mask(err.Error()))
	}
	l.sugar.Errorw(Mask(msg), kv...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(Mask(msg), l.sanitize(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(Mask(msg), l.sanitize(keysAndValues)...)
}

// Debug is a no-op outside development mode.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.dev {
		return
	}
	l.sugar.Debugw(Mask(msg), l.sanitize(keysAndValues)...)
}

// sanitize masks each key/value pair: credential-like keys lose their value
// entirely, string values are pattern-masked, and everything else is
// serialized through safeStringify.
func (l *Logger) sanitize(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 >= len(keysAndValues) {
			out = append(out, key, "(missing value)")
			break
		}
		out = append(out, key, l.sanitizeValue(key, keysAndValues[i+1]))
	}
	return out
}

func (l *Logger) sanitizeValue(key string, value interface{}) interface{} {
	if SensitiveKey(key) {
		return Redacted
	}
	switch v := value.(type) {
	case string:
		return Mask(v)
	case error:
		return Mask(v.Error())
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return v
	default:
		return safeStringify(v)
	}
}
