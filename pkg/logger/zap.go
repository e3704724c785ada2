package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the context-aware logger passed through the service. Lines logged
// with a context built by NewContext carry that context's fields.
type Logger interface {
	Debug(ctx context.Context, arg ...any)
	Debugf(ctx context.Context, template string, arg ...any)
	Info(ctx context.Context, arg ...any)
	Infof(ctx context.Context, template string, arg ...any)
	Warn(ctx context.Context, arg ...any)
	Warnf(ctx context.Context, template string, arg ...any)
	Error(ctx context.Context, arg ...any)
	Errorf(ctx context.Context, template string, arg ...any)
	Fatal(ctx context.Context, arg ...any)
	Fatalf(ctx context.Context, template string, arg ...any)

	// With returns a logger that adds the key/value pairs to every line.
	With(keysAndValues ...any) Logger
	Sync() error
}

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"

	EncodingJSON    = "json"
	EncodingConsole = "console"

	samplingTick       = time.Second
	samplingFirst      = 100
	samplingThereafter = 100
)

type Config struct {
	// Service names the logger and is attached to every line as "service".
	Service  string
	Level    string
	Mode     string
	Encoding string
}

type zapLogger struct {
	base *zap.SugaredLogger
}

// New builds a logger from cfg. In production mode lines at error and above go
// to stderr and the rest to stdout, and repeated lines are sampled.
func New(cfg Config) (Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		level = lvl
	}

	encoder := newEncoder(cfg)
	var core zapcore.Core
	if cfg.Mode == ModeProduction {
		core = zapcore.NewTee(
			zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= level && l < zapcore.ErrorLevel
			})),
			zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= level && l >= zapcore.ErrorLevel
			})),
		)
		core = zapcore.NewSamplerWithOptions(core, samplingTick, samplingFirst, samplingThereafter)
	} else {
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	}

	return newWithCore(core, cfg.Service), nil
}

// NewTestLogger logs everything to stderr in console form.
func NewTestLogger() Logger {
	l, _ := New(Config{Service: "test", Level: "debug", Mode: ModeDevelopment, Encoding: EncodingConsole})
	return l
}

func newWithCore(core zapcore.Core, service string) *zapLogger {
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	zl := zap.New(core, opts...)
	if service != "" {
		zl = zl.Named(service).With(zap.String("service", service))
	}
	return &zapLogger{base: zl.Sugar()}
}

func newEncoder(cfg Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	if cfg.Mode != ModeProduction {
		ec = zap.NewDevelopmentEncoderConfig()
	}
	ec.TimeKey = "ts"
	ec.LevelKey = "level"
	ec.NameKey = "logger"
	ec.CallerKey = "caller"
	ec.MessageKey = "msg"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Encoding == EncodingConsole {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}

// loggerKey holds the context key used for loggers.
type loggerKey struct{}

func (l *zapLogger) from(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return l.base
	}
	if sl, _ := ctx.Value(loggerKey{}).(*zap.SugaredLogger); sl != nil {
		return sl
	}
	return l.base
}

func (l *zapLogger) With(keysAndValues ...any) Logger {
	return &zapLogger{base: l.base.With(keysAndValues...)}
}

func (l *zapLogger) Sync() error {
	return l.base.Sync()
}

func (l *zapLogger) Debug(ctx context.Context, args ...any) {
	l.from(ctx).Debug(args...)
}

func (l *zapLogger) Debugf(ctx context.Context, template string, args ...any) {
	l.from(ctx).Debugf(template, args...)
}

func (l *zapLogger) Info(ctx context.Context, args ...any) {
	l.from(ctx).Info(args...)
}

func (l *zapLogger) Infof(ctx context.Context, template string, args ...any) {
	l.from(ctx).Infof(template, args...)
}

func (l *zapLogger) Warn(ctx context.Context, args ...any) {
	l.from(ctx).Warn(args...)
}

func (l *zapLogger) Warnf(ctx context.Context, template string, args ...any) {
	l.from(ctx).Warnf(template, args...)
}

func (l *zapLogger) Error(ctx context.Context, args ...any) {
	l.from(ctx).Error(args...)
}

func (l *zapLogger) Errorf(ctx context.Context, template string, args ...any) {
	l.from(ctx).Errorf(template, args...)
}

func (l *zapLogger) Fatal(ctx context.Context, args ...any) {
	l.from(ctx).Fatal(args...)
}

func (l *zapLogger) Fatalf(ctx context.Context, template string, args ...any) {
	l.from(ctx).Fatalf(template, args...)
}
