package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction.
type Config struct {
	Level      string
	Format     string // json or console
	File       string // optional rotating file sink
	MaxSizeMB  int
	MaxAgeDays int
	RateLimit  int // entries per level+message per minute, 0 disables sampling
}

// NewLogger builds the application logger.
func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if cfg.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxSizeMB,
			MaxAge:   cfg.MaxAgeDays,
			Compress: true,
		}))
	}

	core := NewRedactingCore(zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level))
	if cfg.RateLimit > 0 {
		// thereafter=0 drops everything past the first RateLimit entries in a tick.
		core = zapcore.NewSamplerWithOptions(core, time.Minute, cfg.RateLimit, 0)
	}

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// ForRequest returns a logger annotated with the chi request id, if any.
func ForRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := chimw.GetReqID(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}

// Security logs a security relevant event at warn level.
func Security(logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.Warn(msg, append(fields, zap.String("category", "SECURITY"))...)
}

// Audit logs a state change performed on behalf of a user.
func Audit(logger *zap.Logger, action, userID, resource string, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("action", action),
		zap.String("user", userID),
		zap.String("resource", resource),
		zap.String("category", "AUDIT"),
	}
	logger.Info("AUDIT_EVENT", append(base, fields...)...)
}
