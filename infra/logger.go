package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/cutroom/cutroom-media-service/config"
)

// LoggerClient wraps slog. When an OTLP endpoint is configured the records are
// bridged to OpenTelemetry through otelslog; otherwise they go to stdout.
type LoggerClient struct {
	logger *slog.Logger
}

func InitLoggerClient(cfg *config.EnvConfig, tel *Telemetry) *LoggerClient {
	var logger *slog.Logger
	if tel != nil && tel.LoggerProvider != nil {
		logger = otelslog.NewLogger(cfg.Telemetry.ServiceName, otelslog.WithLoggerProvider(tel.LoggerProvider))
	} else {
		level := slog.LevelInfo
		if cfg.Environment.Mode == "development" {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return &LoggerClient{logger: logger}
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.logger.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	if err != nil {
		l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...), "err", err)
		return
	}
	l.logger.ErrorContext(ctx, fmt.Sprintf(format, args...))
}
