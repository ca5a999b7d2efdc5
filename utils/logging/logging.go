package logging

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// InitLogging fans log records out to a JSON log file and a text handler on
// stderr. The JSON stream carries fixed service attributes so that log
// aggregation can filter by deployment.
func InitLogging(logFile *os.File, service string) {
	var jsonHandler slog.Handler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})

	jsonHandler = jsonHandler.WithAttrs([]slog.Attr{
		slog.String("service", service),
	})
	textHandler := slog.NewTextHandler(os.Stderr, nil)

	logger := slog.New(slogmulti.Fanout(jsonHandler, textHandler))
	slog.SetDefault(logger)
}
