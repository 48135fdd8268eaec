package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger routes the application log to stdout and a rotating file and
// returns the file writer so the access log can share it.
func InitLogger() io.Writer {
	filename := GetConfigDefault("LOG_FILE", "./logs/app.log")
	if err := os.MkdirAll(filepath.Dir(filename), os.ModePerm); err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}

	rotate := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	log.SetOutput(io.MultiWriter(os.Stdout, rotate))
	log.SetLevel(parseLevel(GetConfig("LOG_LEVEL")))
	return rotate
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
