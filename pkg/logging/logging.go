// Package logging 設定工具使用的 slog logger
//
// 等級由 --log-level 或環境變數 LOG_LEVEL 決定 (debug, info, warn, error)，預設為 warn，
// 輸出到 stderr，讓 stdout 只留給使用者看的訊息。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const EnvLogLevel = "LOG_LEVEL"

// ParseLevel 將字串轉為 slog.Level，無法辨識時回傳 defaultLevel
func ParseLevel(level string, defaultLevel slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultLevel
	}
}

// NewLogger 建立輸出到 w 的文字格式 logger
func NewLogger(w io.Writer, module, version string, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})
	return slog.New(handler).With("module", module, "version", version)
}

// SetDefaultLogger 設定全域 logger，level 為空字串時使用 LOG_LEVEL
func SetDefaultLogger(module, version, level string) {
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	slog.SetDefault(NewLogger(os.Stderr, module, version, ParseLevel(level, slog.LevelWarn)))
}
