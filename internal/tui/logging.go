package tui

import (
	"log"
	"os"
	"path/filepath"
)

// initLogger initializes a file logger under ~/.config/inboxq/inboxq.log if
// possible; the configured log_file path wins when set
func (a *App) initLogger() {
	if a.logger != nil && a.logFile != nil {
		return
	}
	logPath := ""
	if a.config != nil && a.config.LogFile != "" {
		logPath = a.config.LogFile
	} else if home, err := os.UserHomeDir(); err == nil {
		logPath = filepath.Join(home, ".config", "inboxq", "inboxq.log")
	}
	if logPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return
	}
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		a.logFile = f
		a.logger = log.New(f, "[inboxq] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// closeLogger closes the log file if opened
func (a *App) closeLogger() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
