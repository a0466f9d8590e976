package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func reset() {
	Close()
	logsDir = ""
	enabled = false
	logLevel = LevelInfo
}

func TestDisabledLoggingIsNoOp(t *testing.T) {
	reset()
	dir := t.TempDir()
	if err := Initialize(dir, "info", false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	Get(CategoryAPI).Info("should not be written")

	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist when logging is disabled")
	}
}

func TestCategoryFilesAndLevelFilter(t *testing.T) {
	reset()
	dir := t.TempDir()
	if err := Initialize(dir, "info", true); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer reset()

	l := Get(CategorySMS)
	l.Debug("filtered out at info level")
	l.Info("kept message")
	l.Warn("warn message")
	Close()

	data, err := os.ReadFile(filepath.Join(dir, "logs", "sms.log"))
	if err != nil {
		t.Fatalf("reading sms log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "filtered out") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(content, "kept message") || !strings.Contains(content, "warn message") {
		t.Errorf("expected info and warn messages in log, got: %q", content)
	}
}

func TestGetReturnsSameLogger(t *testing.T) {
	reset()
	if Get(CategoryFleet) != Get(CategoryFleet) {
		t.Error("Get should return the cached logger for a category")
	}
}
