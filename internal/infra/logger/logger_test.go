package logger

import (
	"iss_overhead_notifier/internal/infra/config"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iss_tracker.log")
	closer, err := Init(&config.AppConfig{LogLevel: "debug", Environment: "development", LogFile: path})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer Log.SetOutput(os.Stdout)

	Component("test").Info("hello from the tracker")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from the tracker") || !strings.Contains(string(data), "component=test") {
		t.Errorf("log file does not contain the entry:\n%s", data)
	}
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", Log.GetLevel())
	}
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	if _, err := Init(&config.AppConfig{LogLevel: "chatty", Environment: "production"}); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", Log.GetLevel())
	}
	if _, ok := Log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("production should use the JSON formatter, got %T", Log.Formatter)
	}
}

func TestInitUnwritableLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "iss.log")
	if _, err := Init(&config.AppConfig{LogLevel: "info", LogFile: path}); err == nil {
		t.Error("expected an error for a log file in a missing directory")
	}
}
