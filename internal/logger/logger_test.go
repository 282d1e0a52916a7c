package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.ErrorLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_TeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")

	log, err := New("info", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hello file")
	log.Debug("filtered out")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"hello file"`) {
		t.Fatalf("log file misses entry: %s", out)
	}
	if !strings.Contains(out, `"ts":`) {
		t.Fatalf("log file misses ts key: %s", out)
	}
	if strings.Contains(out, "filtered out") {
		t.Fatalf("debug entry leaked at info level: %s", out)
	}
}
