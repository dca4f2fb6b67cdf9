package common

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/lni/dragonboat/v4/logger"
	"log"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Engine: db.ImplMemory, LogLevel: "info"}, false},
		{"pebble", Config{Engine: db.ImplPebble, DataDir: "/tmp/x", LogLevel: "debug"}, false},
		{"bolt", Config{Engine: db.ImplBolt, DataDir: "/tmp/x", LogLevel: "WARN"}, false},
		{"pebble without dir", Config{Engine: db.ImplPebble, LogLevel: "info"}, true},
		{"bolt without dir", Config{Engine: db.ImplBolt, LogLevel: "info"}, true},
		{"unknown engine", Config{Engine: "leveldb", LogLevel: "info"}, true},
		{"bad log level", Config{Engine: db.ImplMemory, LogLevel: "loud"}, true},
		{"negative timeout", Config{Engine: db.ImplBolt, DataDir: "/tmp/x", LogLevel: "info", OpenTimeoutSecond: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigNewEngine(t *testing.T) {
	for _, impl := range []db.Implementation{db.ImplMemory, db.ImplPebble, db.ImplBolt} {
		t.Run(string(impl), func(t *testing.T) {
			c := Config{Engine: impl, DataDir: t.TempDir(), NoSync: true, LogLevel: "error"}
			e, err := c.EngineFactory()()
			if err != nil {
				t.Fatalf("NewEngine failed: %v", err)
			}
			defer e.Close()
			if e.Implementation() != impl {
				t.Errorf("Expected %s, got %s", impl, e.Implementation())
			}
		})
	}

	c := Config{Engine: "leveldb", LogLevel: "info"}
	if _, err := c.NewEngine(); err == nil {
		t.Errorf("Expected error for invalid config")
	}
}

func TestConfigString(t *testing.T) {
	c := Config{Engine: db.ImplBolt, DataDir: "/data", LogLevel: "info"}
	s := c.String()
	for _, want := range []string{"STORAGE", "bolt", "/data", "LOGGING", "info"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %q", want, s)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Errorf("Expected error for unknown level")
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := &dTripleLogger{name: "tx", level: logger.WARNING, logger: log.New(&buf, "", 0)}

	l.Infof("hidden %d", 1)
	l.Warningf("removed %d keys", 7)
	l.Errorf("boom")

	want := "WARN  | tx              | removed 7 keys\nERROR | tx              | boom\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestInitLoggersTwice(t *testing.T) {
	for _, level := range []string{"error", "debug", "warn"} {
		if err := InitLoggers(level); err != nil {
			t.Fatalf("InitLoggers(%q) failed: %v", level, err)
		}
	}
	if err := InitLoggers("loud"); err == nil {
		t.Errorf("Expected error for invalid level")
	}
}
