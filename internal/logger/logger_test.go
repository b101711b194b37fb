package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"athlete_id": "A123"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "fetch failed",
			err:     errors.New("connection refused"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()
			logger.log(tt.level, tt.message, tt.fields, tt.err)
			logged := buf.Len() > before

			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	New(LevelDebug, &buf).Error("fetch failed", Fields{"status": 503}, errors.New("boom"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Error != "boom" {
		t.Errorf("Error = %q, want boom", entry.Error)
	}
	if entry.Fields["status"] != float64(503) {
		t.Errorf("Fields[status] = %v, want 503", entry.Fields["status"])
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := New(LevelInfo, &buf)
	log := base.With(Fields{"athlete_id": "A1", "stage": "fetch"})

	log.Info("normalized", Fields{"stage": "normalize", "rows": 3})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry.Fields["athlete_id"] != "A1" {
		t.Errorf("bound field missing: %v", entry.Fields)
	}
	if entry.Fields["stage"] != "normalize" {
		t.Errorf("call-site field should win, got %v", entry.Fields["stage"])
	}

	buf.Reset()
	base.Info("plain", nil)
	if strings.Contains(buf.String(), "athlete_id") {
		t.Error("With must not leak bound fields into the parent logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Level("LOUD"), &buf)

	l.Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Error("debug should be filtered at the fallback info level")
	}
	l.Info("shown", nil)
	if buf.Len() == 0 {
		t.Error("info should be written at the fallback info level")
	}
}
