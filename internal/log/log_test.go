package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "info", ServiceName: "geuui-test"})
	logger.Info().Str(FieldEUUI, "abc").Msg("issued")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry[FieldService] != "geuui-test" {
		t.Errorf("service = %v, want geuui-test", entry[FieldService])
	}
	if entry[FieldEUUI] != "abc" {
		t.Errorf("euui = %v, want abc", entry[FieldEUUI])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "error"})
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at error level: %s", buf.String())
	}
}
