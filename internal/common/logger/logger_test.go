package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "auth", "WARN")

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARNING] [auth]") || !strings.Contains(out, "shown") {
		t.Errorf("expected warning line, got %q", out)
	}

	log.SetLevel("debug")
	if !log.ShouldLog(DEBUG) {
		t.Error("expected debug after SetLevel")
	}
}

func TestLogger_FieldsAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "auth", "INFO")

	ctx := context.WithValue(context.Background(), TraceIDKey, "abc123")
	log.WithFields(ctx, Fields{"user_id": "123", "action": "refresh_token_issued"}).Info("issued")

	out := buf.String()
	if !strings.Contains(out, "[trace_id=abc123 action=refresh_token_issued user_id=123]") {
		t.Errorf("expected sorted fields with trace id, got %q", out)
	}
}

func TestEntry_Criticalf(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "auth", "ERROR")

	log.WithFields(context.Background(), Fields{"action": "panic_recovered"}).Criticalf("panic recovered: %v", "boom")

	out := buf.String()
	if !strings.Contains(out, "[CRITICAL] [auth]") {
		t.Errorf("expected critical level prefix, got %q", out)
	}
	if !strings.Contains(out, "action=panic_recovered") || !strings.Contains(out, "panic recovered: boom") {
		t.Errorf("expected formatted message with fields, got %q", out)
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "", "INFO")

	log.WithFields(context.Background(), Fields{
		"refreshToken":  "eyJ.secret.value",
		"access_token":  "eyJ.other",
		"password":      "hunter2",
		"token_id":      "rec-1",
		"refresh_token": "eyJ.third",
	}).Info("login")

	out := buf.String()
	for _, leaked := range []string{"eyJ.secret.value", "eyJ.other", "hunter2", "eyJ.third"} {
		if strings.Contains(out, leaked) {
			t.Errorf("credential %q leaked into %q", leaked, out)
		}
	}
	if !strings.Contains(out, "token_id=rec-1") {
		t.Errorf("expected token_id to be kept, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":    DEBUG,
		" WARN ":   WARNING,
		"error":    ERROR,
		"CRITICAL": CRITICAL,
		"bogus":    INFO,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}
