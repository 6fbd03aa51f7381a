// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"ERROR":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWritesJSONToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("component", "test").Msg("hello")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if event["message"] != "hello" || event["component"] != "test" {
		t.Errorf("event = %v", event)
	}
}

func TestSlogHandlerForwardsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&SlogHandler{logger: NewTestLogger(&buf)})

	logger.Info("supervised", slog.String("service", "sweeper"), slog.Int("restarts", 2))

	out := buf.String()
	for _, want := range []string{"supervised", `"service":"sweeper"`, `"restarts":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSlogHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&SlogHandler{logger: NewTestLogger(&buf)})

	logger.WithGroup("supervisor").Info("event", slog.String("name", "api-layer"))

	if out := buf.String(); !strings.Contains(out, `"supervisor.name":"api-layer"`) {
		t.Errorf("output %q missing grouped key", out)
	}
}
