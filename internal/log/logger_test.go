/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &consoleHandler{level: slog.LevelDebug, w: &sb}
	l := slog.New(h).With(slog.String("component", "test"))
	l.Info("hello", slog.Int("n", 3), slog.Bool("ok", true))
	out := sb.String()
	for _, want := range []string{"INF", "hello", "component=test", "n=3", "ok=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q: %q", want, out)
		}
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	var sb strings.Builder
	var h slog.Handler = &consoleHandler{level: slog.LevelInfo, w: &sb}
	h = h.WithGroup("run").WithAttrs([]slog.Attr{slog.String("id", "abc")})
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(sb.String(), "run.id=abc") {
		t.Fatalf("grouped attr missing: %q", sb.String())
	}
}

func TestInitAndL(t *testing.T) {
	Init(Options{Level: "debug", Format: "console"})
	if L() == nil {
		t.Fatalf("L() returned nil after Init")
	}
	if lg := WithComponent("pipeline"); lg == nil {
		t.Fatalf("WithComponent returned nil")
	}
}
