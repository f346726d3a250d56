/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDisabledByDefault(t *testing.T) {
	t.Setenv("PLC_TELEMETRY_OPT_IN", "")
	t.Setenv("PLC_TELEMETRY_URL", "")
	c := New(FromEnv())
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("telemetry must be disabled by default")
	}
	// Must be a no-op, not a panic or a block.
	c.Event("chunk_run", map[string]any{"chunks": 3})
}

func TestOptInWithoutURLStaysDisabled(t *testing.T) {
	c := New(Config{OptIn: true, Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("opt-in without an endpoint must stay disabled")
	}
}

func TestEventDelivery(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got.Store(payload)
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.Event("chunk_run", map[string]any{"chunks": float64(7)})
	c.Flush(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for got.Load() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	payload, _ := got.Load().(map[string]any)
	if payload == nil {
		t.Fatalf("event never delivered")
	}
	if payload["name"] != "chunk_run" || payload["chunks"] != float64(7) {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["version"] == "" || payload["os"] == "" {
		t.Fatalf("payload missing ambient fields: %v", payload)
	}
}

func TestUploadCrashRequiresOptIn(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.UploadCrash([]byte("report"))
	time.Sleep(100 * time.Millisecond)
	if hits.Load() != 0 {
		t.Fatalf("crash upload sent without opt-in")
	}
}

func TestFromEnvParsesTimeout(t *testing.T) {
	t.Setenv("PLC_TELEMETRY_OPT_IN", "yes")
	t.Setenv("PLC_TELEMETRY_URL", "http://localhost:1")
	t.Setenv("PLC_TELEMETRY_TIMEOUT_MS", "250")
	cfg := FromEnv()
	if !cfg.OptIn || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
