package main

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/coincollector/internal/app"
	"github.com/ent0n29/coincollector/internal/config"
)

func TestWSURL(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8080":       "ws://127.0.0.1:8080/v1/skill/ws",
		"https://skill.example.test/": "wss://skill.example.test/v1/skill/ws",
	}
	for in, want := range cases {
		got, err := wsURL(in)
		if err != nil || got != want {
			t.Fatalf("wsURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := wsURL("ftp://host"); err == nil {
		t.Fatalf("wsURL(ftp) should fail")
	}
}

func TestDecodeReplyRejectsErrorBody(t *testing.T) {
	if _, err := decodeReply([]byte(`{"error":"bad","code":"invalid_envelope"}`)); err == nil {
		t.Fatalf("decodeReply(error body) should fail")
	}
	out, err := decodeReply([]byte(`{"version":"1.0","response":{"outputSpeech":{"type":"PlainText","text":"hi"}}}`))
	if err != nil {
		t.Fatalf("decodeReply() error = %v", err)
	}
	if out.Speech() != "hi" {
		t.Fatalf("Speech() = %q, want hi", out.Speech())
	}
}

func TestSummarize(t *testing.T) {
	var lat []time.Duration
	for i := 1; i <= 20; i++ {
		lat = append(lat, time.Duration(i)*time.Millisecond)
	}
	got := summarize(lat)
	if !strings.Contains(got, "p50=10ms") || !strings.Contains(got, "p95=19ms") || !strings.Contains(got, "max=20ms") {
		t.Fatalf("summarize() = %q", got)
	}
}

func TestRunReplaysAgainstServer(t *testing.T) {
	cfg := config.Config{
		MetricsNamespace:         fmt.Sprintf("test_perfskill_%d", time.Now().UnixNano()),
		SessionInactivityTimeout: time.Minute,
		StoreDriver:              "memory",
		EntitlementMode:          "mock",
		EntitlementTimeout:       time.Second,
		PremiumProductID:         "pid",
		PremiumReferenceName:     "all_access",
		AllowAnyOrigin:           true,
	}
	built, err := app.Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer built.Cleanup()

	srv := httptest.NewServer(built.API.Router())
	defer srv.Close()

	err = run(options{baseURL: srv.URL, userID: "perf-user", turns: len(script()), turnTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	stored, err := built.Records.Load(context.Background(), "perf-user")
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %+v, %v; want one record", stored, err)
	}
}
