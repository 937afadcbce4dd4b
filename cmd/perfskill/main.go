package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/coincollector/internal/protocol"
	"github.com/ent0n29/coincollector/internal/skill"
)

type options struct {
	baseURL        string
	userID         string
	turns          int
	interTurnDelay time.Duration
	turnTimeout    time.Duration
	verbose        bool
}

// step is one scripted utterance in the replayed conversation.
type step struct {
	label string
	req   protocol.Request
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "perfskill: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "perfskill: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var interTurnMS int
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "coincollector base URL")
	flag.StringVar(&cfg.userID, "user-id", "perf-replay", "user id carried by the synthetic envelopes")
	flag.IntVar(&cfg.turns, "turns", 20, "number of turns to replay")
	flag.IntVar(&interTurnMS, "inter-turn-ms", 50, "delay between turns in milliseconds")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 5000, "timeout waiting for each response in milliseconds")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if interTurnMS < 0 {
		interTurnMS = 0
	}
	if turnTimeoutMS < 100 {
		turnTimeoutMS = 100
	}
	cfg.interTurnDelay = time.Duration(interTurnMS) * time.Millisecond
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond
	return cfg, nil
}

// script is the conversation replayed in a loop: open, add a coin through a
// delegated dialog, decline another, then read the collection back.
func script() []step {
	slotsFor := func(year, city, coin string) map[string]protocol.Slot {
		return map[string]protocol.Slot{
			"year": {Name: "year", Value: year},
			"city": {Name: "city", Value: city},
			"coin": {Name: "coin", Value: coin},
		}
	}
	intent := func(name string, state protocol.DialogState, s map[string]protocol.Slot) protocol.Request {
		return protocol.Request{
			Type:        protocol.TypeIntentRequest,
			Locale:      "en-US",
			DialogState: state,
			Intent:      &protocol.Intent{Name: name, Slots: s},
		}
	}
	return []step{
		{label: "launch", req: protocol.Request{Type: protocol.TypeLaunchRequest, Locale: "en-US"}},
		{label: "add_delegate", req: intent(skill.IntentAddCoin, protocol.DialogStarted, nil)},
		{label: "add_completed", req: intent(skill.IntentAddCoin, protocol.DialogCompleted, slotsFor("2019", "Denver", "Penny"))},
		{label: "no", req: intent(skill.IntentNo, "", nil)},
		{label: "read_completed", req: intent(skill.IntentReadCoin, protocol.DialogCompleted, slotsFor("2019", "Denver", "Penny"))},
	}
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Minute)
	defer cancel()

	sessionID := "perf." + uuid.NewString()
	httpClient := &http.Client{Timeout: 15 * time.Second}
	defer func() {
		_ = endSession(context.Background(), httpClient, cfg.baseURL, sessionID)
	}()

	wsURL, err := wsURL(cfg.baseURL)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	if cfg.verbose {
		fmt.Printf("perfskill: session=%s turns=%d\n", sessionID, cfg.turns)
	}

	steps := script()
	latencies := make([]time.Duration, 0, cfg.turns)
	for i := 0; i < cfg.turns; i++ {
		st := steps[i%len(steps)]
		env := protocol.RequestEnvelope{
			Version: "1.0",
			Session: protocol.Session{
				New:       i == 0,
				SessionID: sessionID,
				User:      protocol.User{UserID: cfg.userID},
			},
			Request: st.req,
		}
		env.Request.RequestID = fmt.Sprintf("perf.%d", i+1)

		started := time.Now()
		out, err := roundTrip(conn, env, cfg.turnTimeout)
		if err != nil {
			return fmt.Errorf("turn %d (%s): %w", i+1, st.label, err)
		}
		elapsed := time.Since(started)
		latencies = append(latencies, elapsed)

		if cfg.verbose {
			fmt.Printf("perfskill: turn %d/%d %s %s speech=%q\n", i+1, cfg.turns, st.label, elapsed.Round(time.Microsecond), out.Speech())
		}
		if cfg.interTurnDelay > 0 && i < cfg.turns-1 {
			time.Sleep(cfg.interTurnDelay)
		}
	}

	fmt.Println(summarize(latencies))
	return nil
}

func roundTrip(conn *websocket.Conn, env protocol.RequestEnvelope, timeout time.Duration) (protocol.ResponseEnvelope, error) {
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if err := conn.WriteJSON(env); err != nil {
		return protocol.ResponseEnvelope{}, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return protocol.ResponseEnvelope{}, err
	}
	return decodeReply(data)
}

// decodeReply accepts a response envelope and rejects the server's error body.
func decodeReply(data []byte) (protocol.ResponseEnvelope, error) {
	var errBody struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(data, &errBody); err == nil && errBody.Error != "" {
		return protocol.ResponseEnvelope{}, fmt.Errorf("%s: %s", errBody.Code, errBody.Error)
	}
	var out protocol.ResponseEnvelope
	if err := json.Unmarshal(data, &out); err != nil {
		return protocol.ResponseEnvelope{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func summarize(latencies []time.Duration) string {
	if len(latencies) == 0 {
		return "perfskill: no turns"
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	at := func(p float64) time.Duration {
		idx := int(p*float64(len(sorted))+0.5) - 1
		idx = max(0, min(idx, len(sorted)-1))
		return sorted[idx]
	}
	return fmt.Sprintf("perfskill: turns=%d p50=%s p95=%s max=%s",
		len(sorted),
		at(0.50).Round(time.Microsecond),
		at(0.95).Round(time.Microsecond),
		sorted[len(sorted)-1].Round(time.Microsecond),
	)
}

func endSession(ctx context.Context, client *http.Client, baseURL, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/sessions/"+url.PathEscape(sessionID)+"/end", nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return nil
}

func wsURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/skill/ws"
	return u.String(), nil
}
