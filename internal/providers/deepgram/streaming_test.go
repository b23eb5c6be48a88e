package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NARAsimha654/MockView-Bot/internal/config"
	"github.com/NARAsimha654/MockView-Bot/internal/domain"
)

func TestConfigured(t *testing.T) {
	t.Parallel()

	if NewProvider(config.DeepgramConfig{}).Configured() {
		t.Fatalf("provider without key must not be configured")
	}
	if !NewProvider(config.DeepgramConfig{APIKey: "dg-key"}).Configured() {
		t.Fatalf("provider with key must be configured")
	}
}

func TestListenURL(t *testing.T) {
	t.Parallel()

	got, err := listenURL(
		config.DeepgramConfig{APIBaseURL: "https://api.deepgram.com/v1", Model: "nova-2", Language: "en"},
		StreamConfig{SampleRate: 16000, Channels: 1, Encoding: "linear16"},
	)
	if err != nil {
		t.Fatalf("listenURL failed: %v", err)
	}

	if !strings.HasPrefix(got, "wss://api.deepgram.com/v1/listen?") {
		t.Fatalf("unexpected endpoint: %s", got)
	}
	for _, want := range []string{
		"model=nova-2",
		"encoding=linear16",
		"sample_rate=16000",
		"channels=1",
		"interim_results=true",
		"language=en",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %s in %s", want, got)
		}
	}
}

func TestListenURLAppliesStreamDefaults(t *testing.T) {
	t.Parallel()

	got, err := listenURL(config.DeepgramConfig{APIBaseURL: "http://localhost:9999", Model: "nova-2"}, StreamConfig{})
	if err != nil {
		t.Fatalf("listenURL failed: %v", err)
	}
	if !strings.HasPrefix(got, "ws://localhost:9999/listen?") {
		t.Fatalf("plain http must map to ws, got %s", got)
	}
	for _, want := range []string{"encoding=linear16", "sample_rate=16000", "channels=1"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing default %s in %s", want, got)
		}
	}
}

func TestListenMessageTranscript(t *testing.T) {
	t.Parallel()

	payload := `{
		"type": "Results",
		"is_final": true,
		"channel": {"alternatives": [{"transcript": "  use a hash map  "}]}
	}`
	var msg listenMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got := msg.transcript(); got != "use a hash map" {
		t.Fatalf("unexpected transcript %q", got)
	}
	if !msg.IsFinal {
		t.Fatalf("expected final flag")
	}
}

func TestStreamRoundTrip(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.BinaryMessage {
				received <- payload
				_ = conn.WriteJSON(map[string]any{
					"type":     "Results",
					"is_final": true,
					"channel": map[string]any{
						"alternatives": []map[string]any{{"transcript": "hello world"}},
					},
				})
				continue
			}
			// The CloseStream control message ends the session.
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}))
	defer srv.Close()

	provider := NewProvider(config.DeepgramConfig{
		APIKey:     "dg-key",
		APIBaseURL: srv.URL,
		Model:      "nova-2",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := provider.Start(ctx, StreamConfig{SampleRate: 16000, Channels: 1, Encoding: "linear16"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer stream.Close()

	if err := stream.SendAudio([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case chunk := <-received:
		if len(chunk) != 4 {
			t.Fatalf("unexpected chunk %v", chunk)
		}
	case <-ctx.Done():
		t.Fatalf("server never received audio")
	}

	select {
	case event := <-stream.Events():
		if event.Text != "hello world" || event.Kind != domain.TranscriptKindFinal {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-ctx.Done():
		t.Fatalf("no transcript event received")
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send failed: %v", err)
	}
	if err := stream.Wait(); err != nil {
		t.Fatalf("stream ended with error: %v", err)
	}
}

func TestStartRejectsMissingKey(t *testing.T) {
	t.Parallel()

	provider := NewProvider(config.DeepgramConfig{})
	if _, err := provider.Start(context.Background(), StreamConfig{}); err == nil {
		t.Fatalf("expected start rejection without API key")
	}
}
