package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/NARAsimha654/MockView-Bot/internal/config"
	"github.com/NARAsimha654/MockView-Bot/internal/domain"
)

// StreamConfig describes the audio format pushed over the websocket.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Encoding   string
}

// Provider opens live transcription streams against Deepgram.
type Provider struct {
	cfg config.DeepgramConfig
}

func NewProvider(cfg config.DeepgramConfig) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Provider{cfg: cfg}
}

// Configured reports whether an API key is present.
func (p *Provider) Configured() bool {
	return strings.TrimSpace(p.cfg.APIKey) != ""
}

// Start dials the listen endpoint and begins the read/write pumps.
func (p *Provider) Start(ctx context.Context, cfg StreamConfig) (*LiveStream, error) {
	if !p.Configured() {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := listenURL(p.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect transcription websocket: %w", err)
	}

	stream := &LiveStream{
		conn:   conn,
		events: make(chan domain.TranscriptEvent, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
	}

	stream.wg.Add(2)
	go stream.readLoop()
	go stream.writeLoop()
	go func() {
		stream.wg.Wait()
		close(stream.events)
		close(stream.done)
		_ = conn.Close()
	}()
	go func() {
		<-ctx.Done()
		_ = stream.Close()
	}()

	return stream, nil
}

// LiveStream is one open transcription websocket.
type LiveStream struct {
	conn *websocket.Conn

	events chan domain.TranscriptEvent
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

// SendAudio queues one PCM chunk for delivery.
func (s *LiveStream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("audio stream is already closed")
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.done:
		if err := s.streamErr(); err != nil {
			return err
		}
		return errors.New("stream closed")
	}
}

// CloseSend signals end of audio; transcription continues draining.
func (s *LiveStream) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *LiveStream) Events() <-chan domain.TranscriptEvent {
	return s.events
}

// Wait blocks until the stream finishes and returns its terminal error.
func (s *LiveStream) Wait() error {
	<-s.done
	return s.streamErr()
}

func (s *LiveStream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.streamErr()
}

func (s *LiveStream) streamErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *LiveStream) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *LiveStream) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("close stream: %w", err))
	}
}

func (s *LiveStream) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("read transcription event: %w", err))
			return
		}

		var msg listenMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		if strings.EqualFold(msg.Type, "Error") {
			detail := strings.TrimSpace(msg.Message)
			if detail == "" {
				detail = "transcription provider returned an unknown error"
			}
			s.setErr(errors.New(detail))
			return
		}

		text := msg.transcript()
		if text == "" {
			continue
		}

		event := domain.TranscriptEvent{Text: text, Kind: domain.TranscriptKindPartial}
		if msg.IsFinal || msg.SpeechFinal {
			event.Kind = domain.TranscriptKindFinal
		}
		s.emit(event)
	}
}

func (s *LiveStream) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}

type listenMessage struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (m listenMessage) transcript() string {
	if len(m.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(m.Channel.Alternatives[0].Transcript)
}

func listenURL(providerCfg config.DeepgramConfig, streamCfg StreamConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid transcription API base URL: %w", err)
	}

	if streamCfg.Encoding == "" {
		streamCfg.Encoding = "linear16"
	}
	if streamCfg.SampleRate <= 0 {
		streamCfg.SampleRate = 16000
	}
	if streamCfg.Channels <= 0 {
		streamCfg.Channels = 1
	}

	query := u.Query()
	query.Set("model", providerCfg.Model)
	query.Set("encoding", streamCfg.Encoding)
	query.Set("sample_rate", strconv.Itoa(streamCfg.SampleRate))
	query.Set("channels", strconv.Itoa(streamCfg.Channels))
	query.Set("interim_results", "true")
	query.Set("smart_format", "true")
	if providerCfg.Language != "" {
		query.Set("language", providerCfg.Language)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
