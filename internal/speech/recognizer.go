package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NARAsimha654/MockView-Bot/internal/audio"
	"github.com/NARAsimha654/MockView-Bot/internal/config"
	"github.com/NARAsimha654/MockView-Bot/internal/domain"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
	"github.com/NARAsimha654/MockView-Bot/internal/ports"
	"github.com/NARAsimha654/MockView-Bot/internal/providers/deepgram"
)

// transcriptStream is the live STT connection consumed by a capture run.
type transcriptStream interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Close() error
}

// Recognizer turns microphone audio into answer-draft transcript events.
// Availability is decided once at construction; when the recorder binary
// or the provider key is missing the mic control degrades away.
type Recognizer struct {
	available    bool
	chunkSize    int
	startCapture func(ctx context.Context) (audio.Session, error)
	startStream  func(ctx context.Context) (transcriptStream, error)
	log          *logger.Logger
}

// NewRecognizer wires the ffmpeg capture and the Deepgram provider.
func NewRecognizer(capture *audio.MicCapture, provider *deepgram.Provider, cfg config.SpeechConfig, log *logger.Logger) *Recognizer {
	_, recorderErr := exec.LookPath(cfg.Audio.RecorderCommand)

	return &Recognizer{
		available: recorderErr == nil && provider.Configured(),
		chunkSize: cfg.Audio.ChunkSize,
		startCapture: func(ctx context.Context) (audio.Session, error) {
			return capture.Start(ctx, cfg.Audio)
		},
		startStream: func(ctx context.Context) (transcriptStream, error) {
			return provider.Start(ctx, deepgram.StreamConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				Encoding:   "linear16",
			})
		},
		log: log,
	}
}

// Available reports whether speech-to-text was detected at startup.
func (r *Recognizer) Available() bool {
	return r.available
}

// Start opens a continuous capture session. Transcript events carry the
// full current draft so the newest transcript always wins.
func (r *Recognizer) Start(ctx context.Context) (ports.CaptureSession, error) {
	if !r.available {
		return nil, errors.New("speech-to-text is not available")
	}

	runCtx, cancel := context.WithCancel(ctx)

	stream, err := r.startStream(runCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start transcription stream: %w", err)
	}

	mic, err := r.startCapture(runCtx)
	if err != nil {
		_ = stream.Close()
		cancel()
		return nil, classifyCaptureError(err)
	}

	run := &captureRun{
		cancel:       cancel,
		mic:          mic,
		stream:       stream,
		out:          make(chan domain.TranscriptEvent, 16),
		done:         make(chan struct{}),
		quit:         make(chan struct{}),
		drainTimeout: streamDrainTimeout,
	}

	go run.pumpAudio(r.chunkSize, r.log)
	go run.forwardTranscripts()

	return run, nil
}

// classifyCaptureError maps recorder failures that look like a denied
// device grab onto the permission sentinel.
func classifyCaptureError(err error) error {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied") {
		return fmt.Errorf("%w: %v", ports.ErrPermissionDenied, err)
	}
	return fmt.Errorf("start microphone capture: %w", err)
}

// streamDrainTimeout bounds how long Stop waits for the provider to
// deliver trailing transcripts before the connection is forced closed.
const streamDrainTimeout = 3 * time.Second

type captureRun struct {
	cancel func()
	mic    audio.Session
	stream transcriptStream

	out  chan domain.TranscriptEvent
	done chan struct{}
	quit chan struct{}

	draft        draftAggregator
	drainTimeout time.Duration

	stopOnce sync.Once
}

func (c *captureRun) Events() <-chan domain.TranscriptEvent {
	return c.out
}

// Stop ends capture and lets the stream drain before closing it. A
// provider that never closes after end-of-audio is cut off after the
// drain timeout so Stop cannot block its caller indefinitely.
func (c *captureRun) Stop() error {
	c.stopOnce.Do(func() {
		close(c.quit)
		_ = c.mic.Stop()
		_ = c.stream.CloseSend()
		select {
		case <-c.done:
		case <-time.After(c.drainTimeout):
			_ = c.stream.Close()
			<-c.done
		}
		_ = c.stream.Close()
		c.cancel()
	})
	return nil
}

func (c *captureRun) pumpAudio(chunkSize int, log *logger.Logger) {
	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := c.mic.Read(buf)
		if n > 0 {
			if sendErr := c.stream.SendAudio(buf[:n]); sendErr != nil {
				log.Warn("audio streaming stopped", logrus.Fields{"error": sendErr.Error()})
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("microphone read failed", logrus.Fields{"error": err.Error()})
			}
			_ = c.stream.CloseSend()
			return
		}
	}
}

// forwardTranscripts rebuilds the full draft on every event and emits it
// downstream: accumulated finals plus the newest interim segment. The
// send blocks so no draft update is lost while capture is live; once
// Stop begins, a blocked send is abandoned so shutdown cannot hang on a
// consumer that went away.
func (c *captureRun) forwardTranscripts() {
	defer close(c.out)
	defer close(c.done)

	for event := range c.stream.Events() {
		text := c.draft.apply(event)
		if text == "" {
			continue
		}
		select {
		case c.out <- domain.TranscriptEvent{Kind: event.Kind, Text: text}:
		case <-c.quit:
			return
		}
	}
}

// draftAggregator folds partial and final segments into one draft where
// the latest full transcript always replaces what came before.
type draftAggregator struct {
	finals  []string
	interim string
}

func (a *draftAggregator) apply(event domain.TranscriptEvent) string {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return a.current()
	}

	if event.Kind == domain.TranscriptKindFinal {
		a.finals = append(a.finals, text)
		a.interim = ""
	} else {
		a.interim = text
	}
	return a.current()
}

func (a *draftAggregator) current() string {
	joined := strings.Join(a.finals, " ")
	if a.interim == "" {
		return joined
	}
	if joined == "" {
		return a.interim
	}
	return joined + " " + a.interim
}
