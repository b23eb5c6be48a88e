package speech

import (
	"context"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/NARAsimha654/MockView-Bot/internal/config"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
)

const unmuteConfirmation = "Voice enabled."

// CommandSpeaker synthesizes speech by shelling out to a local TTS
// command (say, espeak-ng, espeak). Only the most recent message is ever
// spoken: starting a new utterance cancels the previous one.
type CommandSpeaker struct {
	command   string
	args      []string
	available bool
	log       *logger.Logger

	mu      sync.Mutex
	muted   bool
	cancel  context.CancelFunc
	current *exec.Cmd
}

func NewCommandSpeaker(cfg config.TTSConfig, log *logger.Logger) *CommandSpeaker {
	_, err := exec.LookPath(cfg.Command)
	return &CommandSpeaker{
		command:   cfg.Command,
		args:      cfg.Args,
		available: err == nil,
		log:       log,
	}
}

// Available reports whether text-to-speech was detected at startup.
func (s *CommandSpeaker) Available() bool {
	return s.available
}

// Speak voices text asynchronously. It is suppressed entirely while
// muted or unavailable, and strips markup before synthesis.
func (s *CommandSpeaker) Speak(text string) {
	if !s.available {
		return
	}

	clean := StripMarkup(text)
	if clean == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted {
		return
	}

	s.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	args := append(append([]string(nil), s.args...), clean)
	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		s.log.Warn("speech synthesis failed to start", logrus.Fields{"error": err.Error()})
		return
	}

	s.cancel = cancel
	s.current = cmd
	go func() {
		_ = cmd.Wait()
		cancel()
	}()
}

// Cancel stops any in-progress utterance.
func (s *CommandSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// SetMuted toggles synthesis. Muting cancels the current utterance;
// unmuting announces a single confirmation so the user hears the change.
func (s *CommandSpeaker) SetMuted(muted bool) {
	s.mu.Lock()
	wasMuted := s.muted
	s.muted = muted
	if muted {
		s.cancelLocked()
	}
	s.mu.Unlock()

	if wasMuted && !muted {
		s.Speak(unmuteConfirmation)
	}
}

func (s *CommandSpeaker) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *CommandSpeaker) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.current = nil
	}
}
