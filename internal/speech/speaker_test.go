package speech

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/NARAsimha654/MockView-Bot/internal/config"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
)

func newUnavailableSpeaker(t *testing.T) *CommandSpeaker {
	t.Helper()
	cfg := config.TTSConfig{Command: "no-such-tts-binary"}
	s := NewCommandSpeaker(cfg, logger.New("error", false))
	if s.Available() {
		t.Fatalf("expected speaker unavailable for missing binary")
	}
	return s
}

func TestSpeakerMuteToggle(t *testing.T) {
	t.Parallel()

	s := newUnavailableSpeaker(t)

	if s.Muted() {
		t.Fatalf("speaker must start unmuted")
	}
	s.SetMuted(true)
	if !s.Muted() {
		t.Fatalf("expected muted after SetMuted(true)")
	}
	s.SetMuted(false)
	if s.Muted() {
		t.Fatalf("expected unmuted after SetMuted(false)")
	}
}

func TestSpeakIsNoOpWhenUnavailable(t *testing.T) {
	t.Parallel()

	s := newUnavailableSpeaker(t)
	// Must not panic or leave a dangling process handle.
	s.Speak("hello")
	s.Cancel()
}

// newLoggingSpeaker backs the speaker with a stub synthesis command that
// appends every utterance to a log file.
func newLoggingSpeaker(t *testing.T) (*CommandSpeaker, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("synthesis stub uses a shell script")
	}

	dir := t.TempDir()
	logFile := filepath.Join(dir, "spoken.log")
	script := filepath.Join(dir, "tts")
	body := "#!/bin/sh\necho \"$@\" >> " + logFile + "\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	s := NewCommandSpeaker(config.TTSConfig{Command: script}, logger.New("error", false))
	if !s.Available() {
		t.Fatalf("expected stub speaker available")
	}
	return s, logFile
}

func spokenLines(t *testing.T, logFile string, want int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		data, err := os.ReadFile(logFile)
		if err == nil {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) >= want && lines[0] != "" {
				return lines
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d utterances, log: %q", want, string(data))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestUnmuteSpeaksSingleConfirmation(t *testing.T) {
	t.Parallel()

	s, logFile := newLoggingSpeaker(t)

	s.SetMuted(true)
	s.Speak("suppressed while muted")
	s.Speak("also suppressed")
	s.SetMuted(false)

	lines := spokenLines(t, logFile, 1)
	if len(lines) != 1 || lines[0] != "Voice enabled." {
		t.Fatalf("expected exactly the confirmation, got %v", lines)
	}
}

func TestSpeakStripsMarkupBeforeSynthesis(t *testing.T) {
	t.Parallel()

	s, logFile := newLoggingSpeaker(t)
	s.Speak("use a <b>hash map</b>")

	lines := spokenLines(t, logFile, 1)
	if lines[0] != "use a hash map" {
		t.Fatalf("expected markup stripped, got %q", lines[0])
	}
}

func TestSetMutedIdempotent(t *testing.T) {
	t.Parallel()

	s := newUnavailableSpeaker(t)
	s.SetMuted(true)
	s.SetMuted(true)
	if !s.Muted() {
		t.Fatalf("expected still muted")
	}
	s.SetMuted(false)
	s.SetMuted(false)
	if s.Muted() {
		t.Fatalf("expected still unmuted")
	}
}
