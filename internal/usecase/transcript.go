package usecase

import (
	"math"

	"github.com/NARAsimha654/MockView-Bot/internal/domain"
)

// TranscriptLog is the in-memory, append-only record of the current
// session's exchanges. It is owned by the controller and reset at the
// start of every new session.
type TranscriptLog struct {
	entries []domain.TranscriptEntry
}

func NewTranscriptLog() *TranscriptLog {
	return &TranscriptLog{}
}

func (t *TranscriptLog) Append(entry domain.TranscriptEntry) {
	t.entries = append(t.entries, entry)
}

func (t *TranscriptLog) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the recorded exchanges.
func (t *TranscriptLog) Entries() []domain.TranscriptEntry {
	out := make([]domain.TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *TranscriptLog) Reset() {
	t.entries = nil
}

// Summarize reports the answered count and the rounded average score.
// An empty log yields no score at all rather than a division by zero.
func (t *TranscriptLog) Summarize() domain.Summary {
	if len(t.entries) == 0 {
		return domain.Summary{}
	}

	sum := 0
	for _, entry := range t.entries {
		sum += entry.Score
	}
	return domain.Summary{
		Answered:     len(t.entries),
		AverageScore: int(math.Round(float64(sum) / float64(len(t.entries)))),
		HasScore:     true,
	}
}
