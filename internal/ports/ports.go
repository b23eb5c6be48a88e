package ports

import (
	"context"
	"errors"

	"github.com/NARAsimha654/MockView-Bot/internal/domain"
)

// ErrPermissionDenied is returned by a Recognizer when microphone access
// is refused. It is surfaced as a notice, never as a fatal failure.
var ErrPermissionDenied = errors.New("microphone permission denied")

// InterviewService is the gateway to the remote interview backend.
// Scoring, question selection, and LLM prompting all live server-side;
// the client depends only on these request/response shapes.
type InterviewService interface {
	Topics(ctx context.Context) ([]string, error)
	StartSession(ctx context.Context, topic string, answeredIDs []string, persona domain.Persona) error
	StartCustomSession(ctx context.Context, jobDescription string, persona domain.Persona) error
	NextQuestion(ctx context.Context) (domain.AskResult, error)
	SubmitAnswer(ctx context.Context, answer string) (domain.Evaluation, error)
	Hint(ctx context.Context, questionText string) (string, error)
	Explanation(ctx context.Context, questionText, modelAnswer string) (string, error)
	GenerateReport(ctx context.Context, transcript []domain.TranscriptEntry, summary domain.Summary) ([]byte, error)
}

// AnsweredStore is the durable cross-session set of answered question ids.
type AnsweredStore interface {
	AnsweredIDs(ctx context.Context) ([]string, error)
	Add(ctx context.Context, id string) error
}

// CaptureSession is one live speech-to-text capture run.
type CaptureSession interface {
	Events() <-chan domain.TranscriptEvent
	Stop() error
}

// Recognizer creates speech capture sessions. Available reports whether
// the capability was detected at startup; when false, Start must not be
// called and the corresponding controls are hidden.
type Recognizer interface {
	Available() bool
	Start(ctx context.Context) (CaptureSession, error)
}

// Speaker synthesizes spoken output. Speak is asynchronous and cancels
// any in-progress utterance; it is a no-op while muted or unavailable.
type Speaker interface {
	Available() bool
	Speak(text string)
	Cancel()
	SetMuted(muted bool)
	Muted() bool
}

// EventSink emits controller state and errors to the UI.
type EventSink interface {
	PhaseChanged(phase domain.Phase, reason domain.StateReason)
	QuestionPresented(q domain.Question)
	EvaluationReady(entry domain.TranscriptEntry)
	HintReady(text string)
	ExplanationReady(text string)
	AnswerDraft(text string)
	RecordingChanged(active bool)
	SummaryReady(summary domain.Summary)
	SessionError(code domain.ErrorCode, detail string)
}
