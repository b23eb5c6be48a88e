package domain

import "strings"

// Phase models the interview lifecycle.
type Phase string

const (
	PhaseWelcome          Phase = "welcome"
	PhaseAwaitingQuestion Phase = "awaiting_question"
	PhaseAwaitingAnswer   Phase = "awaiting_answer"
	PhaseSummary          Phase = "summary"
)

// Persona is the interviewer style sent to the service. It affects
// question tone and generation only.
type Persona string

const (
	PersonaNeutral  Persona = "Neutral"
	PersonaFriendly Persona = "Friendly"
	PersonaStrict   Persona = "Strict"
)

// ValidPersona reports whether p is one of the enumerated personas.
func ValidPersona(p Persona) bool {
	switch p {
	case PersonaNeutral, PersonaFriendly, PersonaStrict:
		return true
	}
	return false
}

// DynamicIDPrefix marks ephemeral question ids that must never be
// recorded in the durable answered set.
const DynamicIDPrefix = "dynamic-"

// IsDynamicID reports whether id names an ephemeral, on-the-fly question.
func IsDynamicID(id string) bool {
	return strings.HasPrefix(id, DynamicIDPrefix)
}

// Question is a single interview question as delivered by the service.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AskResult is the outcome of requesting the next question: either the
// interview is complete or a new question is presented.
type AskResult struct {
	Complete bool     `json:"complete"`
	Message  string   `json:"message,omitempty"`
	Question Question `json:"question,omitempty"`
}

// Evaluation is the service's verdict on one submitted answer.
type Evaluation struct {
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	ModelAnswer string `json:"modelAnswer"`
}

// TranscriptEntry records one question/answer exchange of the session.
type TranscriptEntry struct {
	Question    string `json:"question"`
	UserAnswer  string `json:"userAnswer"`
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	ModelAnswer string `json:"modelAnswer"`
}

// Summary is the end-of-session result computed from the transcript.
// HasScore is false when no questions were answered.
type Summary struct {
	Answered     int  `json:"answered"`
	AverageScore int  `json:"averageScore"`
	HasScore     bool `json:"hasScore"`
}

// StateReason provides a structured reason for phase transitions.
type StateReason string

const (
	ReasonAppReady          StateReason = "app_ready"
	ReasonSessionStarted    StateReason = "session_started"
	ReasonCustomStarted     StateReason = "custom_session_started"
	ReasonQuestionPresented StateReason = "question_presented"
	ReasonAnswerEvaluated   StateReason = "answer_evaluated"
	ReasonInterviewComplete StateReason = "interview_complete"
	ReasonInterviewEnded    StateReason = "interview_ended"
	ReasonSessionReset      StateReason = "session_reset"
)

// ErrorCode identifies non-fatal client errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup          ErrorCode = "startup"
	ErrorCodeBootstrap        ErrorCode = "bootstrap"
	ErrorCodeQuestionFetch    ErrorCode = "question_fetch"
	ErrorCodeSubmission       ErrorCode = "submission"
	ErrorCodeSideRequest      ErrorCode = "side_request"
	ErrorCodeSpeechPermission ErrorCode = "speech_permission"
	ErrorCodeSpeechCapture    ErrorCode = "speech_capture"
	ErrorCodeReport           ErrorCode = "report"
)

// TranscriptKind identifies whether a recognizer event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent is incremental speech-to-text output from the recognizer.
type TranscriptEvent struct {
	Kind TranscriptKind `json:"kind"`
	Text string         `json:"text"`
}

// Capabilities reports which optional speech directions are usable.
type Capabilities struct {
	SpeechToText bool `json:"speechToText"`
	TextToSpeech bool `json:"textToSpeech"`
}

// Status summarizes the controller's current state for the UI.
type Status struct {
	Phase     Phase   `json:"phase"`
	Persona   Persona `json:"persona"`
	Recording bool    `json:"recording"`
	Question  string  `json:"question,omitempty"`
}
