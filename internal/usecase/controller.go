package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/NARAsimha654/MockView-Bot/internal/domain"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
	"github.com/NARAsimha654/MockView-Bot/internal/ports"
)

var (
	ErrSessionActive       = errors.New("an interview session is already active")
	ErrNoActiveSession     = errors.New("no active interview session")
	ErrNoAwaitedQuestion   = errors.New("no question is awaiting an answer")
	ErrEmptyAnswer         = errors.New("answer is empty")
	ErrEmptyJobDescription = errors.New("job description is empty")
	ErrInvalidPersona      = errors.New("unknown persona")
	ErrActionConsumed      = errors.New("one-shot action already used")
	ErrAskInFlight         = errors.New("a question request is already in flight")
	ErrSpeechUnavailable   = errors.New("speech capture is not available")
	ErrNotInSummary        = errors.New("no finished interview to restart from")
)

// SessionController is the state machine driving one mock interview at a
// time. All transient state lives behind one mutex; network calls run
// outside the lock and their results are generation-checked before they
// are applied, so a response that outlives its session is discarded.
type SessionController struct {
	svc        ports.InterviewService
	store      ports.AnsweredStore
	recognizer ports.Recognizer
	speaker    ports.Speaker
	events     ports.EventSink
	log        *logger.Logger

	mu         sync.Mutex
	phase      domain.Phase
	persona    domain.Persona
	generation uint64

	current    domain.Question
	answered   domain.Question
	lastEval   domain.Evaluation
	haveEval   bool
	transcript *TranscriptLog

	hintUsed    bool
	explainUsed bool
	nextUsed    bool
	asking      bool

	recording bool
	capture   ports.CaptureSession
}

func NewSessionController(
	svc ports.InterviewService,
	store ports.AnsweredStore,
	recognizer ports.Recognizer,
	speaker ports.Speaker,
	events ports.EventSink,
	log *logger.Logger,
) *SessionController {
	return &SessionController{
		svc:        svc,
		store:      store,
		recognizer: recognizer,
		speaker:    speaker,
		events:     events,
		log:        log,
		phase:      domain.PhaseWelcome,
		persona:    domain.PersonaNeutral,
		transcript: NewTranscriptLog(),
	}
}

// Topics lists the available interview topics.
func (c *SessionController) Topics(ctx context.Context) ([]string, error) {
	topics, err := c.svc.Topics(ctx)
	if err != nil {
		c.log.Error("topic list fetch failed", logrus.Fields{"error": err.Error()})
		c.events.SessionError(domain.ErrorCodeBootstrap, "Could not load topics.")
		return nil, fmt.Errorf("fetch topics: %w", err)
	}
	return topics, nil
}

// SelectPersona records the interviewer style for the next session.
func (c *SessionController) SelectPersona(p domain.Persona) error {
	if !domain.ValidPersona(p) {
		return fmt.Errorf("%w: %q", ErrInvalidPersona, p)
	}
	c.mu.Lock()
	c.persona = p
	c.mu.Unlock()
	return nil
}

// Status reports the controller's current state.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		Phase:     c.phase,
		Persona:   c.persona,
		Recording: c.recording,
		Question:  c.current.Text,
	}
}

// Capabilities reports which speech directions were detected.
func (c *SessionController) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		SpeechToText: c.recognizer.Available(),
		TextToSpeech: c.speaker.Available(),
	}
}

// StartTopicSession bootstraps a topic-based interview: the transcript
// is cleared, the durable answered ids and persona are sent along, and
// on success the first question is requested immediately.
func (c *SessionController) StartTopicSession(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("topic must not be empty")
	}

	gen, persona, err := c.beginSession()
	if err != nil {
		return err
	}

	answeredIDs, err := c.store.AnsweredIDs(ctx)
	if err != nil {
		// A broken local store should not block practicing; the worst
		// outcome is a repeated question.
		c.log.Warn("answered-id store read failed", logrus.Fields{"error": err.Error()})
		answeredIDs = nil
	}

	if err := c.svc.StartSession(ctx, topic, answeredIDs, persona); err != nil {
		c.failBootstrap(gen, err)
		return fmt.Errorf("start session: %w", err)
	}

	greeting := fmt.Sprintf("Great! Let's start with %s.", strings.ToUpper(topic))
	if !c.enterSession(gen, domain.ReasonSessionStarted, greeting) {
		return nil
	}
	return c.askQuestion(ctx, gen)
}

// StartCustomSession bootstraps a job-description-derived interview.
// The service's error message is surfaced verbatim on failure.
func (c *SessionController) StartCustomSession(ctx context.Context, jobDescription string) error {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return ErrEmptyJobDescription
	}

	gen, persona, err := c.beginSession()
	if err != nil {
		return err
	}

	if err := c.svc.StartCustomSession(ctx, jobDescription, persona); err != nil {
		c.failBootstrap(gen, err)
		return fmt.Errorf("start custom session: %w", err)
	}

	greeting := "Excellent! I've analyzed the job description and created a custom interview for you. Let's begin."
	if !c.enterSession(gen, domain.ReasonCustomStarted, greeting) {
		return nil
	}
	return c.askQuestion(ctx, gen)
}

// beginSession validates the transition out of Welcome and resets all
// per-session state under a fresh generation. Summary must go through
// Restart first so the persona reset is never skipped.
func (c *SessionController) beginSession() (uint64, domain.Persona, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseWelcome {
		return 0, "", ErrSessionActive
	}

	c.generation++
	c.transcript.Reset()
	c.current = domain.Question{}
	c.answered = domain.Question{}
	c.haveEval = false
	c.hintUsed = false
	c.explainUsed = false
	c.nextUsed = false
	c.asking = false
	return c.generation, c.persona, nil
}

func (c *SessionController) failBootstrap(gen uint64, err error) {
	c.mu.Lock()
	if gen == c.generation {
		c.phase = domain.PhaseWelcome
	}
	c.mu.Unlock()

	c.log.Error("session bootstrap failed", logrus.Fields{"error": err.Error()})
	c.events.SessionError(domain.ErrorCodeBootstrap, err.Error())
}

func (c *SessionController) enterSession(gen uint64, reason domain.StateReason, greeting string) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.phase = domain.PhaseAwaitingQuestion
	c.mu.Unlock()

	c.events.PhaseChanged(domain.PhaseAwaitingQuestion, reason)
	c.speaker.Speak(greeting)
	return true
}

// ProceedToNextQuestion is the one-shot follow-up attached to the last
// evaluation. Repeated triggering advances the interview only once.
func (c *SessionController) ProceedToNextQuestion(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != domain.PhaseAwaitingQuestion {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.nextUsed {
		c.mu.Unlock()
		return ErrActionConsumed
	}
	c.nextUsed = true
	gen := c.generation
	c.mu.Unlock()

	return c.askQuestion(ctx, gen)
}

// askQuestion requests the next question. It never runs while another
// ask is in flight or while a question is already awaited.
func (c *SessionController) askQuestion(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if gen != c.generation || c.phase != domain.PhaseAwaitingQuestion {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.asking {
		c.mu.Unlock()
		return ErrAskInFlight
	}
	c.asking = true
	c.mu.Unlock()

	result, err := c.svc.NextQuestion(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.asking = false

	if err != nil {
		c.mu.Unlock()
		c.log.Error("question fetch failed", logrus.Fields{"error": err.Error()})
		c.events.SessionError(domain.ErrorCodeQuestionFetch, "Could not fetch the next question.")
		return fmt.Errorf("ask question: %w", err)
	}

	if result.Complete {
		c.finishLocked(domain.ReasonInterviewComplete)
		return nil
	}

	c.current = result.Question
	c.phase = domain.PhaseAwaitingAnswer
	c.hintUsed = false
	c.mu.Unlock()

	c.events.QuestionPresented(result.Question)
	c.events.PhaseChanged(domain.PhaseAwaitingAnswer, domain.ReasonQuestionPresented)
	c.speaker.Speak("Question: " + result.Question.Text)
	return nil
}

// SubmitAnswer evaluates a non-empty answer for the awaited question.
// The awaited flag is cleared synchronously before the network call is
// dispatched, so a second submit for the same question is a no-op.
func (c *SessionController) SubmitAnswer(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrEmptyAnswer
	}

	c.mu.Lock()
	if c.phase != domain.PhaseAwaitingAnswer {
		c.mu.Unlock()
		return ErrNoAwaitedQuestion
	}
	c.stopRecordingLocked()

	question := c.current
	gen := c.generation
	c.phase = domain.PhaseAwaitingQuestion
	c.mu.Unlock()

	evaluation, err := c.svc.SubmitAnswer(ctx, answer)
	if err != nil {
		c.log.Error("answer submission failed", logrus.Fields{
			"question_id": question.ID,
			"error":       err.Error(),
		})
		c.events.SessionError(domain.ErrorCodeSubmission, "Could not evaluate your answer.")
		return fmt.Errorf("submit answer: %w", err)
	}

	entry := domain.TranscriptEntry{
		Question:    question.Text,
		UserAnswer:  answer,
		Score:       evaluation.Score,
		Feedback:    evaluation.Feedback,
		ModelAnswer: evaluation.ModelAnswer,
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	c.transcript.Append(entry)
	c.answered = question
	c.lastEval = evaluation
	c.haveEval = true
	c.explainUsed = false
	c.nextUsed = false
	c.mu.Unlock()

	if err := c.store.Add(ctx, question.ID); err != nil {
		c.log.Warn("answered-id store write failed", logrus.Fields{
			"question_id": question.ID,
			"error":       err.Error(),
		})
	}

	c.events.EvaluationReady(entry)
	c.events.PhaseChanged(domain.PhaseAwaitingQuestion, domain.ReasonAnswerEvaluated)
	c.speaker.Speak(fmt.Sprintf("Feedback, score %d percent. %s Model answer: %s",
		evaluation.Score, evaluation.Feedback, evaluation.ModelAnswer))
	return nil
}

// RequestHint fetches supplementary text for the awaited question. It
// is armed once per question; a failed fetch re-arms it for retry.
func (c *SessionController) RequestHint(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != domain.PhaseAwaitingAnswer {
		c.mu.Unlock()
		return ErrNoAwaitedQuestion
	}
	if c.hintUsed {
		c.mu.Unlock()
		return ErrActionConsumed
	}
	c.hintUsed = true
	question := c.current
	gen := c.generation
	c.mu.Unlock()

	hint, err := c.svc.Hint(ctx, question.Text)
	if err != nil {
		c.rearmHint(gen, question.ID)
		c.log.Error("hint fetch failed", logrus.Fields{"error": err.Error()})
		c.events.SessionError(domain.ErrorCodeSideRequest, "Could not fetch a hint.")
		return fmt.Errorf("fetch hint: %w", err)
	}

	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		return nil
	}

	c.events.HintReady(hint)
	c.speaker.Speak("Hint: " + hint)
	return nil
}

func (c *SessionController) rearmHint(gen uint64, questionID string) {
	c.mu.Lock()
	if gen == c.generation && c.current.ID == questionID {
		c.hintUsed = false
	}
	c.mu.Unlock()
}

// RequestExplanation fetches a deeper dive into the last answered
// question. One-shot per evaluation; a failed fetch re-arms it.
func (c *SessionController) RequestExplanation(ctx context.Context) error {
	c.mu.Lock()
	if !c.haveEval {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.explainUsed {
		c.mu.Unlock()
		return ErrActionConsumed
	}
	c.explainUsed = true
	question := c.answered
	evaluation := c.lastEval
	gen := c.generation
	c.mu.Unlock()

	explanation, err := c.svc.Explanation(ctx, question.Text, evaluation.ModelAnswer)
	if err != nil {
		c.mu.Lock()
		if gen == c.generation && c.answered.ID == question.ID {
			c.explainUsed = false
		}
		c.mu.Unlock()
		c.log.Error("explanation fetch failed", logrus.Fields{"error": err.Error()})
		c.events.SessionError(domain.ErrorCodeSideRequest, "Could not fetch an explanation.")
		return fmt.Errorf("fetch explanation: %w", err)
	}

	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()
	if stale {
		return nil
	}

	c.events.ExplanationReady(explanation)
	c.speaker.Speak("Deeper dive: " + explanation)
	return nil
}

// ToggleRecording starts or stops speech capture for the answer draft.
// Capture may only begin while a question is awaiting an answer.
func (c *SessionController) ToggleRecording(ctx context.Context) error {
	if !c.recognizer.Available() {
		return ErrSpeechUnavailable
	}

	c.mu.Lock()
	if c.recording {
		c.stopRecordingLocked()
		c.mu.Unlock()
		return nil
	}
	if c.phase != domain.PhaseAwaitingAnswer {
		c.mu.Unlock()
		return ErrNoAwaitedQuestion
	}
	gen := c.generation
	c.mu.Unlock()

	// Capture overwrites what was typed so far, as the newest full
	// transcript replaces the draft on every event.
	c.events.AnswerDraft("")

	capture, err := c.recognizer.Start(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrPermissionDenied) {
			c.events.SessionError(domain.ErrorCodeSpeechPermission,
				"Microphone permission was denied. Please allow it in your system settings.")
		} else {
			c.events.SessionError(domain.ErrorCodeSpeechCapture, "Could not start speech capture.")
		}
		c.log.Error("speech capture start failed", logrus.Fields{"error": err.Error()})
		return fmt.Errorf("start speech capture: %w", err)
	}

	c.mu.Lock()
	if gen != c.generation || c.phase != domain.PhaseAwaitingAnswer {
		c.mu.Unlock()
		_ = capture.Stop()
		return nil
	}
	c.capture = capture
	c.recording = true
	c.mu.Unlock()

	c.events.RecordingChanged(true)
	go c.consumeCapture(capture)
	return nil
}

// consumeCapture forwards draft updates until the capture ends, then
// resets the recording flag regardless of how the stream terminated.
func (c *SessionController) consumeCapture(capture ports.CaptureSession) {
	for event := range capture.Events() {
		c.events.AnswerDraft(event.Text)
	}

	c.mu.Lock()
	if c.capture == capture {
		c.capture = nil
		c.recording = false
		c.mu.Unlock()
		c.events.RecordingChanged(false)
		return
	}
	c.mu.Unlock()
}

func (c *SessionController) stopRecordingLocked() {
	if c.capture == nil {
		return
	}
	capture := c.capture
	c.capture = nil
	c.recording = false
	_ = capture.Stop()
	c.events.RecordingChanged(false)
}

// EndInterview terminates the session from either in-session sub-state,
// stops any active capture and synthesis, and computes the summary.
func (c *SessionController) EndInterview() error {
	c.mu.Lock()
	if c.phase != domain.PhaseAwaitingQuestion && c.phase != domain.PhaseAwaitingAnswer {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	c.finishLocked(domain.ReasonInterviewEnded)
	return nil
}

// finishLocked moves to Summary. The caller holds the lock; it is
// released here after the state flips.
func (c *SessionController) finishLocked(reason domain.StateReason) {
	c.generation++
	c.stopRecordingLocked()
	c.phase = domain.PhaseSummary
	c.current = domain.Question{}
	c.asking = false
	summary := c.transcript.Summarize()
	c.mu.Unlock()

	c.speaker.Cancel()
	c.events.SummaryReady(summary)
	c.events.PhaseChanged(domain.PhaseSummary, reason)
	c.speaker.Speak(summarySpeech(summary))
}

// Summary reports the current session's result.
func (c *SessionController) Summary() domain.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Summarize()
}

// Restart returns from Summary to Welcome for another practice run.
func (c *SessionController) Restart() error {
	c.mu.Lock()
	if c.phase != domain.PhaseSummary {
		c.mu.Unlock()
		return ErrNotInSummary
	}
	c.generation++
	c.transcript.Reset()
	c.persona = domain.PersonaNeutral
	c.current = domain.Question{}
	c.answered = domain.Question{}
	c.haveEval = false
	c.hintUsed = false
	c.explainUsed = false
	c.nextUsed = false
	c.phase = domain.PhaseWelcome
	c.mu.Unlock()

	c.events.PhaseChanged(domain.PhaseWelcome, domain.ReasonSessionReset)
	return nil
}

// GenerateReport renders the session transcript as a document via the
// service. Failures re-enable the triggering control on the UI side.
func (c *SessionController) GenerateReport(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	entries := c.transcript.Entries()
	summary := c.transcript.Summarize()
	c.mu.Unlock()

	if len(entries) == 0 {
		return nil, ErrNoActiveSession
	}

	payload, err := c.svc.GenerateReport(ctx, entries, summary)
	if err != nil {
		c.log.Error("report generation failed", logrus.Fields{"error": err.Error()})
		c.events.SessionError(domain.ErrorCodeReport, "Could not download report.")
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return payload, nil
}

func summarySpeech(summary domain.Summary) string {
	if !summary.HasScore {
		return "Interview ended. You didn't answer any questions."
	}
	return fmt.Sprintf("Interview complete! You answered %d question(s) with an average score of %d percent.",
		summary.Answered, summary.AverageScore)
}
