package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/NARAsimha654/MockView-Bot/internal/bootstrap"
	"github.com/NARAsimha654/MockView-Bot/internal/domain"
	"github.com/NARAsimha654/MockView-Bot/internal/usecase"
)

const (
	eventPhase       = "mockview:phase"
	eventQuestion    = "mockview:question"
	eventEvaluation  = "mockview:evaluation"
	eventHint        = "mockview:hint"
	eventExplanation = "mockview:explanation"
	eventDraft       = "mockview:draft"
	eventRecording   = "mockview:recording"
	eventSummary     = "mockview:summary"
	eventError       = "mockview:error"
)

// App is the Wails application root. It binds UI actions to the
// session controller and forwards controller events to the frontend.
type App struct {
	ctx context.Context

	services bootstrap.Services
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.PhaseChanged(domain.PhaseWelcome, domain.ReasonAppReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.services.Store != nil {
		_ = a.services.Store.Close()
	}
	if a.services.Speaker != nil {
		a.services.Speaker.Cancel()
	}
}

// Topics lists the available interview topics.
func (a *App) Topics() ([]string, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Controller.Topics(a.ctx)
}

// SelectPersona records the interviewer style for the next session.
func (a *App) SelectPersona(persona string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Controller.SelectPersona(domain.Persona(persona))
}

// StartInterview begins a topic-based session.
func (a *App) StartInterview(topic string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Controller.StartTopicSession(a.ctx, topic)
}

// StartCustomInterview begins a job-description-derived session.
func (a *App) StartCustomInterview(jobDescription string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Controller.StartCustomSession(a.ctx, jobDescription)
}

// SubmitAnswer evaluates the current answer. Submitting while no
// question is awaited is silently ignored.
func (a *App) SubmitAnswer(answer string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.services.Controller.SubmitAnswer(a.ctx, answer)
	return ignoreNoOp(err)
}

// NextQuestion advances to the next question after feedback.
func (a *App) NextQuestion() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return ignoreNoOp(a.services.Controller.ProceedToNextQuestion(a.ctx))
}

// RequestHint fetches a hint for the awaited question.
func (a *App) RequestHint() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return ignoreNoOp(a.services.Controller.RequestHint(a.ctx))
}

// RequestExplanation fetches a deeper dive into the last answer.
func (a *App) RequestExplanation() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return ignoreNoOp(a.services.Controller.RequestExplanation(a.ctx))
}

// ToggleRecording starts or stops speech capture for the answer draft.
func (a *App) ToggleRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return ignoreNoOp(a.services.Controller.ToggleRecording(a.ctx))
}

// ToggleMute flips speech synthesis and returns the new muted state.
func (a *App) ToggleMute() bool {
	if a.requireReady() != nil {
		return false
	}
	speaker := a.services.Speaker
	speaker.SetMuted(!speaker.Muted())
	return speaker.Muted()
}

// EndInterview terminates the session and shows the summary.
func (a *App) EndInterview() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return ignoreNoOp(a.services.Controller.EndInterview())
}

// Restart returns to the welcome screen for another practice run.
func (a *App) Restart() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return ignoreNoOp(a.services.Controller.Restart())
}

// GetStatus returns the controller's current state.
func (a *App) GetStatus() domain.Status {
	if a.requireReady() != nil {
		return domain.Status{Phase: domain.PhaseWelcome, Persona: domain.PersonaNeutral}
	}
	return a.services.Controller.Status()
}

// GetCapabilities reports which speech directions are usable.
func (a *App) GetCapabilities() domain.Capabilities {
	if a.requireReady() != nil {
		return domain.Capabilities{}
	}
	return a.services.Controller.Capabilities()
}

// GetSummary returns the current session summary.
func (a *App) GetSummary() domain.Summary {
	if a.requireReady() != nil {
		return domain.Summary{}
	}
	return a.services.Controller.Summary()
}

// DownloadReport fetches the session report and saves it where the
// user chooses. An empty path means the dialog was dismissed.
func (a *App) DownloadReport() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}

	payload, err := a.services.Controller.GenerateReport(a.ctx)
	if err != nil {
		return "", err
	}

	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		DefaultFilename: "MockView_Report.pdf",
		Title:           "Save interview report",
	})
	if err != nil {
		return "", fmt.Errorf("choose save location: %w", err)
	}
	if path == "" {
		return "", nil
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		a.SessionError(domain.ErrorCodeReport, "Could not save the report file.")
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.Controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// ignoreNoOp swallows guard rejections: a double submit, a re-fired
// one-shot, or an out-of-phase action is a no-op, not a UI error.
func ignoreNoOp(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrNoAwaitedQuestion),
		errors.Is(err, usecase.ErrEmptyAnswer),
		errors.Is(err, usecase.ErrActionConsumed),
		errors.Is(err, usecase.ErrAskInFlight),
		errors.Is(err, usecase.ErrNoActiveSession):
		return nil
	}
	return err
}

// PhaseChanged emits lifecycle updates to the frontend.
func (a *App) PhaseChanged(phase domain.Phase, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPhase, map[string]string{
		"phase":  string(phase),
		"reason": string(reason),
	})
}

// QuestionPresented emits the newly awaited question.
func (a *App) QuestionPresented(q domain.Question) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventQuestion, q)
}

// EvaluationReady emits the feedback for a submitted answer.
func (a *App) EvaluationReady(entry domain.TranscriptEntry) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventEvaluation, entry)
}

// HintReady emits fetched hint text.
func (a *App) HintReady(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventHint, map[string]string{"text": text})
}

// ExplanationReady emits fetched explanation text.
func (a *App) ExplanationReady(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventExplanation, map[string]string{"text": text})
}

// AnswerDraft emits the current speech-derived answer draft.
func (a *App) AnswerDraft(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDraft, map[string]string{"text": text})
}

// RecordingChanged emits speech capture state.
func (a *App) RecordingChanged(active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecording, map[string]bool{"active": active})
}

// SummaryReady emits the end-of-session summary.
func (a *App) SummaryReady(summary domain.Summary) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSummary, summary)
}

// SessionError emits client errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"title":   errorTitle(code),
		"message": detail,
	})
}

func errorTitle(code domain.ErrorCode) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeBootstrap:
		return "Could not start interview"
	case domain.ErrorCodeQuestionFetch:
		return "Question unavailable"
	case domain.ErrorCodeSubmission:
		return "Evaluation failed"
	case domain.ErrorCodeSideRequest:
		return "Request failed"
	case domain.ErrorCodeSpeechPermission:
		return "Microphone blocked"
	case domain.ErrorCodeSpeechCapture:
		return "Speech capture issue"
	case domain.ErrorCodeReport:
		return "Report failed"
	default:
		return "Unexpected error"
	}
}
