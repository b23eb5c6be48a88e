package bootstrap

import (
	"github.com/NARAsimha654/MockView-Bot/internal/audio"
	"github.com/NARAsimha654/MockView-Bot/internal/config"
	"github.com/NARAsimha654/MockView-Bot/internal/gateway"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
	"github.com/NARAsimha654/MockView-Bot/internal/ports"
	"github.com/NARAsimha654/MockView-Bot/internal/providers/deepgram"
	"github.com/NARAsimha654/MockView-Bot/internal/speech"
	"github.com/NARAsimha654/MockView-Bot/internal/store"
	"github.com/NARAsimha654/MockView-Bot/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Speaker    ports.Speaker
	Store      *store.Store
	Config     config.Config
	Log        *logger.Logger
}

// Build wires all client dependencies for the current runtime.
func Build(events ports.EventSink) (Services, error) {
	cfg, err := config.Load("")
	if err != nil {
		return Services{}, err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)

	answered, err := store.New(cfg.Store.Path)
	if err != nil {
		return Services{}, err
	}

	svc, err := gateway.New(cfg.Service.BaseURL, cfg.Service.Timeout, log)
	if err != nil {
		_ = answered.Close()
		return Services{}, err
	}

	recognizer := speech.NewRecognizer(
		audio.NewMicCapture(cfg.Speech.Audio.RecorderCommand),
		deepgram.NewProvider(cfg.Speech.Deepgram),
		cfg.Speech,
		log,
	)
	speaker := speech.NewCommandSpeaker(cfg.Speech.TTS, log)

	controller := usecase.NewSessionController(svc, answered, recognizer, speaker, events, log)

	return Services{
		Controller: controller,
		Speaker:    speaker,
		Store:      answered,
		Config:     cfg,
		Log:        log,
	}, nil
}
