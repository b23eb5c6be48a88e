package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Config stores runtime configuration for the desktop client.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Store   StoreConfig   `yaml:"store"`
	Speech  SpeechConfig  `yaml:"speech"`
	Log     LogConfig     `yaml:"log"`
}

// ServiceConfig points at the remote interview backend.
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UnmarshalYAML accepts the timeout in time.ParseDuration notation.
func (c *ServiceConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.BaseURL != "" {
		c.BaseURL = raw.BaseURL
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("parse service timeout %q: %w", raw.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// StoreConfig locates the durable answered-ids database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SpeechConfig covers both speech directions.
type SpeechConfig struct {
	Deepgram DeepgramConfig `yaml:"deepgram"`
	Audio    AudioConfig    `yaml:"audio"`
	TTS      TTSConfig      `yaml:"tts"`
}

// DeepgramConfig controls the streaming speech-to-text provider.
type DeepgramConfig struct {
	APIKey     string `yaml:"api_key"`
	APIBaseURL string `yaml:"api_base_url"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
}

// AudioConfig describes how the microphone is captured.
type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	ChunkSize       int    `yaml:"chunk_size"`
}

// TTSConfig names the local synthesis command.
type TTSConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load resolves configuration from an optional YAML file, a .env file,
// environment variables, and defaults, in increasing precedence.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("MOCKVIEW_CONFIG"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Store.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, errors.New("could not determine user config directory")
		}
		cfg.Store.Path = filepath.Join(dir, "mockview", "mockview.db")
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Service: ServiceConfig{
			BaseURL: "http://127.0.0.1:5001",
			Timeout: 30 * time.Second,
		},
		Speech: SpeechConfig{
			Deepgram: DeepgramConfig{
				APIBaseURL: "https://api.deepgram.com/v1",
				Model:      "nova-2",
			},
			Audio: AudioConfig{
				RecorderCommand: "ffmpeg",
				InputFormat:     "pulse",
				InputDevice:     "default",
				SampleRate:      16000,
				Channels:        1,
				ChunkSize:       4096,
			},
			TTS: TTSConfig{
				Command: defaultTTSCommand(),
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Service.BaseURL = envOrDefault("MOCKVIEW_SERVICE_URL", cfg.Service.BaseURL)
	if ms := envOrDefaultInt("MOCKVIEW_SERVICE_TIMEOUT_MS", 0); ms > 0 {
		cfg.Service.Timeout = time.Duration(ms) * time.Millisecond
	}
	cfg.Store.Path = envOrDefault("MOCKVIEW_STORE_PATH", cfg.Store.Path)

	cfg.Speech.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Speech.Deepgram.APIKey)
	cfg.Speech.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Speech.Deepgram.APIBaseURL)
	cfg.Speech.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Speech.Deepgram.Model)
	cfg.Speech.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Speech.Deepgram.Language)

	cfg.Speech.Audio.RecorderCommand = envOrDefault("MOCKVIEW_FFMPEG_COMMAND", cfg.Speech.Audio.RecorderCommand)
	cfg.Speech.Audio.InputFormat = envOrDefault("MOCKVIEW_AUDIO_INPUT_FORMAT", cfg.Speech.Audio.InputFormat)
	cfg.Speech.Audio.InputDevice = envOrDefault("MOCKVIEW_AUDIO_INPUT_DEVICE", cfg.Speech.Audio.InputDevice)
	cfg.Speech.Audio.SampleRate = envOrDefaultInt("MOCKVIEW_SAMPLE_RATE", cfg.Speech.Audio.SampleRate)
	cfg.Speech.Audio.Channels = envOrDefaultInt("MOCKVIEW_CHANNELS", cfg.Speech.Audio.Channels)
	cfg.Speech.Audio.ChunkSize = envOrDefaultInt("MOCKVIEW_AUDIO_CHUNK_SIZE", cfg.Speech.Audio.ChunkSize)

	cfg.Speech.TTS.Command = envOrDefault("MOCKVIEW_TTS_COMMAND", cfg.Speech.TTS.Command)

	cfg.Log.Level = envOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.JSON = envOrDefaultBool("LOG_JSON", cfg.Log.JSON)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Service.BaseURL) == "" {
		return errors.New("service base_url must not be empty")
	}
	if cfg.Service.Timeout <= 0 {
		return errors.New("service timeout must be positive")
	}
	if cfg.Speech.Audio.SampleRate <= 0 {
		return errors.New("audio sample_rate must be positive")
	}
	if cfg.Speech.Audio.Channels <= 0 {
		return errors.New("audio channels must be positive")
	}
	if cfg.Speech.Audio.ChunkSize < 256 {
		return errors.New("audio chunk_size must be at least 256")
	}
	return nil
}

func defaultTTSCommand() string {
	// macOS ships `say`; most Linux desktops have espeak or espeak-ng.
	for _, candidate := range []string{"say", "espeak-ng", "espeak"} {
		if hasCommand(candidate) {
			return candidate
		}
	}
	return "espeak"
}

func hasCommand(name string) bool {
	path, err := lookPath(name)
	return err == nil && path != ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
