package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	VideoRoot string `env:"FRAMELENS_VIDEO_ROOT,required"`
	CachePath string `env:"FRAMELENS_CACHE_PATH" envDefault:""`
	DebugDir  string `env:"FRAMELENS_DEBUG_DIR"  envDefault:""`
	DebugAll  bool   `env:"FRAMELENS_DEBUG"      envDefault:"false"`

	HTTPPort    int `env:"FRAMELENS_HTTP_PORT"    envDefault:"8080"`
	MetricsPort int `env:"FRAMELENS_METRICS_PORT" envDefault:"8083"`

	// Change-signal decoding cadence and resolution.
	AnalysisFPSCap float64 `env:"FRAMELENS_ANALYSIS_FPS_CAP" envDefault:"30"`
	AnalysisWidth  int     `env:"FRAMELENS_ANALYSIS_WIDTH"   envDefault:"160"`

	FFmpegPath  string `env:"FRAMELENS_FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FRAMELENS_FFPROBE_PATH" envDefault:"ffprobe"`

	// Remote transcription backend (whisper-compatible). Empty key disables
	// transcription.
	TranscribeURL   string `env:"FRAMELENS_TRANSCRIBE_URL"   envDefault:"https://api.groq.com/openai/v1/audio/transcriptions"`
	TranscribeKey   string `env:"FRAMELENS_TRANSCRIBE_KEY"   envDefault:""`
	TranscribeModel string `env:"FRAMELENS_TRANSCRIBE_MODEL" envDefault:"whisper-large-v3-turbo"`

	// Optional object-store sink for debug artifacts. Empty endpoint keeps
	// artifacts on the local filesystem.
	MinIOEndpoint  string `env:"FRAMELENS_MINIO_ENDPOINT"   envDefault:""`
	MinIOAccessKey string `env:"FRAMELENS_MINIO_ACCESS_KEY" envDefault:""`
	MinIOSecretKey string `env:"FRAMELENS_MINIO_SECRET_KEY" envDefault:""`
	MinIOUseSSL    bool   `env:"FRAMELENS_MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"FRAMELENS_MINIO_BUCKET"     envDefault:"framelens-debug"`

	OTLPEndpoint string `env:"FRAMELENS_OTLP_ENDPOINT" envDefault:""`
	LogLevel     string `env:"LOG_LEVEL"               envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
