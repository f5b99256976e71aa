package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type StorageBackend string

const (
	StorageMemory    StorageBackend = "memory"
	StorageSQLite    StorageBackend = "sqlite"
	StorageFirestore StorageBackend = "firestore"
)

type CameraBackend string

const (
	CameraSynthetic CameraBackend = "synthetic"
	CameraFFmpeg    CameraBackend = "ffmpeg"
)

type VisionBackend string

const (
	VisionHTTP   VisionBackend = "http"
	VisionGemini VisionBackend = "gemini"
)

type Config struct {
	APIBaseURL string
	Port       string

	StorageBackend StorageBackend
	StoragePath    string // sqlite file
	GCPProjectID   string

	// FirestoreNamespace prefixes document ids in the shared collection.
	FirestoreNamespace string

	Camera      CameraBackend
	FrontDevice string
	BackDevice  string

	Vision       VisionBackend
	GoogleAPIKey string
	ModelName    string

	TTSVoice string

	// WideColumns is the terminal width above which submitting returns focus to the composer.
	WideColumns int

	LogFile string
	Debug   bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// LoadDotEnv loads .env.local and .env into the environment when present.
// Variables already set win.
func LoadDotEnv() {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// Load reads all env vars and builds the config
func Load() (*Config, error) {
	wide, err := getIntEnv("VITALITO_WIDE_COLUMNS", 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL: strings.TrimRight(getEnv("VITALITO_API_BASE_URL", "http://localhost:8000"), "/"),
		Port:       getEnv("VITALITO_PORT", "8000"),

		StorageBackend: StorageBackend(getEnv("VITALITO_STORAGE_BACKEND", string(StorageSQLite))),
		StoragePath:    getEnv("VITALITO_STORAGE_PATH", "vitalito.db"),
		GCPProjectID:   getEnv("VITALITO_GCP_PROJECT", ""),

		FirestoreNamespace: getEnv("VITALITO_FIRESTORE_NAMESPACE", ""),

		Camera:      CameraBackend(getEnv("VITALITO_CAMERA", string(CameraSynthetic))),
		FrontDevice: getEnv("VITALITO_CAMERA_FRONT", "/dev/video0"),
		BackDevice:  getEnv("VITALITO_CAMERA_BACK", "/dev/video1"),

		Vision:       VisionBackend(getEnv("VITALITO_VISION_BACKEND", string(VisionHTTP))),
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
		ModelName:    getEnv("VITALITO_MODEL_NAME", "gemini-2.5-flash"),

		TTSVoice: getEnv("VITALITO_TTS_VOICE", "es-ES-ElviraNeural"),

		WideColumns: wide,

		LogFile: getEnv("VITALITO_LOG_FILE", "vitalito.log"),
		Debug:   getBoolEnv("VITALITO_DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum values and backend-specific requirements.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("VITALITO_GCP_PROJECT must be set for the firestore storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.Camera {
	case CameraSynthetic, CameraFFmpeg:
	default:
		return fmt.Errorf("unknown camera backend %q", c.Camera)
	}

	switch c.Vision {
	case VisionHTTP:
	case VisionGemini:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY must be set for the gemini vision backend")
		}
	default:
		return fmt.Errorf("unknown vision backend %q", c.Vision)
	}

	if c.WideColumns <= 0 {
		return fmt.Errorf("VITALITO_WIDE_COLUMNS must be positive")
	}
	return nil
}
