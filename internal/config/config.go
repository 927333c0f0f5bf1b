package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Port           int
	MediaPath      string // sign asset directory
	DataPath       string
	DBPath         string
	OutputPath     string
	UploadPath     string
	ProbeCachePath string
	JWTSecret      string
	AdminUsername  string
	AdminPassword  string
	CORSOrigins    []string

	WhisperURL    string
	OpenAIKey     string
	Recognizer    string // default engine name, "" = first configured
	Language      string
	FrameWidth    int
	FrameHeight   int
	FrameRate     int
	UploadsPerMin int
}

func Load() *Config {
	dataPath := getEnv("DATA_PATH", "/data")

	return &Config{
		Port:           getEnvInt("PORT", 8080),
		MediaPath:      getEnv("MEDIA_PATH", "/media"),
		DataPath:       dataPath,
		DBPath:         getEnv("DB_PATH", filepath.Join(dataPath, "signreel.db")),
		OutputPath:     getEnv("OUTPUT_PATH", filepath.Join(dataPath, "renders")),
		UploadPath:     getEnv("UPLOAD_PATH", filepath.Join(dataPath, "uploads")),
		ProbeCachePath: getEnv("PROBE_CACHE_PATH", filepath.Join(dataPath, "probes.db")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:    parseOrigins(os.Getenv("CORS_ORIGINS")),

		WhisperURL:    os.Getenv("WHISPER_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		Recognizer:    os.Getenv("RECOGNIZER"),
		Language:      getEnv("LANGUAGE", "en"),
		FrameWidth:    getEnvInt("FRAME_WIDTH", 640),
		FrameHeight:   getEnvInt("FRAME_HEIGHT", 480),
		FrameRate:     getEnvInt("FRAME_RATE", 25),
		UploadsPerMin: getEnvInt("UPLOAD_RATE_PER_MIN", 10),
	}
}

// EnsureJWTSecret generates a random secret when JWT_SECRET is unset. Only the
// HTTP server needs one.
func (c *Config) EnsureJWTSecret() {
	if c.JWTSecret != "" {
		return
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate random JWT secret: %v", err)
	}
	c.JWTSecret = hex.EncodeToString(b)
	log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
}

// CORS origins: comma-separated list or "*" (default)
func parseOrigins(v string) []string {
	if v == "" {
		return []string{"*"}
	}
	parts := strings.Split(v, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
