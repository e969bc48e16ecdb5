package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	Port            string
	MongoURI        string
	APIBaseURL      string
	LogLevel        string
	PrettyLog       bool
	BridgeTimeout   time.Duration
	BrowserFallback bool
)

// LoadConfig loads environment variables from a .env file when present.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	// Empty means the in-memory store; set to e.g. mongodb://localhost:27017/
	// for durable storage.
	MongoURI = os.Getenv("MONGO_URI")

	APIBaseURL = os.Getenv("API_BASE_URL")
	if APIBaseURL == "" {
		APIBaseURL = "http://localhost:" + Port
	}

	LogLevel = os.Getenv("LOG_LEVEL")
	if LogLevel == "" {
		LogLevel = "info"
	}

	PrettyLog = getBool("PRETTY_LOG", true)
	BridgeTimeout = getDuration("BRIDGE_TIMEOUT", 10*time.Second)
	BrowserFallback = getBool("BROWSER_FALLBACK", false)
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
