package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration constants
var (
	// CamaraAPIBaseURL is the base URL for the Chamber's open-data API
	CamaraAPIBaseURL = "https://dadosabertos.camara.leg.br/api/v2"

	// CamaraSiteBaseURL is the base URL for the Chamber's public website (scraped pages)
	CamaraSiteBaseURL = "https://www.camara.leg.br"

	// PlenarioOrgaoID is the organ code of the plenary, used on the highlights page
	// and to filter event listings
	PlenarioOrgaoID = "180"

	// DatabasePath is the SQLite file holding notes and cached agendas
	DatabasePath = "pauta.db"

	// LLMAPIKey is the API key for the analysis model endpoint
	LLMAPIKey string

	// LLMAPIURL is the chat-completions endpoint used for bill analysis
	LLMAPIURL = "https://openrouter.ai/api/v1/chat/completions"

	// LLMModel is the model used for the partisan policy analysis
	LLMModel = "openai/gpt-5"

	// Timeout constants
	APIRequestTimeout  = 8 * time.Second
	PageFetchTimeout   = 10 * time.Second
	PDFDownloadTimeout = 25 * time.Second
	AnalysisTimeout    = 120 * time.Second

	// PautaCacheTTL is the time-to-live for the in-memory agenda cache
	PautaCacheTTL = 5 * time.Minute

	// CORS allowed origins (configurable via environment)
	// In development (empty/default), allows any localhost port
	// In production, set CORS_ALLOWED_ORIGINS environment variable
	CORSAllowedOrigins = []string{}

	// MaxRequestBodySize is the maximum allowed request body size (1MB)
	MaxRequestBodySize int64 = 1 << 20
)

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Load .env file - try multiple locations
	envLocations := []string{
		".env",    // Current directory
		"../.env", // Parent directory
	}

	envLoaded := false
	for _, envPath := range envLocations {
		absPath, err := filepath.Abs(envPath)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			if err := godotenv.Load(absPath); err == nil {
				log.Printf("Loaded .env from: %s", absPath)
				envLoaded = true
				break
			}
		}
	}

	if !envLoaded {
		log.Printf("Warning: .env file not found in any expected location")
	}

	// Analysis is an optional feature; the agenda pipeline works without a key
	LLMAPIKey = os.Getenv("LLM_API_KEY")
	if LLMAPIKey == "" {
		log.Println("Warning: LLM_API_KEY not set, bill analysis endpoint disabled")
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		LLMModel = v
	}

	if v := os.Getenv("PAUTA_DB_PATH"); v != "" {
		DatabasePath = v
	}

	// Load CORS origins from environment if provided, comma-separated so
	// scheme and port colons survive
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		CORSAllowedOrigins = []string{}
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				CORSAllowedOrigins = append(CORSAllowedOrigins, origin)
			}
		}
	}

	log.Println("Configuration loaded successfully")
}
