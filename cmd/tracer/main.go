package main

import (
	"log"
	"os"
	"strconv"

	"github.com/rawblock/tornado-tracer/internal/api"
	"github.com/rawblock/tornado-tracer/internal/bitquery"
	"github.com/rawblock/tornado-tracer/internal/config"
)

func main() {
	log.Println("Starting Tornado Tracer (mixer deposit/withdrawal reconciliation)...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. Use a .env file for local
	// development: cp .env.example .env && edit .env
	// ────────────────────────────────────────────────────────────────────

	oauthToken := requireEnv("BITQUERY_OAUTH_TOKEN")
	apiURL := getEnvOrDefault("BITQUERY_API_URL", bitquery.DefaultAPIURL)

	source := bitquery.NewClient(oauthToken, apiURL)
	pools := config.NewPoolRegistry()

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	// Every fetch route spends Bitquery credits, so the limiter defaults
	// are deliberately tight.
	ratePerMin := getEnvIntOrDefault("API_RATE_PER_MIN", 30)
	burst := getEnvIntOrDefault("API_RATE_BURST", 10)
	limiter := api.NewRateLimiter(ratePerMin, burst)

	r := api.SetupRouter(source, pools, wsHub, limiter)

	port := getEnvOrDefault("PORT", "5000")

	log.Printf("Tracer running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
// This prevents the binary from starting with missing critical configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using default %d", key, val, fallback)
	}
	return fallback
}
