package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/menta2k/chart-watch/pkg/provider"
)

// credentialEnv maps provider identifiers to their environment variables.
var credentialEnv = map[string]string{
	provider.OpenAI:     "OPENAI_API_KEY",
	provider.Claude:     "ANTHROPIC_API_KEY",
	provider.Perplexity: "PERPLEXITY_API_KEY",
	provider.Gemini:     "GEMINI_API_KEY",
}

// LoadCredentials reads provider secrets from the environment, optionally
// seeding it from a .env file first. A missing .env file is not an error;
// a provider with no secret is simply absent from the map.
func LoadCredentials(envFile string) map[string]string {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	creds := map[string]string{}
	for id, envVar := range credentialEnv {
		if v := os.Getenv(envVar); v != "" {
			creds[id] = v
		}
	}
	return creds
}
