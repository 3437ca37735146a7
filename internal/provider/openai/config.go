package openai

// Config contains the OpenAI-compatible provider configuration.
// Timeout applies per individual call attempt, not cumulatively across retries.
type Config struct {
	APIKey           string `env:"OPENAI_API_KEY"`
	BaseURL          string `env:"OPENAI_BASE_URL"             envDefault:"https://api.openai.com/v1"`
	Model            string `env:"OPENAI_MODEL"                envDefault:"gpt-4o-mini"`
	Timeout          int    `env:"OPENAI_TIMEOUT"              envDefault:"60"`
	MaxRetries       int    `env:"OPENAI_MAX_RETRIES"          envDefault:"2"`
	RetryBaseDelayMS int    `env:"OPENAI_RETRY_BASE_DELAY_MS"  envDefault:"500"`
}
