package openai

// Config contains OpenAI backend configuration. Fields map to SDK request
// options; Timeout is per request, in seconds, and covers a whole PDF upload.
// OrgID and ProjectID attribute spend to an organization or project.
type Config struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	BaseURL    string `env:"OPENAI_BASE_URL"    envDefault:"https://api.openai.com/v1"`
	OrgID      string `env:"OPENAI_ORG_ID"`
	ProjectID  string `env:"OPENAI_PROJECT_ID"`
	Timeout    int    `env:"OPENAI_TIMEOUT"     envDefault:"120"`
	MaxRetries int    `env:"OPENAI_MAX_RETRIES" envDefault:"3"`
}

// Enabled reports whether an API key is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.APIKey != ""
}
