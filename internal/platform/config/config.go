package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"booking_flow"`

	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	ProfileTTL    time.Duration `env:"PROFILE_TTL" envDefault:"24h"`

	BackendBaseURL  string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:4000"`
	BackendAPIToken string        `env:"BACKEND_API_TOKEN"`
	BackendTimeout  time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	ClientSchedulingLink string   `env:"CLIENT_SCHEDULING_LINK,required"`
	TalentSchedulingLink string   `env:"TALENT_SCHEDULING_LINK,required"`
	ProviderOrigins      []string `env:"PROVIDER_ORIGINS" envSeparator:"," envDefault:"https://app.cal.com,https://cal.com"`
	ProviderFrameBaseURL string   `env:"PROVIDER_FRAME_BASE_URL" envDefault:"https://cal.com"`
	ProviderScriptURL    string   `env:"PROVIDER_SCRIPT_URL" envDefault:"https://app.cal.com/embed/embed.js"`
	WidgetNamespace      string   `env:"WIDGET_NAMESPACE" envDefault:"booking"`

	WidgetSettleDelay time.Duration `env:"WIDGET_SETTLE_DELAY" envDefault:"500ms"`

	ProductionOrigin string `env:"PRODUCTION_ORIGIN" envDefault:"https://www.example.com"`
	WrongHost        string `env:"WRONG_HOST" envDefault:"localhost:3000"`

	DashboardPath     string        `env:"DASHBOARD_PATH" envDefault:"/client/dashboard"`
	CountdownTicks    int           `env:"COUNTDOWN_TICKS" envDefault:"2"`
	CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"1s"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	CleanupInterval   time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`

	MessageRateLimit float64       `env:"MESSAGE_RATE_LIMIT" envDefault:"5"`
	MessageRateBurst int           `env:"MESSAGE_RATE_BURST" envDefault:"10"`
	PageRateLimit    float64       `env:"PAGE_RATE_LIMIT" envDefault:"1"`
	PageRateBurst    int           `env:"PAGE_RATE_BURST" envDefault:"20"`
	RateLimitIdleTTL time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
}

// Load reads an optional env file and then parses the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if len(c.ProviderOrigins) == 0 {
		return errors.New("config: PROVIDER_ORIGINS must list at least one origin")
	}
	if c.CountdownTicks <= 0 {
		return fmt.Errorf("config: COUNTDOWN_TICKS must be positive, got %d", c.CountdownTicks)
	}
	if c.CountdownInterval <= 0 {
		return errors.New("config: COUNTDOWN_INTERVAL must be positive")
	}
	if c.CleanupInterval <= 0 {
		return errors.New("config: CLEANUP_INTERVAL must be positive")
	}
	return nil
}
