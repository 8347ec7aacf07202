package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	// PublicURL is where this dashboard is reachable; password reset links land on it.
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8080"`

	Supabase   SupabaseConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Session    SessionConfig
	Polling    PollingConfig
	Chat       ChatConfig
	Dispatcher DispatcherConfig
}

type SupabaseConfig struct {
	URL            string        `env:"SUPABASE_URL, required"`
	AnonKey        string        `env:"SUPABASE_ANON_KEY, required"`
	Timeout        time.Duration `env:"SUPABASE_TIMEOUT, default=15s"`
	Heartbeat      time.Duration `env:"REALTIME_HEARTBEAT, default=25s"`
	ReconnectDelay time.Duration `env:"REALTIME_RECONNECT_DELAY, default=5s"`
}

type MongoConfig struct {
	URI        string        `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database   string        `env:"MONGO_DB,  default=drbrain"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=720h"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR, default=localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB,   default=0"`
	ProfileTTL time.Duration `env:"PROFILE_CACHE_TTL, default=5m"`
}

type SessionConfig struct {
	CookieName    string        `env:"SESSION_COOKIE, default=drbrain_session"`
	SecureCookie  bool          `env:"SESSION_COOKIE_SECURE, default=false"`
	RefreshMargin time.Duration `env:"SESSION_REFRESH_MARGIN, default=1m"`
}

type PollingConfig struct {
	WhatsApp time.Duration `env:"WHATSAPP_POLL_INTERVAL, default=3s"`
	Calendar time.Duration `env:"CALENDAR_POLL_INTERVAL, default=5s"`
}

type ChatConfig struct {
	CompletionDelay time.Duration `env:"ONBOARDING_COMPLETION_DELAY, default=2s"`
	MaxAudioBytes   int           `env:"CHAT_MAX_AUDIO_BYTES, default=10485760"`
}

type DispatcherConfig struct {
	Workers int `env:"NOTIFICATION_WORKERS, default=8"`
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Process reads configuration from l using go-envconfig. Missing backend
// credentials are an error.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
