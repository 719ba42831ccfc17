package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"passage/cmd/internal/auth/session"
	"passage/cmd/internal/avatar"
	"passage/cmd/internal/mail"
	"passage/cmd/security/password"
)

// Config contains all runtime configuration. Values come from an optional
// config file and PASSAGE_-prefixed environment variables, env winning.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	LogLevel string `mapstructure:"log_level"`
	// LogFormat selects "json" or "pretty" (human-readable dev output).
	LogFormat string `mapstructure:"log_format"`

	ReadHeaderTimeout time.Duration `mapstructure:"http_read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"http_read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"http_write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"http_idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"http_max_header_bytes"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	// DatabaseURL empty selects the in-memory dev stores.
	DatabaseURL string `mapstructure:"database_url"`
	DBMaxConns  int32  `mapstructure:"db_max_conns"`
	DBMinConns  int32  `mapstructure:"db_min_conns"`

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool `mapstructure:"readiness_require_db"`

	TokenWindow     time.Duration `mapstructure:"token_window"`
	TokenLength     int           `mapstructure:"token_length"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	SweepStaleAfter time.Duration `mapstructure:"sweep_stale_after"`

	PasswordMemoryKiB   uint32 `mapstructure:"password_memory_kib"`
	PasswordIterations  uint32 `mapstructure:"password_iterations"`
	PasswordParallelism uint8  `mapstructure:"password_parallelism"`

	// SMTPHost empty selects the no-op mail sender (dev mode).
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	MailFrom     string `mapstructure:"mail_from"`
	// MailBaseURL is the public frontend origin embedded in activation and
	// reset links.
	MailBaseURL string `mapstructure:"mail_base_url"`

	AvatarBackend string `mapstructure:"avatar_backend"` // "disk" or "s3"
	AvatarDir     string `mapstructure:"avatar_dir"`

	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3Region          string `mapstructure:"s3_region"`
	S3Bucket          string `mapstructure:"s3_bucket"`
	S3Prefix          string `mapstructure:"s3_prefix"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
}

// LoadConfig reads configuration from the given file (optional, "" skips the
// file entirely) and the environment.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", "0.0.0.0:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("http_read_header_timeout", 5*time.Second)
	v.SetDefault("http_read_timeout", 15*time.Second)
	v.SetDefault("http_write_timeout", 15*time.Second)
	v.SetDefault("http_idle_timeout", 60*time.Second)
	v.SetDefault("http_max_header_bytes", 1<<20)

	v.SetDefault("cors_allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("database_url", "")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("db_min_conns", 0)
	v.SetDefault("readiness_require_db", false)

	sess := session.DefaultConfig()
	v.SetDefault("token_window", sess.Window)
	v.SetDefault("token_length", sess.TokenLength)
	v.SetDefault("sweep_interval", sess.SweepInterval)
	v.SetDefault("sweep_stale_after", sess.SweepStaleAfter)

	hash := password.DefaultParams()
	v.SetDefault("password_memory_kib", hash.MemoryKiB)
	v.SetDefault("password_iterations", hash.Iterations)
	v.SetDefault("password_parallelism", hash.Parallelism)

	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("mail_from", "Passage <info@passage.local>")
	v.SetDefault("mail_base_url", "http://localhost:8080")

	v.SetDefault("avatar_backend", "disk")
	v.SetDefault("avatar_dir", "uploads/profile")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "profile")
	v.SetDefault("s3_access_key_id", "")
	v.SetDefault("s3_secret_access_key", "")

	v.SetEnvPrefix("PASSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: http_addr is required")
	}
	switch c.LogFormat {
	case "json", "pretty":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	switch c.AvatarBackend {
	case "disk":
	case "s3":
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("config: s3 avatar backend requires s3_bucket and s3_region")
		}
	default:
		return fmt.Errorf("config: unknown avatar_backend %q", c.AvatarBackend)
	}
	if c.SMTPHost != "" && c.MailBaseURL == "" {
		return errors.New("config: mail_base_url is required when smtp_host is set")
	}
	// Session-level constraints are re-checked by session.Config.
	return nil
}

// SessionConfig maps runtime settings onto the session subsystem's config.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Window:          c.TokenWindow,
		TokenLength:     c.TokenLength,
		SweepInterval:   c.SweepInterval,
		SweepStaleAfter: c.SweepStaleAfter,
	}
}

// PasswordParams maps runtime settings onto Argon2id parameters, keeping the
// default salt and key sizes.
func (c Config) PasswordParams() password.Params {
	p := password.DefaultParams()
	if c.PasswordMemoryKiB > 0 {
		p.MemoryKiB = c.PasswordMemoryKiB
	}
	if c.PasswordIterations > 0 {
		p.Iterations = c.PasswordIterations
	}
	if c.PasswordParallelism > 0 {
		p.Parallelism = c.PasswordParallelism
	}
	return p
}

// MailConfig maps runtime settings onto the SMTP sender config.
func (c Config) MailConfig() mail.Config {
	return mail.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		BaseURL:  c.MailBaseURL,
	}
}

// S3Config maps runtime settings onto the S3 avatar store config.
func (c Config) S3Config() avatar.S3Config {
	return avatar.S3Config{
		Endpoint:        c.S3Endpoint,
		Region:          c.S3Region,
		Bucket:          c.S3Bucket,
		Prefix:          c.S3Prefix,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
	}
}
