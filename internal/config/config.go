package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MailTransportLog      = "log"
	MailTransportSMTP     = "smtp"
	MailTransportRabbitMQ = "rabbitmq"

	// MemoryDBAddr selects the in-process store instead of Postgres.
	MemoryDBAddr = "memory://"
)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	MaxBodyBytes     int64
	CORSOrigins      []string

	//Auth / Security
	JWTSecret   string
	JWTIssuer   string
	SessionTTL  time.Duration
	BcryptCost  int
	LockoutMax  int
	LockoutTime time.Duration

	// One-time secrets
	TokenTTL        time.Duration // verification + reset tokens
	VerifyCodeTTL   time.Duration // 0 = code never expires
	FrontendBaseURL string

	// Infrastructure
	DBAddr        string
	DBDebug       bool
	RedisAddr     string // empty disables rate limiting
	RedisPassword string
	RedisDB       int

	// Rate limits (fixed window, per client IP)
	RLGlobalLimit  int
	RLGlobalWindow time.Duration
	RLAuthLimit    int
	RLAuthWindow   time.Duration

	// Mail
	MailTransport   string
	MailSendTimeout time.Duration
	MailFromName    string
	SMTPHost        string
	SMTPPort        int
	SMTPEmail       string
	SMTPPassword    string
	RabbitURL       string
	RabbitExchange  string

	// Avatar storage; empty bucket disables uploads
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
	S3UsePathStyle    bool
	CDNBaseURL        string

	// Dev seed
	SeedAdminEmail    string
	SeedAdminPassword string
}

func (c *Config) IsDev() bool { return c.Env == "dev" }

func (c *Config) UseMemoryStore() bool { return c.DBAddr == MemoryDBAddr }

// Load reads the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load()
}

func load() (*Config, error) {
	var err error
	cfg := &Config{
		Env:             getEnv("ENV", "dev"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		JWTIssuer:       getEnv("JWT_ISSUER", "account-service"),
		FrontendBaseURL: strings.TrimRight(getEnv("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MailTransport:   strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportLog)),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Account Service"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPEmail:       os.Getenv("SMTP_EMAIL"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		RabbitURL:       os.Getenv("RABBIT_URL"),
		RabbitExchange:  getEnv("RABBIT_EXCHANGE", "account.events"),

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		CDNBaseURL:        os.Getenv("CDN_BASE_URL"),

		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}
	if cfg.UseMemoryStore() && !cfg.IsDev() {
		return nil, fmt.Errorf("DB_ADDR=%s is only allowed with ENV=dev", MemoryDBAddr)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"HTTP_READ_TIMEOUT", 10 * time.Second, &cfg.HTTPReadTimeout},
		{"HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.HTTPWriteTimeout},
		{"HTTP_IDLE_TIMEOUT", time.Minute, &cfg.HTTPIdleTimeout},
		{"SESSION_TTL", time.Hour, &cfg.SessionTTL},
		{"TOKEN_TTL", 10 * time.Minute, &cfg.TokenTTL},
		{"VERIFY_CODE_TTL", 24 * time.Hour, &cfg.VerifyCodeTTL},
		{"LOCKOUT_DURATION", time.Minute, &cfg.LockoutTime},
		{"RL_GLOBAL_WINDOW", 10 * time.Minute, &cfg.RLGlobalWindow},
		{"RL_AUTH_WINDOW", time.Minute, &cfg.RLAuthWindow},
		{"MAIL_SEND_TIMEOUT", 10 * time.Second, &cfg.MailSendTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"BCRYPT_COST", 10, &cfg.BcryptCost},
		{"LOCKOUT_MAX_ATTEMPTS", 3, &cfg.LockoutMax},
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"RL_GLOBAL_LIMIT", 100, &cfg.RLGlobalLimit},
		{"RL_AUTH_LIMIT", 10, &cfg.RLAuthLimit},
		{"SMTP_PORT", 587, &cfg.SMTPPort},
	}
	for _, i := range ints {
		if *i.dst, err = getInt(i.key, i.def); err != nil {
			return nil, err
		}
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}

	maxBody, err := getInt("MAX_BODY_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.S3UsePathStyle, err = getBool("S3_USE_PATH_STYLE", true); err != nil {
		return nil, err
	}

	cfg.CORSOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", cfg.FrontendBaseURL))

	switch cfg.MailTransport {
	case MailTransportLog:
		// the log mailer writes live reset and verification links
		if !cfg.IsDev() {
			return nil, fmt.Errorf("MAIL_TRANSPORT=%s is only allowed with ENV=dev", MailTransportLog)
		}
	case MailTransportSMTP:
		if cfg.SMTPHost == "" || cfg.SMTPEmail == "" || cfg.SMTPPassword == "" {
			return nil, fmt.Errorf("MAIL_TRANSPORT=smtp requires SMTP_HOST, SMTP_EMAIL and SMTP_PASSWORD")
		}
	case MailTransportRabbitMQ:
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("MAIL_TRANSPORT=rabbitmq requires RABBIT_URL")
		}
	default:
		return nil, fmt.Errorf("invalid MAIL_TRANSPORT %q (want log, smtp or rabbitmq)", cfg.MailTransport)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q: %w", key, v, err)
	}
	return i, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
