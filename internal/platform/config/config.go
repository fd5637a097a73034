package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingPublicKey = errors.New("DISCORD_PUBLIC_KEY is not set")
	ErrInvalidPublicKey = errors.New("DISCORD_PUBLIC_KEY is not a hex ed25519 public key")
	ErrMissingBotAuth   = errors.New("DISCORD_TOKEN and DISCORD_APPLICATION_ID are required")
)

type Config struct {
	Addr              string
	IdleTimeout       time.Duration // 空闲连接超过 IdleTimeout 没有新请求就关闭
	ShutdownTimeout   time.Duration // 优雅关闭的最长等待时间，超过后强制断开
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	// 日志
	LogLevel    slog.Level
	LogFormat   string // json | text
	ServiceName string

	PprofEnabled bool
	AdminAddr    string

	OtlpGrpcEndpoint string
	OtlpServiceName  string
	TracingEnabled   bool

	// Redis（只给限流用）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitEnabled bool

	// Kafka：命令使用事件
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Discord
	DiscordToken         string
	DiscordApplicationID string
	DiscordPublicKey     string // hex
	DiscordGuildID       string // 为空时注册全局命令
	SignatureMaxSkew     time.Duration
	ReplayWindow         time.Duration

	// 回复内容
	YuanToEuroRate float64
	CreatorID      string
	SpreadsheetURL string
	RegisterURL    string
}

func Load() Config {
	cfg := Config{
		Addr:              ":9999",
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,

		LogLevel:    slog.LevelInfo,
		LogFormat:   "json",
		ServiceName: "linkbot",

		PprofEnabled: false,
		AdminAddr:    "127.0.0.1:6060",

		OtlpGrpcEndpoint: "127.0.0.1:4317",
		OtlpServiceName:  "linkbot",
		TracingEnabled:   false,

		RedisAddr:     "localhost:6379",
		RedisPassword: "",
		RedisDB:       0,

		RateLimitEnabled: false,

		KafkaEnabled: false,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "linkbot-commands",

		SignatureMaxSkew: 5 * time.Minute,
		ReplayWindow:     10 * time.Minute,

		YuanToEuroRate: 0.12,
		CreatorID:      "637803920340549633",
		SpreadsheetURL: "https://tinyurl.com/repparadise",
		RegisterURL:    "https://www.cssbuy.com/paradise",
	}

	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	lookupDuration("IDLE_TIMEOUT", &cfg.IdleTimeout)
	lookupDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	lookupDuration("READ_HEADER_TIMEOUT", &cfg.ReadHeaderTimeout)
	lookupDuration("READ_TIMEOUT", &cfg.ReadTimeout)
	lookupDuration("WRITE_TIMEOUT", &cfg.WriteTimeout)

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = parseLevel(v)
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}

	lookupBool("PPROF_ENABLED", &cfg.PprofEnabled)
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok && v != "" {
		cfg.AdminAddr = v
	}

	lookupBool("TRACING_ENABLED", &cfg.TracingEnabled)
	if v, ok := os.LookupEnv("OTLP_GRPC_ENDPOINT"); ok && v != "" {
		cfg.OtlpGrpcEndpoint = v
	}
	if v, ok := os.LookupEnv("OTLP_SERVICE_NAME"); ok && v != "" {
		cfg.OtlpServiceName = v
	}

	// Redis
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		cfg.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok && v != "" {
		cfg.RedisPassword = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}
	lookupBool("RATELIMIT_ENABLED", &cfg.RateLimitEnabled)

	// Kafka
	lookupBool("KAFKA_ENABLED", &cfg.KafkaEnabled)
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("KAFKA_TOPIC"); ok && v != "" {
		cfg.KafkaTopic = v
	}

	// Discord
	if v, ok := os.LookupEnv("DISCORD_TOKEN"); ok && v != "" {
		cfg.DiscordToken = v
	}
	if v, ok := os.LookupEnv("DISCORD_APPLICATION_ID"); ok && v != "" {
		cfg.DiscordApplicationID = v
	}
	if v, ok := os.LookupEnv("DISCORD_PUBLIC_KEY"); ok && v != "" {
		cfg.DiscordPublicKey = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("DISCORD_GUILD_ID"); ok && v != "" {
		cfg.DiscordGuildID = v
	}
	lookupDuration("SIGNATURE_MAX_SKEW", &cfg.SignatureMaxSkew)
	lookupDuration("REPLAY_WINDOW", &cfg.ReplayWindow)

	if v, ok := os.LookupEnv("YUAN_TO_EURO_RATE"); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.YuanToEuroRate = f
		}
	}
	if v, ok := os.LookupEnv("CREATOR_ID"); ok && v != "" {
		cfg.CreatorID = v
	}
	if v, ok := os.LookupEnv("SPREADSHEET_URL"); ok && v != "" {
		cfg.SpreadsheetURL = v
	}
	if v, ok := os.LookupEnv("REGISTER_URL"); ok && v != "" {
		cfg.RegisterURL = v
	}

	return cfg
}

// PublicKey 解析 hex 编码的 Discord 应用公钥。
func (c Config) PublicKey() (ed25519.PublicKey, error) {
	if c.DiscordPublicKey == "" {
		return nil, ErrMissingPublicKey
	}
	raw, err := hex.DecodeString(c.DiscordPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidPublicKey, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// RequireBotAuth 用于调用 Discord REST 的命令行工具。
func (c Config) RequireBotAuth() error {
	if c.DiscordToken == "" || c.DiscordApplicationID == "" {
		return ErrMissingBotAuth
	}
	return nil
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func lookupDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func lookupBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}
