package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error
	FEURL    string // フロントURL（CORSで使う）

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret  string        // JWT署名シークレット
	JWTTTL     time.Duration // アクセストークンの有効期限
	BcryptCost int

	UploadDir string // 画像の保存先

	AMQPURL        string // 空なら通知はこのプロセス内だけ
	NotifyExchange string
	NotifyBuffer   int // 接続ごとの送信バッファ

	JaegerEndpoint string // 空ならトレースは出さない
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FE_URL", "http://localhost:5173")

	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "foodapp")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("JWT_TTL", "720h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("NOTIFY_EXCHANGE", "order-notifications")
	v.SetDefault("NOTIFY_BUFFER", 16)
}

// Loadは .env（あれば）、config.yaml（あれば）、環境変数の順に設定を読む
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	//.envは無くてもOK（本番は環境変数だけ）
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	//config.yaml（任意）。環境変数のほうが優先
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config.yaml: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := Config{
		Port:     v.GetString("PORT"),
		GoEnv:    v.GetString("GO_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		FEURL:    v.GetString("FE_URL"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		BcryptCost: v.GetInt("BCRYPT_COST"),

		UploadDir: v.GetString("UPLOAD_DIR"),

		AMQPURL:        v.GetString("AMQP_URL"),
		NotifyExchange: v.GetString("NOTIFY_EXCHANGE"),
		NotifyBuffer:   v.GetInt("NOTIFY_BUFFER"),

		JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL must be positive")
	}
	if cfg.PostgresPort <= 0 {
		return Config{}, fmt.Errorf("POSTGRES_PORT must be number")
	}
	if cfg.NotifyBuffer <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_BUFFER must be positive")
	}

	return cfg, nil
}

// DSNはDATABASE_URLがあればそれ、なければPOSTGRES_*から組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// ":8080" 形式に揃える
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	if c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}
