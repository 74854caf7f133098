package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`
	LogMode  string `mapstructure:"LOG_MODE"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	RedisAddr  string `mapstructure:"REDIS_ADDR"`

	AccessSecret  string        `mapstructure:"ACCESS_SECRET"`
	RefreshSecret string        `mapstructure:"REFRESH_SECRET"`
	AccessTTL     time.Duration `mapstructure:"ACCESS_TTL"`
	RefreshTTL    time.Duration `mapstructure:"REFRESH_TTL"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	CookieSecure   bool   `mapstructure:"COOKIE_SECURE"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `mapstructure:"GOOGLE_CALLBACK_URL"`

	GCSBucket       string `mapstructure:"GCS_BUCKET"`
	GCSCDNDomain    string `mapstructure:"GCS_CDN_DOMAIN"`
	GCSEmulatorHost string `mapstructure:"GCS_EMULATOR_HOST"`
	MaxVideoMB      int64  `mapstructure:"MAX_VIDEO_MB"`
	MaxAvatarMB     int64  `mapstructure:"MAX_AVATAR_MB"`

	APIKey      string `mapstructure:"SENDGRID_API_KEY"`
	SMTPEmail   string `mapstructure:"SMTP_EMAIL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
	OtelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
	OtelEnvironment string  `mapstructure:"APP_ENV"`
}

var keys = []string{
	"HTTP_PORT", "GRPC_PORT", "LOG_MODE",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "REDIS_ADDR",
	"ACCESS_SECRET", "REFRESH_SECRET", "ACCESS_TTL", "REFRESH_TTL",
	"ALLOWED_ORIGINS", "COOKIE_SECURE",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_CALLBACK_URL",
	"GCS_BUCKET", "GCS_CDN_DOMAIN", "GCS_EMULATOR_HOST", "MAX_VIDEO_MB", "MAX_AVATAR_MB",
	"SENDGRID_API_KEY", "SMTP_EMAIL", "FRONTEND_URL",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_SAMPLER_RATIO", "OTEL_SERVICE_NAME", "APP_ENV",
}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	// Биндим явно, иначе Unmarshal не увидит переменные без файла
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("HTTP_PORT", ":8080")
	v.SetDefault("GRPC_PORT", ":50051")
	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("ACCESS_TTL", 15*time.Minute)
	v.SetDefault("REFRESH_TTL", 7*24*time.Hour)
	v.SetDefault("MAX_VIDEO_MB", 500)
	v.SetDefault("MAX_AVATAR_MB", 5)
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
	v.SetDefault("OTEL_SERVICE_NAME", "learning-service")
	v.SetDefault("COOKIE_SECURE", true)

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// Файла нет, работаем на ENV
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) DSN() string {
	return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
		" dbname=" + c.DBName + " port=" + c.DBPort + " sslmode=disable"
}
