package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr        string        `mapstructure:"addr"`
			Password    string        `mapstructure:"password"`
			DB          int           `mapstructure:"db"`
			DialTimeout time.Duration `mapstructure:"dialTimeout"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort     string        `mapstructure:"HTTPPort"`
		Timeout      time.Duration `mapstructure:"HTTPTimeout"`
		AllowOrigins []string      `mapstructure:"allowOrigins"`
		UploadsDir   string        `mapstructure:"uploadsDir"`
	} `mapstructure:"server"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Generation   GenerationConfig   `mapstructure:"generation"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	OAuth        struct {
		GoogleClientID     string `mapstructure:"googleClientID"`
		GoogleClientSecret string `mapstructure:"googleClientSecret"`
		CallbackURL        string `mapstructure:"callbackURL"`
		SessionSecret      string `mapstructure:"sessionSecret"`
	} `mapstructure:"oauth"`
}

type JWTConfig struct {
	SecretKey string        `mapstructure:"secretKey"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type GenerationConfig struct {
	Model              string        `mapstructure:"model"`
	GeminiAPIKey       string        `mapstructure:"geminiAPIKey"`
	SearchAPIKey       string        `mapstructure:"searchAPIKey"`
	SearchEngineID     string        `mapstructure:"searchEngineID"`
	YoutubeAPIKey      string        `mapstructure:"youtubeAPIKey"`
	TranscriptLanguage string        `mapstructure:"transcriptLanguage"`
	ProviderTimeout    time.Duration `mapstructure:"providerTimeout"`
	LockTTL            time.Duration `mapstructure:"lockTTL"`
	RequestsPerMinute  int           `mapstructure:"requestsPerMinute"`
	Burst              int           `mapstructure:"burst"`
}

type SubscriptionConfig struct {
	// ExpirySchedule is a cron spec with an optional seconds field, e.g. "@every 1h". Empty disables the job.
	ExpirySchedule string        `mapstructure:"expirySchedule"`
	ExpiryTimeout  time.Duration `mapstructure:"expiryTimeout"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Secrets come from the environment, e.g. GENERATION_GEMINIAPIKEY or JWT_SECRETKEY.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	for _, key := range []string{
		"jwt.secretKey",
		"generation.geminiAPIKey",
		"generation.searchAPIKey",
		"generation.searchEngineID",
		"generation.youtubeAPIKey",
		"oauth.googleClientID",
		"oauth.googleClientSecret",
		"oauth.sessionSecret",
		"repositories.postgres.password",
	} {
		_ = v.BindEnv(key)
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
