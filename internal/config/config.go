package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	GracePeriod  time.Duration `mapstructure:"grace_period"`
	RoomIDLength int           `mapstructure:"room_id_length"`
	HandSize     int           `mapstructure:"hand_size"`
	PromptCards  int           `mapstructure:"prompt_cards"`
	AnswerCards  int           `mapstructure:"answer_cards"`

	ChatRateLimit  int           `mapstructure:"chat_rate_limit"`
	ChatRateWindow time.Duration `mapstructure:"chat_rate_window"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")

	v.SetDefault("grace_period", "30s")
	v.SetDefault("room_id_length", 6)
	v.SetDefault("hand_size", 7)
	v.SetDefault("prompt_cards", 40)
	v.SetDefault("answer_cards", 200)

	v.SetDefault("chat_rate_limit", 10)
	v.SetDefault("chat_rate_window", "5s")
	v.SetDefault("send_buffer", 64)
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of the defaults. Any key
// can be overridden from the environment as SWG_<KEY>, e.g. SWG_GRACE_PERIOD.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("SWG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Dur("grace", cfg.GracePeriod).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.GracePeriod <= 0:
		return fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod)
	case c.RoomIDLength < 4:
		return fmt.Errorf("room_id_length must be at least 4, got %d", c.RoomIDLength)
	case c.HandSize <= 0:
		return fmt.Errorf("hand_size must be positive, got %d", c.HandSize)
	case c.SendBuffer <= 0:
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	return nil
}
