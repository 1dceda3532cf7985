package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName string `mapstructure:"APP_NAME"`

	// HTTP surface
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Document store. Standalone mode swaps MongoDB for in-memory
	// stores, for a single terminal with no shared state.
	Standalone  bool   `mapstructure:"STANDALONE"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// Catalog cache. Empty address disables caching.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Settlement events. Empty broker list disables publishing.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`

	// Scanner behaviour, the knobs the settings screen exposes.
	ScanDebounce     time.Duration `mapstructure:"SCAN_DEBOUNCE"`
	SoundEnabled     bool          `mapstructure:"SOUND_ENABLED"`
	VibrationEnabled bool          `mapstructure:"VIBRATION_ENABLED"`
	SeedCatalog      bool          `mapstructure:"SEED_CATALOG"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Brokers splits the comma-separated broker list.
func (c Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "nocna-apteka")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	viper.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	viper.SetDefault("STANDALONE", false)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB_NAME", "posdb")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")

	viper.SetDefault("KAFKA_BROKERS", "")

	viper.SetDefault("SCAN_DEBOUNCE", time.Second)
	viper.SetDefault("SOUND_ENABLED", true)
	viper.SetDefault("VIBRATION_ENABLED", true)
	viper.SetDefault("SEED_CATALOG", true)

	if err = viper.ReadInConfig(); err == nil {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		log.Info().Msg("No config file found, using environment variables and defaults.")
		err = nil
	} else {
		log.Error().Err(err).Msg("Error reading config file")
		return
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	err = viper.Unmarshal(&config)
	return
}
