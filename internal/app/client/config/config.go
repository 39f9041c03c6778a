package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress    = "localhost:8080"
	defaultLogLevel         = "info"
	defaultEnv              = "local"
	defaultConfigDir        = ".clipkeeper"
	defaultUploadMode       = "simulated"
	defaultSuccessRate      = 0.8
	defaultSimulatedSteps   = 10
	defaultStepDelayMS      = 200
	defaultUploadTimeoutSec = 300
	defaultCaptureTickMS    = 1000
	defaultSyncIntervalSec  = 30

	databaseFile = "clips.db"
)

type Config struct {
	Env           string `mapstructure:"app_env"`
	ServerAddress string `mapstructure:"server_address"`
	EnableTLS     bool   `mapstructure:"enable_tls"`
	LogLevel      string `mapstructure:"log_level"`
	ConfigDir     string `mapstructure:"config_dir"`
	DatabasePath  string `mapstructure:"-"`

	Upload  Upload  `mapstructure:",squash"`
	Capture Capture `mapstructure:",squash"`

	StorageQuota int64         `mapstructure:"storage_quota_bytes"`
	SyncInterval time.Duration `mapstructure:"-"`
}

type Upload struct {
	Mode        string        `mapstructure:"upload_mode"`
	SuccessRate float64       `mapstructure:"simulated_success_rate"`
	Steps       int           `mapstructure:"simulated_steps"`
	StepDelay   time.Duration `mapstructure:"-"`
	Timeout     time.Duration `mapstructure:"-"`
}

type Capture struct {
	Command      string        `mapstructure:"capture_command"`
	TickInterval time.Duration `mapstructure:"-"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env, переменные окружения и опциональный config.yaml,
// уже подключенный к viper вызывающим кодом
func Load() (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()
	setDefaults()

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}

	config := &Config{
		Env:           viper.GetString("APP_ENV"),
		ServerAddress: viper.GetString("SERVER_ADDRESS"),
		EnableTLS:     viper.GetBool("ENABLE_TLS"),
		LogLevel:      viper.GetString("LOG_LEVEL"),
		ConfigDir:     configDir,
		DatabasePath:  filepath.Join(configDir, databaseFile),
		Upload: Upload{
			Mode:        viper.GetString("UPLOAD_MODE"),
			SuccessRate: viper.GetFloat64("SIMULATED_SUCCESS_RATE"),
			Steps:       viper.GetInt("SIMULATED_STEPS"),
			StepDelay:   time.Duration(viper.GetInt("SIMULATED_STEP_DELAY_MS")) * time.Millisecond,
			Timeout:     time.Duration(viper.GetInt("UPLOAD_TIMEOUT_SECONDS")) * time.Second,
		},
		Capture: Capture{
			Command:      viper.GetString("CAPTURE_COMMAND"),
			TickInterval: time.Duration(viper.GetInt("CAPTURE_TICK_MS")) * time.Millisecond,
		},
		StorageQuota: viper.GetInt64("STORAGE_QUOTA_BYTES"),
		SyncInterval: time.Duration(viper.GetInt("SYNC_INTERVAL_SECONDS")) * time.Second,
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("ENABLE_TLS", false)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("UPLOAD_MODE", defaultUploadMode)
	viper.SetDefault("SIMULATED_SUCCESS_RATE", defaultSuccessRate)
	viper.SetDefault("SIMULATED_STEPS", defaultSimulatedSteps)
	viper.SetDefault("SIMULATED_STEP_DELAY_MS", defaultStepDelayMS)
	viper.SetDefault("UPLOAD_TIMEOUT_SECONDS", defaultUploadTimeoutSec)
	viper.SetDefault("STORAGE_QUOTA_BYTES", 0)
	viper.SetDefault("CAPTURE_COMMAND", "")
	viper.SetDefault("CAPTURE_TICK_MS", defaultCaptureTickMS)
	viper.SetDefault("SYNC_INTERVAL_SECONDS", defaultSyncIntervalSec)
}

func (c *Config) validate() error {
	if c.ConfigDir == "" {
		return fmt.Errorf("config_dir не может быть пустым")
	}
	if c.Upload.SuccessRate < 0 || c.Upload.SuccessRate > 1 {
		return fmt.Errorf("simulated_success_rate должен быть в диапазоне [0, 1]: %v", c.Upload.SuccessRate)
	}
	if c.StorageQuota < 0 {
		return fmt.Errorf("storage_quota_bytes не может быть отрицательным")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	return nil
}

// ServerURL возвращает базовый адрес сервера приема со схемой
func (c *Config) ServerURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
