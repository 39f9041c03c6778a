package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = "../../.env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	BackendFS = "fs"
	BackendS3 = "s3"

	defaultRunAddress     = ":8080"
	defaultMigrations     = "migrations"
	defaultContentDir     = "data/videos"
	defaultMaxUploadBytes = 512 << 20
)

type Config struct {
	Env     string
	DB      db
	Server  server
	Content content
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	PublicURL      string `env:"PUBLIC_URL"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES"`
}

type content struct {
	Backend    string `env:"CONTENT_BACKEND" envDefault:"fs"`
	Dir        string `env:"CONTENT_DIR"`
	S3Bucket   string `env:"S3_BUCKET"`
	S3Endpoint string `env:"S3_ENDPOINT"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	return cfg
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetDefault("run_address", defaultRunAddress)
	viper.SetDefault("migrations_path", defaultMigrations)
	viper.SetDefault("content_backend", BackendFS)
	viper.SetDefault("content_dir", defaultContentDir)
	viper.SetDefault("max_upload_bytes", defaultMaxUploadBytes)
	viper.SetDefault("app_env", EnvLocal)

	config := Config{
		Env: viper.GetString("app_env"),
		DB: db{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: server{
			RunAddress:     viper.GetString("run_address"),
			PublicURL:      viper.GetString("public_url"),
			MaxUploadBytes: viper.GetInt64("max_upload_bytes"),
		},
		Content: content{
			Backend:    viper.GetString("content_backend"),
			Dir:        viper.GetString("content_dir"),
			S3Bucket:   viper.GetString("s3_bucket"),
			S3Endpoint: viper.GetString("s3_endpoint"),
		},
	}

	if config.Server.PublicURL == "" {
		config.Server.PublicURL = publicURL(config.Server.RunAddress)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive: %d", c.Server.MaxUploadBytes)
	}
	switch c.Content.Backend {
	case BackendFS:
		if c.Content.Dir == "" {
			return fmt.Errorf("CONTENT_DIR is required for the fs backend")
		}
	case BackendS3:
		if c.Content.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown CONTENT_BACKEND %q", c.Content.Backend)
	}
	return nil
}

// publicURL строит адрес по умолчанию из адреса прослушивания
func publicURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
