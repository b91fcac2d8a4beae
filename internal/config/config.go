package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Ledgerly"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"json"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		Secret         string   `envconfig:"AUTH_JWT_SECRET"`
		Issuer         string   `envconfig:"AUTH_ISSUER" default:"ledgerly"`
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	}

	// Datastore picks the gateway backend: memory, sheets, aztables or postgres.
	Datastore struct {
		Driver string `envconfig:"DATASTORE_DRIVER" default:"memory"`
	}

	Sheets struct {
		SpreadsheetID   string `envconfig:"SHEETS_SPREADSHEET_ID"`
		CredentialsFile string `envconfig:"SHEETS_CREDENTIALS_FILE"`
	}

	Azure struct {
		TablesURL            string `envconfig:"AZURE_TABLES_URL"`
		BlobURL              string `envconfig:"AZURE_BLOB_URL"`
		QueueURL             string `envconfig:"AZURE_QUEUE_URL"`
		AttachmentsContainer string `envconfig:"ATTACHMENTS_CONTAINER" default:"attachments"`
		EventsQueue          string `envconfig:"EVENTS_QUEUE" default:"ledgerly-events"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledgerly"`
	}

	Redis struct {
		URL string `envconfig:"REDIS_URL"`
	}

	Business struct {
		Name    string `envconfig:"BUSINESS_NAME" default:"Ledgerly"`
		Email   string `envconfig:"BUSINESS_EMAIL"`
		Phone   string `envconfig:"BUSINESS_PHONE"`
		Address string `envconfig:"BUSINESS_ADDRESS"`
	}

	TUI struct {
		Operator string `envconfig:"TUI_OPERATOR" default:"owner@localhost"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
