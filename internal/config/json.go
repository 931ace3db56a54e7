package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/healthbridge/udd/internal/flagx"
	"github.com/healthbridge/udd/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	PollInterval   timex.Duration `json:"poll_interval"`
	PollMaxTries   int            `json:"poll_max_tries"`
	URLExpiration  timex.Duration `json:"url_expiration"`
	UserDataBucket string         `json:"user_data_bucket"`
	WorkerPoolSize int            `json:"worker_pool_size"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	CatalogDSN string `json:"catalog_dsn"`

	RedisURL         string `json:"redis_url"`
	RequestQueueName string `json:"request_queue_name"`

	TableServiceBaseURL      string `json:"table_service_base_url"`
	TableServiceClientID     string `json:"table_service_client_id"`
	TableServiceClientSecret string `json:"table_service_client_secret"`
	TableServiceTokenURL     string `json:"table_service_token_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is the -c or -config command-line
// flags. If neither is set, no JSON file is loaded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.PollInterval.Duration != 0 {
		config.PollInterval = c.PollInterval.Duration
	}
	if c.PollMaxTries != 0 {
		config.PollMaxTries = c.PollMaxTries
	}
	if c.URLExpiration.Duration != 0 {
		config.URLExpiration = time.Duration(c.URLExpiration.Duration)
	}
	if c.UserDataBucket != "" {
		config.UserDataBucket = c.UserDataBucket
	}
	if c.WorkerPoolSize != 0 {
		config.WorkerPoolSize = c.WorkerPoolSize
	}

	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}

	if c.CatalogDSN != "" {
		config.CatalogDSN = c.CatalogDSN
	}

	if c.RedisURL != "" {
		config.RedisURL = c.RedisURL
	}
	if c.RequestQueueName != "" {
		config.RequestQueueName = c.RequestQueueName
	}

	if c.TableServiceBaseURL != "" {
		config.TableServiceBaseURL = c.TableServiceBaseURL
	}
	if c.TableServiceClientID != "" {
		config.TableServiceClientID = c.TableServiceClientID
	}
	if c.TableServiceClientSecret != "" {
		config.TableServiceClientSecret = c.TableServiceClientSecret
	}
	if c.TableServiceTokenURL != "" {
		config.TableServiceTokenURL = c.TableServiceTokenURL
	}
}
