package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophtodo/internal/flagx"
	"github.com/dmitrijs2005/gophtodo/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept either a
// string ("168h") or integer nanoseconds. Absent fields keep their current
// value.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	OpenAIAPIKey                *string         `json:"openai_api_key"`
	OpenAIModel                 *string         `json:"openai_model"`
	OpenAIBaseURL               *string         `json:"openai_base_url"`
	AgentMaxIterations          *int            `json:"agent_max_iterations"`
	AgentHistoryLimit           *int            `json:"agent_history_limit"`
	HistoryLimit                *int            `json:"history_limit"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson overlays Config with the file named by -c / -config, if any.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config, argv []string) {
	path := flagx.ConfigPath(argv)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.OpenAIAPIKey, c.OpenAIAPIKey)
	setString(&config.OpenAIModel, c.OpenAIModel)
	setString(&config.OpenAIBaseURL, c.OpenAIBaseURL)
	setInt(&config.AgentMaxIterations, c.AgentMaxIterations)
	setInt(&config.AgentHistoryLimit, c.AgentHistoryLimit)
	setInt(&config.HistoryLimit, c.HistoryLimit)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
