package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	// Worker is the generation backend serving the analyze / image / video calls.
	Worker struct {
		Addr           string `yaml:"addr"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"worker"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	AppConfig = &Config{}
	if err := decoder.Decode(AppConfig); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}
}

// WorkerTimeout returns the backend request timeout, defaulting to 5 minutes.
func (c *Config) WorkerTimeout() time.Duration {
	if c.Worker.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Worker.TimeoutSeconds) * time.Second
}
