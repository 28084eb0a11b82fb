package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	Hostname           string `mapstructure:"hostname"`
	LogLevel           string `mapstructure:"log_level"`
	LogFormat          string `mapstructure:"log_format"`
	ScanTimeoutSeconds int    `mapstructure:"scan_timeout_seconds"`
	OutputFormat       string `mapstructure:"output_format"`
	APIURL             string `mapstructure:"api_url"`
	APIKey             string `mapstructure:"api_key"`
	S3Bucket           string `mapstructure:"s3_bucket"`
	S3Region           string `mapstructure:"s3_region"`
	S3Prefix           string `mapstructure:"s3_prefix"`
	S3AccessKeyID      string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey  string `mapstructure:"s3_secret_access_key"`
}

func Default() *Config {
	return &Config{
		Hostname:           "auto",
		LogLevel:           "info",
		LogFormat:          "text",
		ScanTimeoutSeconds: 30,
		OutputFormat:       "json",
		S3Prefix:           "reports",
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PMGMT")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveHostname returns the hostname to report. "auto" (the default)
// resolves through the OS.
func (c *Config) ResolveHostname() (string, error) {
	if c.Hostname != "" && c.Hostname != "auto" {
		return c.Hostname, nil
	}
	return os.Hostname()
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "pmgmt-agent")
	case "darwin":
		return "/Library/Application Support/pmgmt-agent"
	default:
		return "/etc/pmgmt-agent"
	}
}
