// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"mlinfer/logger"
)

const (
	DefaultPath      = "config.yaml"
	DefaultModelPath = "model/model.json"

	// lambdaTaskRootEnv is set by AWS Lambda to the unpacked deployment package.
	lambdaTaskRootEnv = "LAMBDA_TASK_ROOT"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	ML      MLConfig      `yaml:"ml"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	WebSocket    bool          `yaml:"websocket"`
}

type MLConfig struct {
	// ModelPath is the artifact written by the trainer. Relative paths are
	// resolved by ResolveModelPath.
	ModelPath string `yaml:"model_path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	Dir        string `yaml:"dir"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:         8080,
			Timeout:      30 * time.Second,
			MaxBodyBytes: 1 << 20,
			WebSocket:    true,
		},
		ML: MLConfig{
			ModelPath: DefaultModelPath,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
			Dir:     "logs",
		},
		Metrics: MetricsConfig{
			Enable: true,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := New()

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.Timeout <= 0 {
		err = multierr.Append(err, errors.New("http.timeout must be positive"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		err = multierr.Append(err, errors.New("http.max_body_bytes must be positive"))
	}
	if c.ML.ModelPath == "" {
		err = multierr.Append(err, errors.New("ml.model_path is required"))
	}
	if _, levelErr := logger.ParseLevel(c.Log.Level); levelErr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", levelErr))
	}
	if !c.Log.Console && c.Log.Dir == "" {
		err = multierr.Append(err, errors.New("log.dir is required when log.console is false"))
	}
	return err
}

// RotateConfig converts the log section for logger.Init.
func (c *Config) RotateConfig() logger.RotateConfig {
	return logger.RotateConfig{
		MaxSize:    c.Log.MaxSize,
		MaxAge:     c.Log.MaxAge,
		MaxBackups: c.Log.MaxBackups,
	}
}

// ResolveModelPath anchors a relative artifact path to the deployment root:
// LAMBDA_TASK_ROOT when running under Lambda, the working directory
// otherwise.
func ResolveModelPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if root := os.Getenv(lambdaTaskRootEnv); root != "" {
		return filepath.Join(root, path)
	}
	return path
}
