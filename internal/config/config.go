// Package config resolves the run configuration for a training run. A run is
// configured from three sources merged in increasing precedence: the training
// node identity, the user-supplied YAML file, and command-line flags.
package config

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/motionnets/mptrain/internal/logger"
	"github.com/motionnets/mptrain/internal/rerrors"
)

// FileConfig mirrors the structure of the user-supplied YAML file.
type FileConfig struct {
	ExperimentName     string  `mapstructure:"experiment_name" yaml:"experiment_name" validate:"required"`
	Gpus               any     `mapstructure:"gpus" yaml:"gpus" validate:"required"`
	BatchSize          int     `mapstructure:"batch_size" yaml:"batch_size" validate:"required,gt=0"`
	CheckpointInterval int     `mapstructure:"checkpoint_interval" yaml:"checkpoint_interval" validate:"required,gt=0"`
	SaveCheckpointDir  string  `mapstructure:"save_checkpoint_dir" yaml:"save_checkpoint_dir"`
	ValidationInterval float64 `mapstructure:"validation_interval" yaml:"validation_interval" validate:"required,gt=0"`

	SharedParameters        map[string]any `mapstructure:"shared_parameters" yaml:"shared_parameters"`
	TrainingModelParameters map[string]any `mapstructure:"training_model_parameters" yaml:"training_model_parameters"`
	DataModuleParameters    map[string]any `mapstructure:"data_module_parameters" yaml:"data_module_parameters"`

	Logging  logger.Config  `mapstructure:"logging" yaml:"logging"`
	Tracking TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
	Status   StatusConfig   `mapstructure:"status" yaml:"status"`
}

// TrackingConfig configures the experiment-tracking exporter.
type TrackingConfig struct {
	// Endpoint is the OTLP HTTP endpoint host:port for metric export.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Insecure allows plain HTTP connections to the endpoint.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`
	// IntervalSeconds is the metric export interval.
	IntervalSeconds int `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	// Project is the tracking project identifier runs are grouped under.
	Project string `mapstructure:"project" yaml:"project"`
}

// ApplyDefaults applies default values to tracking configuration.
func (c *TrackingConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
		c.Insecure = true
	}
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 15
	}
	if c.Project == "" {
		c.Project = "mpnet"
	}
}

// StatusConfig configures the operator status endpoint.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// ApplyDefaults applies default values to status configuration.
func (c *StatusConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8089"
	}
}

// ApplyDefaults applies default values to the file configuration.
func (c *FileConfig) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	c.Tracking.ApplyDefaults()
	c.Status.ApplyDefaults()
}

// Validate checks the required keys. Missing keys are fatal configuration
// errors, never silently defaulted.
func (c *FileConfig) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return rerrors.Configuration("configuration validation failed").WithCause(err)
		}
		e := verrs[0]
		if e.Tag() == "required" {
			return rerrors.MissingKey(e.Field())
		}
		return rerrors.Configurationf("configuration key %q is invalid (%s=%s)", e.Field(), e.Tag(), e.Param())
	}
	if _, err := ParseDeviceSpec(c.Gpus); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return rerrors.Configuration(err.Error())
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance, configured to report
// mapstructure key names in error messages.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
