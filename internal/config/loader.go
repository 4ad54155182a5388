package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/motionnets/mptrain/internal/rerrors"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds loader dependencies and optional overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads the run configuration file at path. It returns the typed config
// plus the raw key/value mapping, which the resolver merges with flags into
// the hyperparameter set. An unparsable file is a fatal configuration error.
func Load(path string, opts ...LoaderOption) (*FileConfig, map[string]any, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	if !lc.FileSystem.Exists(path) {
		return nil, nil, rerrors.Configurationf("configuration file %q does not exist", path)
	}

	// Tracking credentials live in a .env next to the working directory, not
	// in the run configuration file.
	envFile := lc.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return nil, nil, rerrors.Configurationf("failed to load env file %q", envFile).WithCause(err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, rerrors.Configurationf("failed to parse configuration file %q", path).WithCause(err)
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, rerrors.Configurationf("failed to decode configuration file %q", path).WithCause(err)
	}

	cfg.ApplyDefaults()
	return &cfg, v.AllSettings(), nil
}
