package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/op/go-logging.v1"
)

var configCandidateDirs = []string{"/etc/sum/", "$HOME/.config/sum"}

// configPathEnv replaces the config search directories. It holds a list
// separated by os.PathListSeparator; set but empty, no file is read.
const configPathEnv = "SUM_CONFIG_PATH"

func configDirs() []string {
	path, ok := os.LookupEnv(configPathEnv)
	if !ok {
		return configCandidateDirs
	}
	var dirs []string
	for _, d := range filepath.SplitList(path) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Config is the runtime configuration, read from SUM_* environment variables
// and an optional sum.yaml file.
type Config struct {
	// LogLevel is the verbosity of the stderr log.
	LogLevel logging.Level
	// Strict rejects operands that are not complete integers instead of
	// converting them leniently.
	Strict bool
	// File is the config file that was read, empty if none was found.
	File string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{LogLevel: logging.WARNING}
}

func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("log.level", "warning")
	v.SetDefault("parse.strict", false)
}

// LoadConfig reads the configuration. The first sum.yaml found in dirs is
// used; a missing file is not an error.
func LoadConfig(dirs []string) (*Config, error) {
	v := viper.New()

	// env
	v.SetEnvPrefix("SUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaultConfig(v)

	// config file
	if len(dirs) > 0 {
		v.SetConfigName("sum")
		v.SetConfigType("yaml")
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	level, err := logging.LogLevel(v.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("log.level %q: %w", v.GetString("log.level"), err)
	}
	strict, err := cast.ToBoolE(v.Get("parse.strict"))
	if err != nil {
		return nil, fmt.Errorf("parse.strict %q: %w", v.GetString("parse.strict"), err)
	}
	return &Config{
		LogLevel: level,
		Strict:   strict,
		File:     v.ConfigFileUsed(),
	}, nil
}
