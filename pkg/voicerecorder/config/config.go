package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/response"
)

const EnvPrefix = "VOICERECORDER"

type Config struct {
	ResponseFormat   string        `mapstructure:"response_format"`
	MeteringInterval time.Duration `mapstructure:"metering_interval"`
	Capabilities     Capabilities  `mapstructure:"capabilities"`
	Desktop          Desktop       `mapstructure:"desktop"`
}

type Capabilities struct {
	Pause        bool `mapstructure:"pause"`
	FocusRequest bool `mapstructure:"focus_request"`
}

// Desktop configures the desktop platform; empty directories are derived
// from the usual per-user locations.
type Desktop struct {
	AppName      string `mapstructure:"app_name"`
	FFmpegPath   string `mapstructure:"ffmpeg_path"`
	DocumentsDir string `mapstructure:"documents_dir"`
	DataDir      string `mapstructure:"data_dir"`
	CacheDir     string `mapstructure:"cache_dir"`
	ExternalDir  string `mapstructure:"external_dir"`
	RuntimeDir   string `mapstructure:"runtime_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("response_format", response.FormatLegacy.String())
	v.SetDefault("metering_interval", 50*time.Millisecond)
	v.SetDefault("capabilities.pause", true)
	v.SetDefault("capabilities.focus_request", true)
	v.SetDefault("desktop.app_name", "voicerecorder")
	v.SetDefault("desktop.ffmpeg_path", "ffmpeg")
	v.SetDefault("desktop.documents_dir", "")
	v.SetDefault("desktop.data_dir", "")
	v.SetDefault("desktop.cache_dir", "")
	v.SetDefault("desktop.external_dir", "")
	v.SetDefault("desktop.runtime_dir", "")
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"response-format":   "response_format",
	"metering-interval": "metering_interval",
	"ffmpeg-path":       "desktop.ffmpeg_path",
}

// Load reads the configuration from (in the order of precedence) the
// changed flags, VOICERECORDER_* environment variables, the YAML file at
// path (if any) and the defaults.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("unable to read the config file '%s': %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("unable to bind flag '%s': %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse the config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.MeteringInterval <= 0 {
		return fmt.Errorf("metering_interval must be positive, got %v", cfg.MeteringInterval)
	}
	if cfg.Desktop.AppName == "" {
		return fmt.Errorf("desktop.app_name must not be empty")
	}
	if cfg.Desktop.FFmpegPath == "" {
		return fmt.Errorf("desktop.ffmpeg_path must not be empty")
	}
	return nil
}

func (cfg Config) Format() response.Format {
	return response.ParseFormat(cfg.ResponseFormat)
}
