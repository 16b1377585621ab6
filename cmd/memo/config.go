package main

import (
	"fmt"
	"os"
	"time"

	"github.com/agentuity/go-memo/env"
	"github.com/agentuity/go-memo/slowfn"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

const defaultStore = ".memo/cache.memo"

// Duration accepts str2duration strings such as "250ms" or "1d2h" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := str2duration.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return str2duration.String(time.Duration(d)), nil
}

type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Profile  string `yaml:"profile"`
}

// Config is the CLI configuration file. Flags override its values.
type Config struct {
	Store   string   `yaml:"store"`
	Codec   string   `yaml:"codec"`
	Sleep   Duration `yaml:"sleep"`
	Verbose bool     `yaml:"verbose"`
	S3      S3Config `yaml:"s3"`
}

func defaultConfig() Config {
	return Config{
		Store: defaultStore,
		Codec: "msgpack",
		Sleep: Duration(slowfn.DefaultSleep),
	}
}

// loadConfig reads path over the defaults. Keys missing from the file keep
// their default values.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg := defaultConfig()
	if path := env.FlagOrEnv(cmd, "config", env.ConfigFileEnv, ""); path != "" {
		var err error
		if cfg, err = loadConfig(path); err != nil {
			return cfg, err
		}
	}
	cfg.Store = env.FlagOrEnv(cmd, "store", env.StoreEnv, cfg.Store)
	if codec, _ := cmd.Flags().GetString("codec"); codec != "" {
		cfg.Codec = codec
	}
	if sleep, _ := cmd.Flags().GetString("sleep"); sleep != "" {
		d, err := str2duration.ParseDuration(sleep)
		if err != nil {
			return cfg, fmt.Errorf("invalid --sleep %q: %w", sleep, err)
		}
		cfg.Sleep = Duration(d)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	}
	return cfg, nil
}

func (c Config) slowSettings() slowfn.Settings {
	return slowfn.Settings{Sleep: time.Duration(c.Sleep), Verbose: c.Verbose}
}
