package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const EnvPrefix = "ETHTX"

type Chain struct {
	ID uint64 `mapstructure:"id"`
}

type Keystore struct {
	Path string `mapstructure:"path"`
	// LightScrypt uses cheap scrypt parameters. Only for throwaway keystores.
	LightScrypt bool `mapstructure:"light_scrypt"`
}

type Wallet struct {
	DefaultPath string `mapstructure:"default_path"`
	Passphrase  string `mapstructure:"passphrase" json:"-"`
}

type Signer struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
}

type Inspect struct {
	CacheSize int `mapstructure:"cache_size"`
}

// Node lists JSON-RPC endpoints of the configured chain, tried in order.
type Node struct {
	URLs    []string      `mapstructure:"urls"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Logger struct {
	Level              string `mapstructure:"level"`
	PrettyPrintConsole bool   `mapstructure:"pretty_print_console"`
}

type Metrics struct {
	// Textfile is where counters are written on exit, for the node_exporter
	// textfile collector. Empty disables the export.
	Textfile string `mapstructure:"textfile"`
}

type Server struct {
	Chain    Chain    `mapstructure:"chain"`
	Keystore Keystore `mapstructure:"keystore"`
	Wallet   Wallet   `mapstructure:"wallet"`
	Signer   Signer   `mapstructure:"signer"`
	Inspect  Inspect  `mapstructure:"inspect"`
	Node     Node     `mapstructure:"node"`
	Logger   Logger   `mapstructure:"logger"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// DefaultServiceConfig returns the built-in defaults.
func DefaultServiceConfig() Server {
	return Server{
		Chain: Chain{ID: 1},
		Keystore: Keystore{
			Path: "keystore/ethtx.json",
		},
		Wallet: Wallet{
			DefaultPath: "m/44'/60'/0'/0/0",
		},
		Signer: Signer{
			Enabled:     true,
			Concurrency: runtime.NumCPU(),
		},
		Inspect: Inspect{CacheSize: 1024},
		Node: Node{
			URLs:    []string{},
			Timeout: 10 * time.Second,
		},
		Logger: Logger{
			Level:              "info",
			PrettyPrintConsole: false,
		},
	}
}

// NewViper returns a viper instance preloaded with the defaults and bound to
// ETHTX_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultServiceConfig()
	v.SetDefault("chain.id", d.Chain.ID)
	v.SetDefault("keystore.path", d.Keystore.Path)
	v.SetDefault("keystore.light_scrypt", d.Keystore.LightScrypt)
	v.SetDefault("wallet.default_path", d.Wallet.DefaultPath)
	v.SetDefault("wallet.passphrase", d.Wallet.Passphrase)
	v.SetDefault("signer.enabled", d.Signer.Enabled)
	v.SetDefault("signer.concurrency", d.Signer.Concurrency)
	v.SetDefault("inspect.cache_size", d.Inspect.CacheSize)
	v.SetDefault("node.urls", d.Node.URLs)
	v.SetDefault("node.timeout", d.Node.Timeout)
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.pretty_print_console", d.Logger.PrettyPrintConsole)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)

	return v
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := gotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "failed to load env file %s", f)
		}
		log.Debug().Str("file", f).Msg("Loaded env file")
	}

	return nil
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, configFile string) (Server, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, errors.Wrap(err, "failed to decode config")
	}
	if cfg.Signer.Concurrency < 1 {
		cfg.Signer.Concurrency = 1
	}

	return cfg, nil
}

// DefaultServiceConfigFromEnv returns the defaults overridden by ETHTX_*
// environment variables.
func DefaultServiceConfigFromEnv() Server {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		log.Panic().Err(err).Msg("Failed to read config from env")
	}

	return cfg
}
