package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/cmd/keystore"
	"github/chapool/go-ethtx/cmd/tx"
	"github/chapool/go-ethtx/internal/config"
	"github/chapool/go-ethtx/internal/metrics"
	"github/chapool/go-ethtx/internal/util"
	"github/chapool/go-ethtx/internal/util/command"
)

const (
	configFlag   = "config"
	envFileFlag  = "env-file"
	chainIDFlag  = "chain-id"
	keystoreFlag = "keystore"
	logLevelFlag = "log-level"
)

// New returns the root command. Configuration is resolved from defaults,
// .env files, ETHTX_* variables, the optional config file and flags.
func New() *cobra.Command {
	v := config.NewViper()
	var (
		configFile string
		envFiles   []string
		rt         command.Runtime
	)

	rootCmd := &cobra.Command{
		Version: config.GetFormattedBuildArgs(),
		Use:     "ethtx",
		Short:   config.ModuleName,
		Long: fmt.Sprintf(`%v

Classify, decode and sign legacy and EIP-2930 Ethereum transactions offline.
Configuration comes from ETHTX_* environment variables, .env files and an optional config file.`, config.ModuleName),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnvFiles(envFiles...); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

			rt = command.Runtime{Config: cfg, Metrics: metrics.New()}
			cmd.SetContext(command.WithRuntime(cmd.Context(), &rt))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return rt.Metrics.WriteTextfile(rt.Config.Metrics.Textfile)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, configFlag, "", "config file (yaml, toml or json)")
	flags.StringSliceVar(&envFiles, envFileFlag, []string{".env"}, "env files loaded before reading ETHTX_* variables")
	flags.Uint64(chainIDFlag, config.DefaultServiceConfig().Chain.ID, "chain id transactions are bound to")
	flags.String(keystoreFlag, config.DefaultServiceConfig().Keystore.Path, "keystore file")
	flags.String(logLevelFlag, config.DefaultServiceConfig().Logger.Level, "log level")

	for key, flag := range map[string]string{
		"chain.id":      chainIDFlag,
		"keystore.path": keystoreFlag,
		"logger.level":  logLevelFlag,
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("flag", flag).Msg("Failed to bind flag")
		}
	}

	rootCmd.AddCommand(
		tx.New(),
		keystore.New(),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := New().Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
