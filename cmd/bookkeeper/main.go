package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Veraticus/bookkeeper/internal/cli"
	"github.com/Veraticus/bookkeeper/internal/common"
	"github.com/Veraticus/bookkeeper/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// rootOptions carries the global flags and the resolved configuration to
// the subcommands.
type rootOptions struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "bookkeeper",
		Short: cli.LedgerIcon + " Track expenses against a daily budget",
		Long: `bookkeeper records what you spend in a tree of categories and compares
the last day, week and month of spending against a daily budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: $HOME/.config/bookkeeper/config.yaml)")
	flags.String("db", "", "database file (default: "+config.DefaultDatabasePath+")")
	flags.String("driver", "sqlite", "storage driver (sqlite, memory)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = opts.v.BindPFlag(config.KeyDatabasePath, flags.Lookup("db"))
	_ = opts.v.BindPFlag(config.KeyDatabaseDriver, flags.Lookup("driver"))
	_ = opts.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = opts.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	cmd.AddCommand(categoriesCmd(opts))
	cmd.AddCommand(expensesCmd(opts))
	cmd.AddCommand(budgetCmd(opts))
	cmd.AddCommand(importOFXCmd(opts))
	cmd.AddCommand(checkpointCmd(opts))
	cmd.AddCommand(resetCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		if !common.IsUserError(err) {
			common.LogError(err, "command failed", common.Fields{"args": os.Args[1:]})
		}
		os.Exit(1)
	}
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	if err := config.Init(o.v, o.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(o.v)
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}

	level, err := common.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if err := common.SetupLoggerTo(cmd.ErrOrStderr(), level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	o.cfg = cfg
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printf(cmd.OutOrStdout(), "bookkeeper %s\n", version)
		},
	}
}
