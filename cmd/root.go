// Package cmd defines the linkrank command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/app"
	"github.com/JakeFAU/linkrank/internal/config"
	"github.com/JakeFAU/linkrank/internal/logging"
)

const closeTimeout = 5 * time.Second

// newApp is the application factory. Tests replace it.
var newApp = app.New

// rootOptions is shared by every subcommand.
type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

// load resolves configuration from flags, environment and file, then builds
// the logger it describes.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.LoadWith(o.v, o.cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.Build(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// bind maps each flag name to its viper key. Commands bind in PreRunE so
// that only the running command's flags claim a key.
func (o *rootOptions) bind(flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		if err := o.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func (o *rootOptions) binder(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return o.bind(cmd.Flags(), keys)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "linkrank",
		Short: "Crawl a link graph and rank its pages by in-links.",
		Long: `linkrank walks the pages reachable from a seed depth-first, records every
link it finds and scores each page by the number of links pointing at it.
Pages come from a generated corpus, a link-map file, a directory of HTML
files or Redis. Results can be printed, written to disk or served over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./linkrank.yaml or $HOME/.linkrank/linkrank.yaml)")
	cmd.PersistentFlags().Bool("dev", true, "human-readable development logging")
	cmd.PersistentFlags().String("log-level", "", "minimum log level (debug, info, warn, error)")
	if err := opts.bind(cmd.PersistentFlags(), map[string]string{
		"dev":       "logging.development",
		"log-level": "logging.level",
	}); err != nil {
		panic(err)
	}

	cmd.AddCommand(newCrawlCmd(opts), newServeCmd(opts), newCorpusCmd(opts))
	return cmd
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	logger, lerr := logging.New(true)
	if lerr != nil {
		fmt.Fprintln(os.Stderr, "linkrank:", err)
		os.Exit(1)
	}
	logger.Error("command failed", zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}

func closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	a.Close(ctx)
}
