package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/corpus"
	"github.com/JakeFAU/linkrank/internal/pagesource/redis"
	"github.com/JakeFAU/linkrank/internal/storage/local"
)

func newCorpusCmd(opts *rootOptions) *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Write the generated link corpus to disk or Redis",
		Long: `Generates the synthetic corpus in which page i links to every earlier page
and to page i+1. The pages are written as HTML files under --dir, ready for
the html source. With --redis-addr the link map is also seeded into Redis
for the redis source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			n := cfg.Source.CorpusPages
			dir := cfg.Source.Dir
			if dir == "" {
				dir = "corpus"
			}
			store, err := local.New(local.Config{BaseDir: dir})
			if err != nil {
				return fmt.Errorf("open corpus directory: %w", err)
			}
			uris, err := corpus.Write(cmd.Context(), store, "", n, corpus.DefaultNamer)
			if err != nil {
				return err
			}
			logger.Info("corpus written", zap.String("dir", dir), zap.Int("pages", len(uris)))

			if redisAddr != "" {
				client, err := redis.Dial(cmd.Context(), redisAddr)
				if err != nil {
					return err
				}
				defer client.Close() //nolint:errcheck // process is exiting
				src := redis.New(client, cfg.Source.RedisPrefix)
				if err := src.Seed(cmd.Context(), corpus.Links(n, corpus.DefaultNamer)); err != nil {
					return fmt.Errorf("seed redis: %w", err)
				}
				logger.Info("corpus seeded into redis", zap.String("addr", redisAddr), zap.Int("pages", n))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s\n", len(uris), dir)
			return err
		},
	}
	cmd.Flags().Int("pages", 0, "number of pages to generate")
	cmd.Flags().String("dir", "", "output directory (default \"corpus\")")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "also seed the link map into this redis")
	cmd.PreRunE = opts.binder(map[string]string{
		"pages": "source.corpus_pages",
		"dir":   "source.dir",
	})
	return cmd
}
