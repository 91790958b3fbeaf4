package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/app"
	"github.com/JakeFAU/linkrank/internal/storage/local"
)

func newCrawlCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl from a seed and print the ranking",
		Long: `Crawls the configured page source from the seed page, ranks every
discovered page by score and renders the result. With --output the rendering
is written to that file instead of stdout. A relative --output is placed
under render.output_dir (--output-dir).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			defer closeApp(a)

			res, err := a.Pipeline.Crawl(cmd.Context(), app.Request{})
			if err != nil {
				return err
			}
			logger.Info("crawl complete",
				zap.String("crawl_id", res.CrawlID),
				zap.Int("pages", len(res.Ranked)),
				zap.Bool("truncated", res.Truncated),
			)

			if output == "" {
				_, err = a.Pipeline.Render(cmd.Context(), cmd.OutOrStdout(), res, cfg.Render.Format)
				return err
			}
			dir, name := cfg.Render.OutputDir, output
			if filepath.IsAbs(output) {
				dir, name = filepath.Dir(output), filepath.Base(output)
			}
			store, err := local.New(local.Config{BaseDir: dir})
			if err != nil {
				return fmt.Errorf("open output directory: %w", err)
			}
			uri, err := a.Pipeline.Publish(cmd.Context(), store, name, res, cfg.Render.Format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), uri)
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("seed", "", "page id to start from")
	flags.String("source", "", "page source: corpus, file, html or redis")
	flags.Int("pages", 0, "generated corpus size for the corpus source")
	flags.String("file", "", "link map file (.json, .yaml or .toml) for the file source")
	flags.String("dir", "", "directory of .html pages for the html source")
	flags.String("redis-addr", "", "redis address for the redis source")
	flags.String("format", "", "output format: text, dot or json")
	flags.Bool("parallel", false, "crawl links concurrently")
	flags.Int("workers", 0, "concurrent lookups for --parallel")
	flags.Int("max-pages", 0, "stop after this many pages (0 means no limit)")
	flags.String("score-mode", "", "occurrence counts every link, edge counts each source page once")
	flags.Float64("rate-limit", 0, "max page source lookups per second (0 means unlimited)")
	flags.StringVarP(&output, "output", "o", "", "write the rendering to this file")
	flags.String("output-dir", "", "base directory for a relative --output (default \"out\")")
	cmd.PreRunE = opts.binder(map[string]string{
		"seed":       "crawler.seed",
		"source":     "source.kind",
		"pages":      "source.corpus_pages",
		"file":       "source.file",
		"dir":        "source.dir",
		"redis-addr": "source.redis_addr",
		"format":     "render.format",
		"parallel":   "crawler.parallel",
		"workers":    "crawler.workers",
		"max-pages":  "crawler.max_pages",
		"score-mode": "crawler.score_mode",
		"rate-limit": "source.rate_limit",
		"output-dir": "render.output_dir",
	})
	return cmd
}
