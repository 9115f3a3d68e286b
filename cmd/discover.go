package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"servicewatch/catalog"
	"servicewatch/discover"
	"servicewatch/probe"
	"servicewatch/report"
	"servicewatch/sitemap"
)

func newDiscoverCmd() *cobra.Command {
	var (
		catalogPath string
		roots       []string
		limit       int
		noRobots    bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Resolve sitemaps and surface service pages missing from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.DiscoveryLimit = limit
			}
			if len(roots) == 0 {
				roots = cfg.SitemapRoots
			}
			if len(roots) == 0 {
				return errors.New("no sitemap roots: pass --sitemap or set sitemapRoots in the config file")
			}

			// The catalog is optional here: without one, every service-shaped
			// page is a candidate.
			var services []catalog.ServiceRecord
			if catalogPath != "" {
				services, err = catalog.LoadFile(catalogPath)
				if err != nil {
					return err
				}
			}

			matcher, err := cfg.Matcher()
			if err != nil {
				return err
			}

			log := newLogger()
			defer func() { _ = log.Sync() }()

			var robots *discover.RobotsChecker
			if !noRobots {
				robots = discover.NewRobotsChecker(cfg.ProbeConfig().InfoTimeout, log)
			}

			resolver := sitemap.New(cfg.SitemapConfig(), log)
			prober := probe.New(cfg.ProbeConfig(), nil, log)
			pipeline := discover.New(resolver, prober, matcher, robots, cfg.DiscoverConfig(), log)

			rep, err := pipeline.Run(cmd.Context(), services, roots)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return report.WriteDiscoveryJSON(out, rep)
			}
			report.PrintDiscovery(out, rep)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to the services catalog JSON (candidates already cataloged are skipped)")
	cmd.Flags().StringArrayVar(&roots, "sitemap", nil, "sitemap root URL (repeatable; overrides config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max candidates to probe (overrides config)")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	return cmd
}
