package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/basemap/internal/geodata"
)

var (
	fetchResolution string
	fetchCacheDir   string
	fetchWorkers    int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [feature...]",
	Short: "Pre-download datasets into the cache",
	Long: `Fetch downloads the named features (coastline, countries, states,
counties, land, ocean, lakes) at the chosen resolution so later renders
work offline. Without arguments every dataset at every resolution is
fetched. Already-cached datasets are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		specs, err := fetchSpecs(args, fetchResolution)
		if err != nil {
			return err
		}

		manager, err := geodata.NewManager(geodata.ManagerOptions{
			CacheDir: fetchCacheDir,
			Logger:   &logger,
		})
		if err != nil {
			return fmt.Errorf("open dataset cache: %w", err)
		}

		var missing []geodata.Spec
		present := 0
		for _, spec := range specs {
			if manager.Has(spec) {
				logger.Debug().Str("dataset", spec.ID).Msg("already cached")
				present++
				continue
			}
			missing = append(missing, spec)
		}

		errs := geodata.FetchAll(manager, missing, geodata.FetchOptions{
			Workers:    fetchWorkers,
			SkipErrors: true,
			Progress: func(done, total int) {
				logger.Info().Int("done", done).Int("total", total).Msg("fetching")
			},
		})
		for _, err := range errs {
			logger.Error().Err(err).Msg("fetch failed")
		}

		logger.Info().
			Int("fetched", len(missing)-len(errs)).
			Int("cached", present).
			Int("failed", len(errs)).
			Str("dir", manager.Dir()).
			Msg("fetch complete")
		if len(errs) > 0 {
			return fmt.Errorf("%d of %d datasets failed", len(errs), len(specs))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchResolution, "resolution", "r", "all",
		"resolution to fetch: l, m, h, a dataset scale, or all")
	fetchCmd.Flags().StringVar(&fetchCacheDir, "cache-dir", "",
		"dataset cache directory (default the user cache dir)")
	fetchCmd.Flags().IntVar(&fetchWorkers, "workers", 0,
		"concurrent downloads (default the CPU count)")
	rootCmd.AddCommand(fetchCmd)
}

// fetchSpecs expands feature names and a resolution selector into
// concrete dataset specs.
func fetchSpecs(names []string, res string) ([]geodata.Spec, error) {
	if len(names) == 0 && res == "all" {
		return geodata.AllSpecs(), nil
	}

	features := geodata.Features()
	if len(names) > 0 {
		features = make([]geodata.Feature, 0, len(names))
		for _, name := range names {
			f, err := geodata.FeatureByName(strings.ToLower(name))
			if err != nil {
				return nil, err
			}
			features = append(features, f)
		}
	}

	var specs []geodata.Spec
	for _, f := range features {
		scales, err := scalesFor(f, res)
		if err != nil {
			return nil, err
		}
		for _, scale := range scales {
			spec, err := geodata.DatasetFor(f, scale)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// scalesFor resolves the -r selector for one feature. The l/m/h aliases
// map onto each feature's own scale vocabulary.
func scalesFor(f geodata.Feature, res string) ([]string, error) {
	all := geodata.NEScales
	if f == geodata.Counties {
		all = geodata.CountyScales
	}
	if res == "all" {
		return all, nil
	}
	switch res {
	case "l":
		return all[:1], nil
	case "m":
		return all[1:2], nil
	case "h":
		return all[2:], nil
	}
	for _, s := range all {
		if s == res {
			return []string{s}, nil
		}
	}
	return nil, errors.New("invalid resolution " + res +
		" (valid: l, m, h, all, " + strings.Join(all, ", ") + ")")
}
