// Package cli implements the seaquote command line: port search, sailing
// distances, and EU ETS cost estimates against the same catalog and distance
// resolver the service uses.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/voyage-emissions-service/internal/catalog"
	"github.com/couchcryptid/voyage-emissions-service/internal/config"
	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/estimator"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// Service is what the commands need from the estimator.
type Service interface {
	SearchPorts(query string, limit int) ([]domain.Port, error)
	PortsByCountry(country string) ([]domain.Port, error)
	Distance(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error)
	CompareDistances(ctx context.Context, origin, dest domain.Coordinate) ([]domain.RouteDistanceResult, error)
	Estimate(ctx context.Context, req domain.VoyageRequest) (domain.VoyageEstimate, error)
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	output   string
	ports    string
	vessels  string
	prices   string
	snapshot string
	debug    bool
}

// app carries the lazily built service through the command tree.
type app struct {
	flags   globalFlags
	service Service
	build   func(*globalFlags, io.Writer) (Service, error)
}

func (a *app) svc(cmd *cobra.Command) (Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	s, err := a.build(&a.flags, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	a.service = s
	return s, nil
}

// NewRootCmd creates the root seaquote command.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, buildService)
}

func newRootCmd(version string, build func(*globalFlags, io.Writer) (Service, error)) *cobra.Command {
	a := &app{build: build}

	cmd := &cobra.Command{
		Use:           "seaquote",
		Short:         "Sea distances and EU ETS cost estimates",
		Long:          "seaquote looks up ports, resolves sailing distances, and estimates EU ETS allowance costs for a vessel voyage.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch a.flags.output {
			case outputTable, outputJSON:
				return nil
			}
			return fmt.Errorf("--output must be %q or %q, got %q", outputTable, outputJSON, a.flags.output)
		},
		Example: `  # Find a port
  seaquote search rotterdam

  # List the ports of a country
  seaquote ports NL

  # Sailing distance between two ports, or between lon,lat pairs
  seaquote distance --from Rotterdam --to Singapore
  seaquote distance --from 4.48,51.92 --to 103.82,1.26

  # Routed and great-circle distances side by side
  seaquote distance --from Rotterdam --to Singapore --compare

  # ETS cost estimate for a vessel
  seaquote estimate --imo 9321483 --from Rotterdam --to Piraeus --output json`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.flags.output, "output", "o", outputTable, "output format (table, json)")
	pf.StringVar(&a.flags.ports, "ports", "", "port directory JSON (default $PORTS_FILE or data/ports.json)")
	pf.StringVar(&a.flags.vessels, "vessels", "", "MRV emissions CSV (default $VESSELS_FILE or data/mrv_data.csv)")
	pf.StringVar(&a.flags.prices, "prices", "", "EUA price CSV (default $ETS_PRICES_FILE or data/ets_price.csv)")
	pf.StringVar(&a.flags.snapshot, "snapshot", "", "catalog snapshot to load instead of the source files")
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newSearchCmd(a),
		newPortsCmd(a),
		newDistanceCmd(a),
		newEstimateCmd(a),
	)
	return cmd
}

// buildService wires the estimator from the environment, with file flags
// taking precedence.
func buildService(f *globalFlags, stderr io.Writer) (Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewMetricsForTesting()

	src := catalog.Sources{
		PortsFile:   firstNonEmpty(f.ports, cfg.PortsFile),
		VesselsFile: firstNonEmpty(f.vessels, cfg.VesselsFile),
		PricesFile:  firstNonEmpty(f.prices, cfg.PricesFile),
		Snapshot:    firstNonEmpty(f.snapshot, cfg.CatalogSnapshot),
	}

	resolver, err := estimator.NewResolver(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}
	return estimator.New(catalog.NewLoader(src, logger), resolver, cfg.PhaseIn, metrics, logger), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
