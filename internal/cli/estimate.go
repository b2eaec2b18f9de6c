package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

type routeFlags struct {
	from string
	to   string
}

func (r *routeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.from, "from", "", "origin port name or lon,lat")
	cmd.Flags().StringVar(&r.to, "to", "", "destination port name or lon,lat")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (r *routeFlags) resolve(svc Service) (origin, dest domain.Coordinate, err error) {
	if origin, _, err = resolvePoint(svc, r.from); err != nil {
		return origin, dest, fmt.Errorf("--from: %w", err)
	}
	if dest, _, err = resolvePoint(svc, r.to); err != nil {
		return origin, dest, fmt.Errorf("--to: %w", err)
	}
	return origin, dest, nil
}

func newDistanceCmd(a *app) *cobra.Command {
	var (
		route   routeFlags
		compare bool
	)
	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Resolve the sailing distance between two points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.svc(cmd)
			if err != nil {
				return err
			}
			origin, dest, err := route.resolve(svc)
			if err != nil {
				return err
			}
			if compare {
				results, err := svc.CompareDistances(cmd.Context(), origin, dest)
				if err != nil {
					return err
				}
				return renderComparison(cmd.OutOrStdout(), a.flags.output, results)
			}
			result, err := svc.Distance(cmd.Context(), origin, dest)
			if err != nil {
				return err
			}
			if err := renderDistance(cmd.OutOrStdout(), a.flags.output, result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("%w: %s", domain.ErrDistanceUnavailable, result.Error)
			}
			return nil
		},
	}
	route.register(cmd)
	cmd.Flags().BoolVar(&compare, "compare", false, "run every distance method and show the results side by side")
	return cmd
}

func newEstimateCmd(a *app) *cobra.Command {
	var (
		route routeFlags
		imo   string
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate EU ETS costs for a vessel voyage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if imo == "" {
				return errors.New("--imo is required")
			}
			svc, err := a.svc(cmd)
			if err != nil {
				return err
			}
			origin, dest, err := route.resolve(svc)
			if err != nil {
				return err
			}
			est, err := svc.Estimate(cmd.Context(), domain.VoyageRequest{
				IMONumber:   imo,
				Origin:      origin,
				Destination: dest,
			})
			if err != nil {
				return err
			}
			return renderEstimate(cmd.OutOrStdout(), a.flags.output, est)
		},
	}
	route.register(cmd)
	cmd.Flags().StringVar(&imo, "imo", "", "vessel IMO number")
	return cmd
}

func renderDistance(w io.Writer, format string, r domain.RouteDistanceResult) error {
	if format == outputJSON {
		return writeJSON(w, r)
	}
	if !r.Success {
		fmt.Fprintf(w, "Distance unavailable (%s): %s\n", r.Method, r.Error)
		return nil
	}
	fmt.Fprintf(w, "Distance:  %.1f km / %.1f nm\n", r.DistanceKM, r.DistanceNM)
	fmt.Fprintf(w, "Method:    %s\n", r.Method)
	if r.WaypointCount > 0 {
		fmt.Fprintf(w, "Waypoints: %d\n", r.WaypointCount)
	}
	return nil
}

func renderComparison(w io.Writer, format string, results []domain.RouteDistanceResult) error {
	if format == outputJSON {
		if err := writeJSON(w, results); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tKM\tNM\tWAYPOINTS\tSTATUS")
		for _, r := range results {
			if !r.Success {
				fmt.Fprintf(tw, "%s\t-\t-\t-\tfailed: %s\n", r.Method, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%d\tok\n", r.Method, r.DistanceKM, r.DistanceNM, r.WaypointCount)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if slices.ContainsFunc(results, func(r domain.RouteDistanceResult) bool { return r.Success }) {
		return nil
	}
	return domain.ErrDistanceUnavailable
}

func renderEstimate(w io.Writer, format string, est domain.VoyageEstimate) error {
	if format == outputJSON {
		return writeJSON(w, est)
	}

	e := est.Emissions
	fmt.Fprintln(w, "EU ETS Voyage Estimate")
	fmt.Fprintln(w, "======================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vessel:      IMO %s\n", e.IMONumber)
	fmt.Fprintf(w, "Origin:      %s\n", portLabel(est.OriginPort))
	fmt.Fprintf(w, "Destination: %s\n", portLabel(est.DestinationPort))
	fmt.Fprintf(w, "Distance:    %.1f nm (%s)\n", e.DistanceNM, est.Distance.Method)
	fmt.Fprintf(w, "Emissions:   %.2f t CO2 / %.2f t CO2eq\n", e.CO2EmissionsKG/1000, e.CO2eqEmissionsKG/1000)
	fmt.Fprintf(w, "Coverage:    %s\n", e.CoverageDescription)
	fmt.Fprintln(w)

	if len(e.CostsByYear) == 0 {
		fmt.Fprintln(w, "No EUA prices loaded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "YEAR\tPHASE-IN\tBASIS\tCOVERED t\tEUR/t\tCOST EUR\t")
	for _, y := range slices.Sorted(maps.Keys(e.CostsByYear)) {
		c := e.CostsByYear[y]
		fmt.Fprintf(tw, "%d\t%d%%\t%s\t%.2f\t%.2f\t%.2f\t\n", y, c.PhaseInPct, c.Basis, c.CoveredEmissionsT, c.PricePerTonne, c.Cost)
	}
	return tw.Flush()
}

func portLabel(p *domain.Port) string {
	if p == nil {
		return "(no matching port, treated as non-EEA)"
	}
	eea := ""
	if p.IsEEA {
		eea = ", EEA"
	}
	return fmt.Sprintf("%s (%s%s)", p.Name, p.Country, eea)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
