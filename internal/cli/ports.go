package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

func newSearchCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ports by name, country, region or alias",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.svc(cmd)
			if err != nil {
				return err
			}
			ports, err := svc.SearchPorts(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return renderPorts(cmd.OutOrStdout(), a.flags.output, ports)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	return cmd
}

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports <country>",
		Short: "List the ports of a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.svc(cmd)
			if err != nil {
				return err
			}
			ports, err := svc.PortsByCountry(args[0])
			if err != nil {
				return err
			}
			return renderPorts(cmd.OutOrStdout(), a.flags.output, ports)
		},
	}
}

func renderPorts(w io.Writer, format string, ports []domain.Port) error {
	if format == outputJSON {
		return writeJSON(w, ports)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No ports found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOUNTRY\tREGION\tLON\tLAT\tEEA")
	for _, p := range ports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n", p.Name, p.Country, p.Region, p.Lon, p.Lat, yesNo(p.IsEEA))
	}
	return tw.Flush()
}

// resolvePoint turns a --from/--to value into a coordinate. "lon,lat" is
// parsed directly; anything else is looked up as a port name and the best
// match is used.
func resolvePoint(svc Service, ref string) (domain.Coordinate, string, error) {
	if lon, lat, ok := strings.Cut(ref, ","); ok {
		x, errX := strconv.ParseFloat(strings.TrimSpace(lon), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		if errX == nil && errY == nil {
			return domain.Coordinate{Lon: x, Lat: y}, ref, nil
		}
	}
	ports, err := svc.SearchPorts(ref, 1)
	if err != nil {
		return domain.Coordinate{}, "", err
	}
	if len(ports) == 0 {
		return domain.Coordinate{}, "", fmt.Errorf("no port matches %q", ref)
	}
	return ports[0].Coordinate(), ports[0].Name, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
