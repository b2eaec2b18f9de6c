// Command validate checks the reference data the service loads at startup:
// the port directory, the MRV vessel emission factors, and the EUA price
// schedule. It reports counts, dropped vessel rows, and priced years, and
// exits non-zero when any source fails to load or an integrity check fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -ports data/ports.json \
//	  -vessels data/mrv_data.csv \
//	  -prices data/ets_price.csv \
//	  -write-snapshot data/catalog.msgpack.zst
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/voyage-emissions-service/internal/catalog"
	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ports := fs.String("ports", sharedcfg.EnvOrDefault("PORTS_FILE", "data/ports.json"), "port directory JSON")
	vessels := fs.String("vessels", sharedcfg.EnvOrDefault("VESSELS_FILE", "data/mrv_data.csv"), "MRV emissions CSV")
	prices := fs.String("prices", sharedcfg.EnvOrDefault("ETS_PRICES_FILE", "data/ets_price.csv"), "EUA price CSV")
	snapshot := fs.String("snapshot", "", "validate a catalog snapshot instead of the source files")
	writeSnapshot := fs.String("write-snapshot", "", "write a catalog snapshot to this path when validation passes")
	firstYear := fs.Int("first-year", 2024, "first ETS year for the phase-in check")
	showDropped := fs.Int("show-dropped", 20, "number of dropped vessel rows to list")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	fmt.Fprintln(stdout, "=== Voyage Reference Data Validation ===")
	fmt.Fprintln(stdout)

	c, err := catalog.Load(catalog.Sources{
		PortsFile:   *ports,
		VesselsFile: *vessels,
		PricesFile:  *prices,
		Snapshot:    *snapshot,
	})
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	phases := []*phase{
		validatePorts(c.Ports),
		validateVessels(c.Vessels, c.VesselStats, *showDropped),
		validatePrices(c.Prices, domain.DefaultPhaseInPolicy(*firstYear)),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Records: %d ports, %d vessels (%d rows, %d dropped, %d duplicate), %d price years\n",
		c.Ports.Len(), c.Vessels.Len(), c.VesselStats.Total, c.VesselStats.Dropped, c.VesselStats.Duplicates, len(c.Prices))

	for _, p := range phases {
		if len(p.notes) == 0 && p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for _, n := range p.notes {
			fmt.Fprintf(stdout, "  note: %s\n", n)
		}
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if !allPassed {
		fmt.Fprintln(stdout, "\nValidation FAILED.")
		return 1
	}

	if *writeSnapshot != "" {
		if err := catalog.WriteSnapshot(*writeSnapshot, c); err != nil {
			fmt.Fprintf(stderr, "FATAL: write snapshot: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "\nSnapshot written to %s\n", *writeSnapshot)
	}

	fmt.Fprintln(stdout, "\nAll validations passed.")
	return 0
}

// validatePorts flags duplicate names within a country and reports EEA coverage.
func validatePorts(dir *domain.PortDirectory) *phase {
	p := &phase{name: "Ports"}

	seen := map[string]bool{}
	eea := 0
	for _, port := range dir.All() {
		key := strings.ToLower(port.Country + "|" + port.Name)
		if seen[key] {
			p.errorf("duplicate port %q in %s", port.Name, port.Country)
		}
		seen[key] = true
		if port.IsEEA {
			eea++
		}
		if port.Country == "" {
			p.notef("port %q has no country", port.Name)
		}
	}
	if eea == 0 {
		p.errorf("no EEA ports: every voyage would cost zero")
	}
	p.notef("%d of %d ports are EEA", eea, dir.Len())
	return p
}

// validateVessels lists dropped rows; drops are reported but do not fail the run.
func validateVessels(reg *domain.VesselRegistry, stats catalog.VesselLoadStats, show int) *phase {
	p := &phase{name: "Vessels"}

	for _, v := range reg.All() {
		if err := v.Validate(); err != nil {
			p.errorf("%v", err)
		}
		if v.CO2eqPerNM < v.CO2PerNM {
			p.notef("IMO %s: CO2eq factor %.2f below CO2 factor %.2f", v.IMONumber, v.CO2eqPerNM, v.CO2PerNM)
		}
	}

	for i, d := range stats.DroppedRows {
		if i >= show {
			p.notef("... %d more dropped rows", stats.Dropped-show)
			break
		}
		imo := d.IMO
		if imo == "" {
			imo = "-"
		}
		p.notef("dropped line %d (IMO %s): %s", d.Line, imo, d.Reason)
	}
	return p
}

// validatePrices checks the price schedule against the phase-in policy.
func validatePrices(prices domain.PriceSchedule, policy domain.PhaseInPolicy) *phase {
	p := &phase{name: "EUA prices"}

	years := prices.Years()
	if len(years) == 0 {
		p.errorf("price schedule is empty: no yearly costs can be reported")
		return p
	}
	for _, y := range years {
		rule := policy.Rule(y)
		if rule.Fraction == 0 {
			p.notef("%d precedes the first ETS year %d and will cost zero", y, policy.FirstYear)
			continue
		}
		p.notef("%d: %.2f EUR/t, %.0f%% of %s", y, prices[y], rule.Fraction*100, rule.Basis)
	}
	return p
}
