// Command genmock builds mock voyage-request fixtures from the reference
// catalog. Requests pair random ports with random vessels; the estimate
// fixture is produced by the real estimator with geodesic distances and a
// fixed clock so the output is reproducible.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -requests-out data/mock/voyage_requests.json \
//	  -estimates-out data/mock/voyage_estimates.json \
//	  -count 200 -seed 7
//
// With -publish the requests are also written to the source topic, which is
// handy for driving a local voyaged with KAFKA_ENABLED=true.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/voyage-emissions-service/internal/catalog"
	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/estimator"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

var fixedNow = time.Date(2025, time.March, 3, 6, 0, 0, 0, time.UTC)

type options struct {
	src          catalog.Sources
	count        int
	seed         uint64
	requestsOut  string
	estimatesOut string
	brokers      string
	topic        string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.src.PortsFile, "ports", sharedcfg.EnvOrDefault("PORTS_FILE", "data/ports.json"), "port directory JSON")
	fs.StringVar(&o.src.VesselsFile, "vessels", sharedcfg.EnvOrDefault("VESSELS_FILE", "data/mrv_data.csv"), "MRV emissions CSV")
	fs.StringVar(&o.src.PricesFile, "prices", sharedcfg.EnvOrDefault("ETS_PRICES_FILE", "data/ets_price.csv"), "EUA price CSV")
	fs.IntVar(&o.count, "count", 100, "number of requests to generate")
	fs.Uint64Var(&o.seed, "seed", 1, "random seed")
	fs.StringVar(&o.requestsOut, "requests-out", "", "output path for the request fixture")
	fs.StringVar(&o.estimatesOut, "estimates-out", "", "output path for the estimate fixture")
	fs.StringVar(&o.brokers, "publish", "", "comma-separated Kafka brokers to publish the requests to")
	fs.StringVar(&o.topic, "topic", sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "voyage-requests"), "topic for -publish")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if o.requestsOut == "" && o.brokers == "" {
		fs.Usage()
		return errors.New("missing output: set -requests-out or -publish")
	}
	if o.count <= 0 {
		return errors.New("-count must be positive")
	}

	cat, err := catalog.Load(o.src)
	if err != nil {
		return err
	}

	requests := generate(cat, o.count, o.seed)
	log.Printf("generated %d requests", len(requests))

	if o.requestsOut != "" {
		if err := writeJSON(o.requestsOut, requests); err != nil {
			return fmt.Errorf("writing request fixture: %w", err)
		}
		log.Printf("wrote request fixture: %s", o.requestsOut)
	}

	if o.estimatesOut != "" {
		estimates, err := estimate(cat, requests)
		if err != nil {
			return err
		}
		if err := writeJSON(o.estimatesOut, estimates); err != nil {
			return fmt.Errorf("writing estimate fixture: %w", err)
		}
		log.Printf("wrote estimate fixture: %s", o.estimatesOut)
		printStats(stdout, estimates)
	}

	if o.brokers != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := publish(ctx, sharedcfg.ParseBrokers(o.brokers), o.topic, requests); err != nil {
			return fmt.Errorf("publishing requests: %w", err)
		}
		log.Printf("published %d requests to %s", len(requests), o.topic)
	}
	return nil
}

// generate draws distinct origin and destination ports and a vessel for
// each request. The same seed always yields the same requests.
func generate(cat *catalog.Catalog, n int, seed uint64) []domain.VoyageRequest {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	ports := cat.Ports.All()
	imos := cat.Vessels.IMONumbers()

	out := make([]domain.VoyageRequest, 0, n)
	for i := range n {
		o := rng.IntN(len(ports))
		d := rng.IntN(len(ports))
		if len(ports) > 1 {
			for d == o {
				d = rng.IntN(len(ports))
			}
		}
		out = append(out, domain.VoyageRequest{
			RequestID:   fmt.Sprintf("mock-%04d", i+1),
			IMONumber:   imos[rng.IntN(len(imos))],
			Origin:      ports[o].Coordinate(),
			Destination: ports[d].Coordinate(),
		})
	}
	return out
}

func estimate(cat *catalog.Catalog, requests []domain.VoyageRequest) ([]domain.VoyageEstimate, error) {
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver, err := domain.NewResolver([]domain.DistanceStrategy{domain.GeodesicStrategy{}}, logger)
	if err != nil {
		return nil, err
	}
	est := estimator.New(catalog.Static(cat), resolver, domain.DefaultPhaseInPolicy(2024), observability.NewMetricsForTesting(), logger)

	out := make([]domain.VoyageEstimate, 0, len(requests))
	for _, req := range requests {
		e, err := est.Estimate(context.Background(), req)
		if err != nil {
			return nil, fmt.Errorf("estimate %s: %w", req.RequestID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func publish(ctx context.Context, brokers []string, topic string, requests []domain.VoyageRequest) error {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer w.Close()

	msgs := make([]kafkago.Message, 0, len(requests))
	for _, req := range requests {
		value, err := json.Marshal(req)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafkago.Message{Key: []byte(req.RequestID), Value: value})
	}
	return w.WriteMessages(ctx, msgs...)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated figures for printStats reporting.
type statsResult struct {
	coverage   map[float64]int
	costByYear map[int]float64
	totalNM    float64
	zeroCost   int
}

func collectStats(estimates []domain.VoyageEstimate) statsResult {
	s := statsResult{coverage: map[float64]int{}, costByYear: map[int]float64{}}
	for i := range estimates {
		e := &estimates[i].Emissions
		s.coverage[e.Coverage]++
		s.totalNM += e.DistanceNM
		total := 0.0
		for y, c := range e.CostsByYear {
			s.costByYear[y] += c.Cost
			total += c.Cost
		}
		if total == 0 {
			s.zeroCost++
		}
	}
	return s
}

func printStats(w io.Writer, estimates []domain.VoyageEstimate) {
	stats := collectStats(estimates)

	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Total: %d\n", len(estimates))
	fmt.Fprintf(w, "By coverage: eea=%d, mixed=%d, non-eea=%d\n",
		stats.coverage[1], stats.coverage[0.5], stats.coverage[0])
	fmt.Fprintf(w, "Zero-cost voyages: %d\n", stats.zeroCost)
	fmt.Fprintf(w, "Total distance: %.1f nm\n", stats.totalNM)
	for _, y := range slices.Sorted(maps.Keys(stats.costByYear)) {
		fmt.Fprintf(w, "Cost %d: %.2f EUR\n", y, stats.costByYear[y])
	}
}
