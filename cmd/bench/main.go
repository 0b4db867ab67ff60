// Command bench compares the sampling variants against a farthest-point
// baseline on a seeded synthetic cloud. It times each variant, records
// coverage, writes PNG plots and an HTML report, and persists the run to a
// sqlite database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/pointstruct/cloud"
	"github.com/banshee-data/pointstruct/internal/runstore"
	"github.com/banshee-data/pointstruct/internal/version"
	"github.com/banshee-data/pointstruct/sampler"
	"github.com/banshee-data/pointstruct/tensor"
)

// measurement is one timed variant pass, reduced to what the plots and the
// run record need.
type measurement struct {
	Name     string
	Coverage float64
	Elapsed  time.Duration
	// Sampled holds the chosen points (B, s, 3).
	Sampled *tensor.Dense
	// Scores holds the squashed score matrix when the variant exposes one.
	Scores *tensor.Dense
}

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	dbPath := flag.String("db", "bench-runs.db", "Sqlite database for run records (empty disables persistence)")
	outDir := flag.String("out", "", "Output directory for plots and report (defaults to bench-<timestamp>)")
	synth := flag.String("synth", "sphere", "Synthetic cloud: sphere, cube or clusters")
	points := flag.Int("points", 2048, "Points per cloud")
	batch := flag.Int("batch", 4, "Clouds per batch")
	samples := flag.Int("samples", 512, "Number of sample slots")
	neighbors := flag.Int("neighbors", 32, "Neighborhood size per slot")
	widths := flag.String("widths", "32,128", "Comma-separated feature transform widths")
	scales := flag.String("scales", "32,64", "Comma-separated multiscale neighborhood sizes")
	radius := flag.Float64("radius", 1.0, "Neighborhood radius for the radius variant")
	seed := flag.Int64("seed", 1, "RNG seed for cloud synthesis and engines")
	train := flag.Bool("train", false, "Run the straight-through training path")
	notes := flag.String("notes", "", "Free-form notes stored with the run record")
	flag.Parse()

	if *showVersion {
		fmt.Println("bench " + version.String())
		return
	}

	widthList, err := parseCSVIntSlice(*widths)
	if err != nil {
		log.Fatalf("Invalid -widths: %v", err)
	}
	scaleList, err := parseCSVIntSlice(*scales)
	if err != nil {
		log.Fatalf("Invalid -scales: %v", err)
	}

	coords, err := synthBatch(*synth, *batch, *points, *seed)
	if err != nil {
		log.Fatalf("Failed to synthesize clouds: %v", err)
	}
	log.Printf("Benchmark input: %s x%d (%d points each, seed %d)", *synth, *batch, *points, *seed)

	base := sampler.Config{
		NumSamples:    *samples,
		NeighborLimit: *neighbors,
		Widths:        widthList,
		Radius:        *radius,
		Scales:        scaleList,
		Seed:          *seed,
	}

	var results []measurement
	for _, variant := range []sampler.Variant{sampler.VariantLearnable, sampler.VariantRadius, sampler.VariantMultiScale} {
		m, err := runVariant(variant, base, coords, *train)
		if err != nil {
			log.Fatalf("Variant %s failed: %v", variant, err)
		}
		log.Printf("%-10s coverage %.4f in %v", m.Name, m.Coverage, m.Elapsed)
		results = append(results, m)
	}

	fps, err := runBaseline(coords, *samples, *seed)
	if err != nil {
		log.Fatalf("Farthest-point baseline failed: %v", err)
	}
	log.Printf("%-10s coverage %.4f in %v", fps.Name, fps.Coverage, fps.Elapsed)
	results = append(results, fps)

	coverages := make([]float64, len(results))
	for i, m := range results {
		coverages[i] = m.Coverage
	}
	log.Printf("Coverage spread: min %.4f max %.4f", floats.Min(coverages), floats.Max(coverages))

	dir := *outDir
	if dir == "" {
		dir = fmt.Sprintf("bench-%s", time.Now().Format("20060102-150405"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Could not create output dir %s: %v", dir, err)
	}

	for _, m := range results {
		file := filepath.Join(dir, fmt.Sprintf("sampled_%s.png", m.Name))
		if err := scatterPNG(file, m.Name, coords, m.Sampled); err != nil {
			log.Fatalf("Could not write %s: %v", file, err)
		}
	}
	for _, m := range results {
		if m.Scores == nil {
			continue
		}
		file := filepath.Join(dir, fmt.Sprintf("scores_%s.png", m.Name))
		if err := scoreHistogramPNG(file, m.Name, m.Scores); err != nil {
			log.Fatalf("Could not write %s: %v", file, err)
		}
	}

	reportFile := filepath.Join(dir, "report.html")
	if err := writeReport(reportFile, *synth, coords, results); err != nil {
		log.Fatalf("Could not write report: %v", err)
	}
	log.Printf("Wrote plots and report to %s", dir)

	if *dbPath != "" {
		if err := persistRun(*dbPath, *synth, coords, base, *train, *notes, results); err != nil {
			log.Fatalf("Could not persist run: %v", err)
		}
		log.Printf("Recorded run in %s", *dbPath)
	}
}

// runVariant builds an engine for one variant and times a single forward
// pass over the batch.
func runVariant(variant sampler.Variant, base sampler.Config, coords *tensor.Dense, train bool) (measurement, error) {
	cfg := base
	cfg.Variant = variant
	net, err := sampler.New(cfg)
	if err != nil {
		return measurement{}, err
	}

	start := time.Now()
	res, err := net.Sample(coords, nil, train)
	if err != nil {
		return measurement{}, err
	}
	elapsed := time.Since(start)

	sampled := res.SampledPoints
	if sampled == nil {
		// The radius variant reports indices only.
		sampled = tensor.Gather(coords, res.SampledIndices)
	}
	return measurement{
		Name:     variant.String(),
		Coverage: res.Coverage,
		Elapsed:  elapsed,
		Sampled:  sampled,
		Scores:   res.Weights,
	}, nil
}

// runBaseline times the farthest-point heuristic the learnable variants are
// compared against. Its selections are distinct by construction, so its
// coverage is the sampling ratio.
func runBaseline(coords *tensor.Dense, k int, seed int64) (measurement, error) {
	rng := rand.New(rand.NewSource(seed))
	start := time.Now()
	idx, err := sampler.FarthestPoint(coords, k, rng)
	if err != nil {
		return measurement{}, err
	}
	elapsed := time.Since(start)
	return measurement{
		Name:     "fps",
		Coverage: float64(k) / float64(coords.Dim(1)),
		Elapsed:  elapsed,
		Sampled:  tensor.Gather(coords, idx),
	}, nil
}

// synthBatch generates a batch of seeded synthetic clouds and stacks them.
func synthBatch(synth string, batch, points int, seed int64) (*tensor.Dense, error) {
	rng := rand.New(rand.NewSource(seed))
	clouds := make([]*cloud.Cloud, batch)
	for i := range clouds {
		switch synth {
		case "sphere":
			clouds[i] = cloud.UnitSphere(points, rng)
		case "cube":
			clouds[i] = cloud.Cube(points, rng)
		case "clusters":
			clouds[i] = cloud.Clusters(points, 8, 0.1, rng)
		default:
			return nil, fmt.Errorf("unknown synthetic cloud %q (want sphere, cube or clusters)", synth)
		}
	}
	coords, _, err := cloud.Batch(clouds...)
	if err != nil {
		return nil, err
	}
	return coords, nil
}

func parseCSVIntSlice(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// persistRun stores one run row plus one metric row per measurement.
func persistRun(dbPath, synth string, coords *tensor.Dense, base sampler.Config, train bool, notes string, results []measurement) error {
	store, err := runstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	cfgJSON, err := json.Marshal(map[string]interface{}{
		"num_samples":    base.NumSamples,
		"neighbor_limit": base.NeighborLimit,
		"widths":         base.Widths,
		"scales":         base.Scales,
		"radius":         base.Radius,
		"seed":           base.Seed,
		"train":          train,
	})
	if err != nil {
		return fmt.Errorf("marshaling run config: %w", err)
	}

	run := runstore.NewRun(synth, coords.Dim(0), coords.Dim(1), cfgJSON, notes)
	if err := store.InsertRun(run); err != nil {
		return err
	}
	for _, m := range results {
		metric := runstore.Metric{
			RunID:         run.RunID,
			Variant:       m.Name,
			NumSamples:    base.NumSamples,
			NeighborLimit: base.NeighborLimit,
			Coverage:      m.Coverage,
			ElapsedMS:     float64(m.Elapsed.Microseconds()) / 1000.0,
		}
		if err := store.InsertMetric(metric); err != nil {
			return err
		}
	}
	return nil
}
