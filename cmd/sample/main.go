// Command sample runs one subsampling pass over a point cloud and writes
// the selected points. The input is either an XYZ file or a seeded
// synthetic cloud; the engine is configured from an optional JSON file
// with per-flag overrides.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/pointstruct/cloud"
	"github.com/banshee-data/pointstruct/internal/config"
	"github.com/banshee-data/pointstruct/internal/version"
	"github.com/banshee-data/pointstruct/sampler"
	"github.com/banshee-data/pointstruct/tensor"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "JSON run config file (flags override its fields)")
	input := flag.String("input", "", "Input XYZ file (default: synthesize a cloud)")
	synth := flag.String("synth", "sphere", "Synthetic cloud when no input: sphere, cube or clusters")
	points := flag.Int("points", 2048, "Synthetic cloud point count")
	output := flag.String("output", "", "Output XYZ filename (defaults to sampled-<timestamp>.xyz)")

	variant := flag.String("variant", "", "Sampling variant: learnable, radius or multiscale")
	samples := flag.Int("samples", 0, "Number of sample slots")
	neighbors := flag.Int("neighbors", 0, "Neighborhood size per slot")
	widths := flag.String("widths", "", "Comma-separated feature transform widths (e.g. 32,128)")
	scales := flag.String("scales", "", "Comma-separated multiscale neighborhood sizes (e.g. 32,64)")
	radius := flag.Float64("radius", 0, "Neighborhood radius for the radius variant")
	global := flag.Bool("global", false, "Concatenate the global max feature before projection")
	temperature := flag.Float64("temperature", 0, "Relaxed selection temperature")
	seed := flag.Int64("seed", 0, "RNG seed for weights and selection noise")
	train := flag.Bool("train", false, "Run the straight-through training path")

	flag.Parse()

	if *showVersion {
		fmt.Println("sample " + version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override file values only when set on the command line.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["variant"] {
		cfg.Variant = variant
	}
	if set["samples"] {
		cfg.NumSamples = samples
	}
	if set["neighbors"] {
		cfg.NeighborLimit = neighbors
	}
	if set["widths"] {
		cfg.Widths, err = parseCSVIntSlice(*widths)
		if err != nil {
			log.Fatalf("Invalid -widths: %v", err)
		}
	}
	if set["scales"] {
		cfg.Scales, err = parseCSVIntSlice(*scales)
		if err != nil {
			log.Fatalf("Invalid -scales: %v", err)
		}
	}
	if set["radius"] {
		cfg.Radius = radius
	}
	if set["global"] {
		cfg.GlobalFeature = global
	}
	if set["temperature"] {
		cfg.Temperature = temperature
	}
	if set["seed"] {
		cfg.Seed = seed
	}
	if set["train"] {
		cfg.Train = train
	}

	engineCfg, err := cfg.SamplerConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	net, err := sampler.New(engineCfg)
	if err != nil {
		log.Fatalf("Failed to build sampler: %v", err)
	}

	c, name, err := loadCloud(*input, *synth, *points, engineCfg.Seed)
	if err != nil {
		log.Fatalf("Failed to load cloud: %v", err)
	}
	log.Printf("Input: %s (%d points, %d feature channels)", name, c.Len(), c.FeatureDim())

	coords, feats, err := cloud.Batch(c)
	if err != nil {
		log.Fatalf("Failed to batch cloud: %v", err)
	}

	start := time.Now()
	res, err := net.Sample(coords, feats, cfg.GetTrain())
	if err != nil {
		log.Fatalf("Sampling failed: %v", err)
	}
	elapsed := time.Since(start)

	out := sampledCloud(coords, res)
	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sampled-%s-%s.xyz", engineCfg.Variant, time.Now().Format("20060102-150405"))
	}
	if err := cloud.WriteXYZFile(filename, out); err != nil {
		log.Fatalf("Could not write output file %s: %v", filename, err)
	}

	log.Printf("Sampled %d of %d points in %v (coverage %.4f)", out.Len(), c.Len(), elapsed, res.Coverage)
	log.Printf("Wrote %s", filename)
}

// loadConfig reads the run config file, or starts from defaults when no
// file is given.
func loadConfig(path string) (*config.RunConfig, error) {
	if path == "" {
		return config.EmptyRunConfig(), nil
	}
	return config.LoadRunConfig(path)
}

// loadCloud reads the input file or synthesizes the requested cloud. The
// returned name labels the input in logs.
func loadCloud(input, synth string, points int, seed int64) (*cloud.Cloud, string, error) {
	if input != "" {
		c, err := cloud.ReadXYZFile(input)
		if err != nil {
			return nil, "", err
		}
		return c, input, nil
	}
	rng := rand.New(rand.NewSource(seed))
	switch synth {
	case "sphere":
		return cloud.UnitSphere(points, rng), "synthetic sphere", nil
	case "cube":
		return cloud.Cube(points, rng), "synthetic cube", nil
	case "clusters":
		return cloud.Clusters(points, 8, 0.1, rng), "synthetic clusters", nil
	default:
		return nil, "", fmt.Errorf("unknown synthetic cloud %q (want sphere, cube or clusters)", synth)
	}
}

// sampledCloud flattens the batch-of-one result into a writable cloud. The
// radius variant reports indices only, so its points are gathered from the
// input coordinates.
func sampledCloud(coords *tensor.Dense, res *sampler.Result) *cloud.Cloud {
	if res.SampledPoints != nil {
		s := res.SampledPoints.Dim(1)
		out := &cloud.Cloud{Points: res.SampledPoints.Reshape(s, 3)}
		if res.SampledFeatures != nil {
			out.Features = res.SampledFeatures.Reshape(s, res.SampledFeatures.Dim(2))
		}
		return out
	}

	picked := tensor.Gather(coords, res.SampledIndices) // (1, s, 3)
	s := picked.Dim(1)
	return &cloud.Cloud{Points: picked.Reshape(s, 3)}
}

// parseCSVIntSlice parses a comma-separated list of ints.
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
