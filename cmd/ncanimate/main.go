// Command ncanimate inspects NetCDF file batches and extracts raster
// frames for animation. It discovers and orders files, checks their
// consistency, samples a shared value range, and exports reduced frames as
// JSON for an external renderer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridframe/ncanimate/internal/adapter/ncfile"
	"github.com/gridframe/ncanimate/internal/config"
	"github.com/gridframe/ncanimate/internal/fileset"
	"github.com/gridframe/ncanimate/internal/grid"
	"github.com/gridframe/ncanimate/internal/usecase"
)

const version = "0.1.0"

func main() {
	log.SetFlags(0)
	log.SetPrefix("ncanimate: ")

	var (
		showVersion = flag.Bool("version", false, "Show version information")

		configPath = flag.String("config", "", "Load run configuration from a TOML file")
		saveConfig = flag.String("save-config", "", "Write the effective configuration to a TOML file and exit")

		variable  = flag.String("variable", "", "Variable to render (default: first variable common to the batch)")
		frameDim  = flag.String("frame-dim", "", "Animation dimension (default: first non-spatial dimension)")
		level     = flag.Int("level", -1, "Vertical level index for 4D+ variables (-1 averages levels)")
		frame     = flag.Int("frame", 0, "Frame index for single-frame modes")
		percent   = flag.Int("percentile", 0, "Mask cells below this percentile of positive values")
		ignore    = flag.String("ignore", "", "Comma-separated values to mask exactly")
		zoom      = flag.Float64("zoom", 1, "Zoom factor (1 = full grid)")
		centerLat = flag.Float64("zoom-center-lat", math.NaN(), "Zoom center latitude")
		centerLon = flag.Float64("zoom-center-lon", math.NaN(), "Zoom center longitude")
		sampleCap = flag.Int("sample-cap", 0, "Files to sample for the global range (default 10)")
		localOnly = flag.Bool("local-range", false, "Scale each frame by its own range instead of a shared one")

		list     = flag.Bool("list", false, "List the ordered file batch and exit")
		validate = flag.Bool("validate", false, "Report consistency divergences across the batch and exit")
		info     = flag.Bool("info", false, "Show variables and memory estimate for the batch and exit")
		scanOnly = flag.Bool("scan", false, "Print the sampled global value range and exit")

		export    = flag.Bool("export", false, "Export one JSON frame per file")
		outDir    = flag.String("out", ".", "Directory for exported frames")
		overwrite = flag.Bool("overwrite", false, "Overwrite existing exported frames")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("ncanimate version %s\n", version)
		return
	}

	// Start from defaults, then the config file, then flags.
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	applyFlags(&cfg, flag.CommandLine, *variable, *frameDim, *level, *percent,
		*ignore, *zoom, *centerLat, *centerLon, *sampleCap, *localOnly, *overwrite)

	if flag.NArg() > 0 {
		cfg.FilePattern = flag.Arg(0)
	}

	if *saveConfig != "" {
		if err := config.Save(*saveConfig, cfg); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote configuration to %s\n", *saveConfig)
		return
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "ncanimate: %s\n", p)
		}
		os.Exit(1)
	}

	fs, err := fileset.Discover(cfg.FilePattern)
	if err != nil {
		log.Fatal(err)
	}
	if fs.Len() == 0 {
		log.Fatalf("no NetCDF files match %q", cfg.FilePattern)
	}

	producer := usecase.NewProducer(ncfile.Opener())

	switch {
	case *list:
		runList(fs)
	case *validate:
		runValidate(fs, producer)
	case *info:
		runInfo(fs, producer, &cfg)
	case *scanOnly:
		runScan(fs, producer, cfg)
	case *export:
		runExport(fs, producer, cfg, *outDir, *frame)
	default:
		printUsage()
		os.Exit(1)
	}
}

// applyFlags overlays explicitly-set flags on the configuration, so a flag
// always beats the config file but an unset flag never clobbers it.
func applyFlags(cfg *config.Config, fset *flag.FlagSet, variable, frameDim string,
	level, percent int, ignore string, zoom, centerLat, centerLon float64,
	sampleCap int, localOnly, overwrite bool) {
	set := map[string]bool{}
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["variable"] {
		cfg.Variable = variable
	}
	if set["frame-dim"] {
		cfg.FrameDim = frameDim
	}
	if set["level"] {
		if level >= 0 {
			cfg.LevelIndex = &level
		} else {
			cfg.LevelIndex = nil
		}
	}
	if set["percentile"] {
		cfg.Percentile = percent
	}
	if set["ignore"] {
		cfg.IgnoreValues = nil
		for _, part := range strings.Split(ignore, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				log.Fatalf("invalid ignore value %q: %v", part, err)
			}
			cfg.IgnoreValues = append(cfg.IgnoreValues, v)
		}
	}
	if set["zoom"] {
		cfg.ZoomFactor = zoom
	}
	if set["zoom-center-lat"] {
		cfg.ZoomCenterLat = &centerLat
	}
	if set["zoom-center-lon"] {
		cfg.ZoomCenterLon = &centerLon
	}
	if set["sample-cap"] {
		cfg.SampleCap = sampleCap
	}
	if set["local-range"] {
		cfg.GlobalRange = !localOnly
	}
	if set["overwrite"] {
		cfg.OverwriteExisting = overwrite
	}
}

func frameRequest(cfg config.Config) usecase.FrameRequest {
	return usecase.FrameRequest{
		Variable: cfg.Variable,
		FrameDim: cfg.FrameDim,
		Level:    cfg.LevelIndex,
		Filter:   cfg.ToFilterSpec(),
		Zoom:     cfg.ToZoomSpec(),
	}
}

// pickVariable fills an empty variable from the batch: the first variable
// present in every file.
func pickVariable(fs *fileset.FileSet, producer *usecase.Producer, cfg *config.Config) error {
	if cfg.Variable != "" {
		return nil
	}
	common, err := fileset.CommonVariables(fs, producer.Open)
	if err != nil {
		return err
	}

	ds, err := producer.Open(fs.Files[0].Path)
	if err != nil {
		return fmt.Errorf("open %q: %w", fs.Files[0].Path, err)
	}
	defer ds.Close()

	// First common variable that looks like gridded data: at least rank 2
	// and not a coordinate variable named after its own dimension.
	for _, name := range common {
		v, err := ds.Variable(name)
		if err != nil {
			continue
		}
		if len(v.Dims()) < 2 {
			continue
		}
		coordLike := false
		for _, d := range v.Dims() {
			if d == name {
				coordLike = true
				break
			}
		}
		if coordLike {
			continue
		}
		cfg.Variable = name
		return nil
	}
	return fmt.Errorf("no common data variable found, use -variable")
}

func runList(fs *fileset.FileSet) {
	for _, f := range fs.Files {
		if f.HasTimestep {
			fmt.Printf("%8d  %-20s %s\n", f.Timestep, f.Strategy, f.Path)
		} else {
			fmt.Printf("%8s  %-20s %s\n", "-", "-", f.Path)
		}
	}
	fmt.Printf("%d files\n", fs.Len())
}

func runValidate(fs *fileset.FileSet, producer *usecase.Producer) {
	report := fileset.ValidateConsistency(fs, producer.Open)
	if len(report) == 0 {
		fmt.Printf("%d files, consistent with %s\n", fs.Len(), fs.Files[0].Path)
		return
	}
	for _, msg := range report {
		fmt.Println(msg)
	}
	fmt.Printf("%d divergences across %d files\n", len(report), fs.Len())
}

func runInfo(fs *fileset.FileSet, producer *usecase.Producer, cfg *config.Config) {
	common, err := fileset.CommonVariables(fs, producer.Open)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Files: %d\n", fs.Len())
	fmt.Printf("Common variables: %s\n", strings.Join(common, ", "))

	if err := pickVariable(fs, producer, cfg); err != nil {
		log.Fatal(err)
	}
	mb, err := fileset.EstimateMemoryMB(fs, producer.Open, cfg.Variable)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Estimated size of %q across the batch: %.1f MB\n", cfg.Variable, mb)
}

func runScan(fs *fileset.FileSet, producer *usecase.Producer, cfg config.Config) {
	if err := pickVariable(fs, producer, &cfg); err != nil {
		log.Fatal(err)
	}
	r, sampled, err := producer.GlobalRange(fs, frameRequest(cfg), cfg.SampleCap)
	if err != nil {
		log.Fatal(err)
	}
	if r == nil {
		fmt.Println("No usable values in the sampled files")
		return
	}
	fmt.Printf("Value range of %q over %d sampled files: [%g, %g]\n", cfg.Variable, sampled, r.Min, r.Max)
}

// exportedFrame is the JSON layout consumed by the renderer.
type exportedFrame struct {
	Source    string       `json:"source"`
	Variable  string       `json:"variable"`
	Units     string       `json:"units,omitempty"`
	CoordKind string       `json:"coord_kind"`
	Lats      []float64    `json:"lats"`
	Lons      []float64    `json:"lons"`
	VMin      *float64     `json:"vmin,omitempty"`
	VMax      *float64     `json:"vmax,omitempty"`
	Values    [][]*float64 `json:"values"`
	FPS       int          `json:"fps"`
}

func runExport(fs *fileset.FileSet, producer *usecase.Producer, cfg config.Config, outDir string, frameIndex int) {
	if cfg.Format != "json" {
		log.Fatalf("format %q needs an external renderer, use -save-config and export json frames", cfg.Format)
	}
	if err := pickVariable(fs, producer, &cfg); err != nil {
		log.Fatal(err)
	}

	req := frameRequest(cfg)
	req.FrameIndex = frameIndex

	// A shared range keeps the color scale steady across the animation.
	var vmin, vmax *float64
	if cfg.GlobalRange {
		r, _, err := producer.GlobalRange(fs, req, cfg.SampleCap)
		if err != nil {
			log.Fatal(err)
		}
		if r != nil {
			vmin, vmax = &r.Min, &r.Max
		}
	}

	frames, skipped, err := producer.FrameSequence(fs, req)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	written := 0
	for i, f := range frames {
		path := filepath.Join(outDir, fmt.Sprintf("frame_%04d.json", i))
		if !cfg.OverwriteExisting {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(os.Stderr, "Warning: %s exists, skipping (use -overwrite)\n", path)
				continue
			}
		}

		out := exportedFrame{
			Source:    f.Source,
			Variable:  cfg.Variable,
			Units:     f.Units,
			CoordKind: "real",
			Lats:      f.Lats.Values,
			Lons:      f.Lons.Values,
			VMin:      f.VMin,
			VMax:      f.VMax,
			Values:    nullableRows(f.Raster),
			FPS:       cfg.FPS,
		}
		if f.Kind == grid.CoordsSynthetic {
			out.CoordKind = "synthetic"
		}
		if vmin != nil {
			out.VMin, out.VMax = vmin, vmax
		}

		if err := writeJSON(path, out); err != nil {
			log.Fatal(err)
		}
		written++
	}

	fmt.Printf("Exported %d frames to %s\n", written, outDir)
	if len(skipped) > 0 {
		fmt.Printf("Skipped %d files\n", len(skipped))
	}
}

// nullableRows converts raster rows for JSON: NaN has no JSON encoding, so
// masked cells become null.
func nullableRows(r grid.Raster) [][]*float64 {
	out := make([][]*float64, len(r))
	for i, row := range r {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if math.IsNaN(row[j]) {
				continue
			}
			v := row[j]
			out[i][j] = &v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("ncanimate v%s - NetCDF raster frame extraction\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  ncanimate [flags] <file-or-glob>")
	fmt.Println()
	fmt.Println("MODES (one required):")
	fmt.Println("  -list          List the ordered file batch")
	fmt.Println("  -validate      Report consistency divergences across the batch")
	fmt.Println("  -info          Show common variables and a memory estimate")
	fmt.Println("  -scan          Print the sampled global value range")
	fmt.Println("  -export        Export one JSON frame per file")
	fmt.Println()
	fmt.Println("SELECTION:")
	fmt.Println("  -variable      Variable to render (default: first common data variable)")
	fmt.Println("  -frame-dim     Animation dimension (default: first non-spatial dimension)")
	fmt.Println("  -level         Vertical level index (-1 averages levels)")
	fmt.Println("  -frame         Frame index along the animation dimension")
	fmt.Println()
	fmt.Println("MASKING AND CROP:")
	fmt.Println("  -percentile    Mask cells below this percentile of positive values")
	fmt.Println("  -ignore        Comma-separated values to mask exactly (e.g. 0,-999)")
	fmt.Println("  -zoom          Zoom factor (1 = full grid)")
	fmt.Println("  -zoom-center-lat, -zoom-center-lon")
	fmt.Println("                 Zoom center (requires real coordinates in the file)")
	fmt.Println()
	fmt.Println("RANGE AND OUTPUT:")
	fmt.Println("  -local-range   Per-frame scaling instead of a shared range")
	fmt.Println("  -sample-cap    Files sampled for the shared range (default 10)")
	fmt.Println("  -out           Directory for exported frames (default .)")
	fmt.Println("  -overwrite     Overwrite existing exported frames")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  -config        Load a TOML run configuration")
	fmt.Println("  -save-config   Write the effective configuration and exit")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  ncanimate -list 'output_*.nc'")
	fmt.Println("  ncanimate -info 'run/*.nc'")
	fmt.Println("  ncanimate -scan -variable temperature 'run/*.nc'")
	fmt.Println("  ncanimate -export -variable salinity -percentile 10 -out frames 'run/*.nc'")
	fmt.Println()
}
