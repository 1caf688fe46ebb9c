package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cinelab/chart-audit/internal/oracle"
	"github.com/cinelab/chart-audit/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true, ".bmp": true, ".gif": true,
}

func main() {
	var (
		template    string
		cornersArg  string
		oracleURL   string
		tolerance   float64
		outDir      string
		jsonOut     bool
		verbose     bool
		showVersion bool
	)
	flag.StringVar(&template, "template", "", "Chart template key (e.g. colorchecker24); empty retro-matches by patch count")
	flag.StringVar(&cornersArg, "corners", "", "Manual chart corners as \"x,y;x,y;x,y;x,y\" (TL;TR;BR;BL), skips detection")
	flag.StringVar(&oracleURL, "oracle", "", "Detection sidecar URL")
	flag.Float64Var(&tolerance, "tolerance", 2.0, "Mean Delta E pass threshold")
	flag.StringVar(&outDir, "out", "", "Directory for QC artifact images (empty disables)")
	flag.BoolVar(&jsonOut, "json", false, "Emit one JSON verdict per line")
	flag.BoolVar(&verbose, "verbose", false, "Print per-patch detail")
	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("chart-audit %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	files := expandArgs(flag.Args())
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: chart-audit [options] image-or-directory...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	manual, err := parseCorners(cornersArg)
	if err != nil {
		log.Fatalf("-corners: %v", err)
	}
	if manual == nil && oracleURL == "" {
		log.Fatal("need either -corners or -oracle to locate charts")
	}

	cfg := pipeline.DefaultConfig()
	cfg.Tolerance = tolerance
	cfg.TemplateKey = template
	cfg.OutputDir = outDir

	var detector oracle.Detector
	if oracleURL != "" {
		detector = &oracle.Client{URL: oracleURL}
	}
	p := pipeline.New(cfg, detector, nil)

	exitCode := 0
	for _, file := range files {
		res, err := p.Run(context.Background(), file, manual)
		if err != nil {
			// One broken file never aborts the batch.
			log.Printf("%s: %v", file, err)
			if errors.Is(err, pipeline.ErrChartNotFound) {
				exitCode = 1
			} else {
				exitCode = 2
			}
			continue
		}

		if jsonOut {
			if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
				log.Fatalf("encode result: %v", err)
			}
		} else {
			verdict := "PASS"
			if !res.Pass {
				verdict = "FAIL"
			}
			fmt.Printf("%s: %s  mean dE %.3f  max dE %.3f  slope %.3f/%.3f/%.3f  offset %+.3f/%+.3f/%+.3f\n",
				res.SourceID, verdict, res.MeanDeltaE, res.MaxDeltaE,
				res.Slope[0], res.Slope[1], res.Slope[2],
				res.Offset[0], res.Offset[1], res.Offset[2])
			if res.Unrecognized {
				fmt.Printf("%s: chart layout not recognized, neutral set guessed from saturation\n", res.SourceID)
			}
			if verbose {
				for i, de := range res.PerPatchDeltaE {
					fmt.Printf("  patch %02d: dE %.3f\n", i, de)
				}
			}
		}

		if !res.Pass {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// parseCorners reads "x,y;x,y;x,y;x,y". Empty input means no manual
// override; anything else must be exactly four points.
func parseCorners(s string) ([][2]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return nil, fmt.Errorf("need exactly 4 points, got %d", len(parts))
	}
	corners := make([][2]float64, 4)
	for i, part := range parts {
		xy := strings.Split(strings.TrimSpace(part), ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("point %d: want \"x,y\", got %q", i, part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d x: %w", i, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d y: %w", i, err)
		}
		corners[i] = [2]float64{x, y}
	}
	return corners, nil
}

// expandArgs flattens directories into their image files, non-recursively.
func expandArgs(args []string) []string {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return files
}
