package main

import (
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/rbova/photongi/pkg/photon"
	"github.com/rbova/photongi/pkg/renderer"
	"github.com/rbova/photongi/pkg/scene"
)

// stdoutLogger routes renderer diagnostics to standard output.
type stdoutLogger struct{}

func (stdoutLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

func main() {
	cfg, inputScene, outputImage, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := stdoutLogger{}

	// Read scene
	readStart := time.Now()
	s, err := scene.Load(inputScene, cfg.RealMaterials)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to read scene from %s: %v\n", inputScene, err)
		os.Exit(1)
	}
	if cfg.Verbose {
		log.Printf("Read scene from %s ...\n", inputScene)
		log.Printf("  Time = %.2f seconds\n", time.Since(readStart).Seconds())
		log.Printf("  # Lights = %d\n", len(s.Lights()))
	}

	// Generate photon maps if any photon-fed mode is on
	maps := &photon.Maps{}
	if cfg.Indirect || cfg.Caustic || cfg.PhotonViz {
		maps = photon.NewTracer(s, cfg, log).BuildMaps()
	}

	// Render image
	img := renderer.New(s, cfg, maps, log).RenderImage()

	// Write image
	writeStart := time.Now()
	file, err := os.Create(outputImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to create image file %s: %v\n", outputImage, err)
		os.Exit(1)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to write image to %s: %v\n", outputImage, err)
		os.Exit(1)
	}
	if cfg.Verbose {
		log.Printf("Wrote image to %s ...\n", outputImage)
		log.Printf("  Time = %.2f seconds\n", time.Since(writeStart).Seconds())
		log.Printf("  Width = %d\n", cfg.Width)
		log.Printf("  Height = %d\n", cfg.Height)
	}
}
