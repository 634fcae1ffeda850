package main

import (
	"fmt"
	"strconv"

	"github.com/rbova/photongi/pkg/core"
)

// parseArgs builds the render configuration from the command line:
// renderer <input-scene> <output-image> [-FLAGS]. Flag errors are returned
// for main to report.
func parseArgs(args []string) (cfg *core.Config, inputScene, outputImage string, err error) {
	cfg = core.DefaultConfig()

	intArg := func(name string, i *int, minVal int) func(string) error {
		return func(value string) error {
			n, convErr := strconv.Atoi(value)
			if convErr != nil {
				return fmt.Errorf("%s requires an integer, got %q", name, value)
			}
			if n < minVal {
				n = minVal
			}
			*i = n
			return nil
		}
	}
	floatArg := func(name string, f *float64, minVal float64) func(string) error {
		return func(value string) error {
			x, convErr := strconv.ParseFloat(value, 64)
			if convErr != nil {
				return fmt.Errorf("%s requires a number, got %q", name, value)
			}
			if x < minVal {
				x = minVal
			}
			*f = x
			return nil
		}
	}

	// Flags taking one value
	valueFlags := map[string]func(string) error{
		"-threads": intArg("-threads", &cfg.Threads, 1),
		"-aa":      intArg("-aa", &cfg.AA, 0),
		"-ir":      floatArg("-ir", &cfg.IRAir, core.Epsilon),
		"-md":      intArg("-md", &cfg.MaxMonteDepth, 1),
		"-absorb":  floatArg("-absorb", &cfg.ProbAbsorb, 0),
		"-tt":      intArg("-tt", &cfg.TransmissiveTest, 1),
		"-st":      intArg("-st", &cfg.SpecularTest, 1),
		"-global":  intArg("-global", &cfg.GlobalPhotons, 1),
		"-caustic": intArg("-caustic", &cfg.CausticPhotons, 1),
		"-pd":      intArg("-pd", &cfg.MaxPhotonDepth, 1),
		"-it":      intArg("-it", &cfg.IndirectTest, 1),
		"-gs":      intArg("-gs", &cfg.GlobalEstimateSize, 1),
		"-gd":      floatArg("-gd", &cfg.GlobalEstimateDist, core.Epsilon),
		"-cs":      intArg("-cs", &cfg.CausticEstimateSize, 1),
		"-cd":      floatArg("-cd", &cfg.CausticEstimateDist, core.Epsilon),
		"-lt":      intArg("-lt", &cfg.LightTest, 1),
		"-ss":      intArg("-ss", &cfg.ShadowTest, 0),
		"-gf": func(value string) error {
			return parseFilter(value, &cfg.GlobalFilter)
		},
		"-cf": func(value string) error {
			return parseFilter(value, &cfg.CausticFilter)
		},
		"-seed": func(value string) error {
			n, convErr := strconv.ParseInt(value, 10, 64)
			if convErr != nil {
				return fmt.Errorf("-seed requires an integer, got %q", value)
			}
			cfg.Seed = n
			return nil
		},
	}

	// Boolean toggles
	toggleFlags := map[string]func(){
		"-v":               func() { cfg.Verbose = true },
		"-real":            func() { cfg.RealMaterials = true },
		"-no_fresnel":      func() { cfg.Fresnel = false },
		"-no_ambient":      func() { cfg.Ambient = false },
		"-no_direct":       func() { cfg.Direct = false },
		"-no_transmissive": func() { cfg.Transmissive = false },
		"-no_specular":     func() { cfg.Specular = false },
		"-no_indirect":     func() { cfg.Indirect = false },
		"-no_caustic":      func() { cfg.Caustic = false },
		"-photon_viz":      func() { cfg.PhotonViz = true },
		"-fast_global": func() {
			// Needs photon visualization on to work
			cfg.FastGlobal = true
			cfg.PhotonViz = true
		},
		"-no_monte":  func() { cfg.MonteCarlo = false },
		"-no_rs":     func() { cfg.RecursiveShadows = false },
		"-no_dt":     func() { cfg.DistribTransmissive = false },
		"-no_ds":     func() { cfg.DistribSpecular = false },
		"-no_shadow": func() { cfg.Shadows = false },
		"-no_ss":     func() { cfg.SoftShadows = false },
		"-cache":     func() { cfg.IrradianceCache = true },
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) == 0 || arg[0] != '-' {
			switch {
			case inputScene == "":
				inputScene = arg
			case outputImage == "":
				outputImage = arg
			default:
				return nil, "", "", fmt.Errorf("invalid program argument: %s", arg)
			}
			continue
		}

		if toggle, ok := toggleFlags[arg]; ok {
			toggle()
			continue
		}
		if set, ok := valueFlags[arg]; ok {
			if i+1 >= len(args) {
				return nil, "", "", fmt.Errorf("%s requires a value", arg)
			}
			i++
			if err := set(args[i]); err != nil {
				return nil, "", "", err
			}
			continue
		}
		if arg == "-resolution" {
			if i+2 >= len(args) {
				return nil, "", "", fmt.Errorf("-resolution requires width and height")
			}
			w, errW := strconv.Atoi(args[i+1])
			h, errH := strconv.Atoi(args[i+2])
			if errW != nil || errH != nil {
				return nil, "", "", fmt.Errorf("-resolution requires integers")
			}
			if w < 0 {
				w = -w
			}
			if h < 0 {
				h = -h
			}
			cfg.Width = w
			cfg.Height = h
			i += 2
			continue
		}

		return nil, "", "", fmt.Errorf("invalid program argument: %s", arg)
	}

	if inputScene == "" || outputImage == "" {
		return nil, "", "", fmt.Errorf("usage: renderer inputscenefile outputimagefile [-FLAGS]")
	}

	return cfg, inputScene, outputImage, nil
}

func parseFilter(value string, out *core.Filter) error {
	switch value {
	case "disk":
		*out = core.FilterDisk
	case "cone":
		*out = core.FilterCone
	case "gauss":
		*out = core.FilterGauss
	default:
		return fmt.Errorf("unknown filter %q (want disk, cone, or gauss)", value)
	}
	return nil
}
