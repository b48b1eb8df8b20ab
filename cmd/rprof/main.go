// Command rprof prints radial profiles from the <stem>_rprof.dat file of a
// mantle convection run as tab-separated text, either step by step or
// averaged over a range of steps.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rprof/internal/config"
	"github.com/banshee-data/rprof/internal/fsutil"
	"github.com/banshee-data/rprof/internal/monitoring"
	"github.com/banshee-data/rprof/internal/rprof"
	"github.com/banshee-data/rprof/internal/store"
	"github.com/banshee-data/rprof/internal/timeutil"
	"github.com/banshee-data/rprof/internal/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, fsutil.OSFileSystem{}, timeutil.RealClock{}); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("rprof: %v", err)
	}
}

// options are the command line flags. Zero values mean "use the config".
type options struct {
	configPath string
	file       string
	stem       string
	vars       string
	steps      string
	dbPath     string
	index      bool
	version    bool
}

func run(args []string, stdout io.Writer, fsys fsutil.FileSystem, clock timeutil.Clock) (err error) {
	if len(args) > 0 && args[0] == "migrate" {
		return runMigrate(args[1:], stdout)
	}

	cfg := config.EmptyConfig()
	var opts options
	fs := flag.NewFlagSet("rprof", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&opts.configPath, "config", "", "JSON configuration file")
	fs.StringVar(&opts.file, "file", "", "profile file (default: found from the output stem)")
	fs.StringVar(&opts.stem, "stem", "", "output file stem used to find the profile file")
	fs.StringVar(&opts.vars, "vars", "", "comma separated variables, e.g. Tmean,vzabs")
	fs.StringVar(&opts.steps, "steps", "", "step ordinals as start:stop:stride (default: latest)")
	fs.StringVar(&opts.dbPath, "db", "", "record the export in this sqlite database")
	fs.BoolVar(&opts.index, "index", false, "print the run table and exit")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	minMax := fs.Bool("minmax", false, "add the min/max companions of each variable")
	average := fs.Bool("average", false, "average the selected steps")
	depth := fs.Bool("depth", false, "print depth below the surface instead of radius")
	grid := fs.Bool("grid", false, "print the radial grid and its spacing")
	energy := fs.Bool("energy", false, "print the heat flux balance")
	integrated := fs.Bool("integrated", false, "weight values by (r/r_surface)^2 in spherical runs")
	dimensional := fs.Bool("dimensional", false, "convert to physical units")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	if opts.configPath != "" {
		if cfg, err = config.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}

	// explicitly set flags override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.ProfileFile = &opts.file
		case "stem":
			cfg.Stem = &opts.stem
		case "vars":
			cfg.Vars = splitList(opts.vars)
		case "steps":
			cfg.Timesteps = &opts.steps
		case "db":
			cfg.Database = &opts.dbPath
		case "minmax":
			cfg.MinMax = minMax
		case "average":
			cfg.Average = average
		case "depth":
			cfg.Depth = depth
		case "grid":
			cfg.Grid = grid
		case "energy":
			cfg.Energy = energy
		case "integrated":
			cfg.Integrated = integrated
		case "dimensional":
			cfg.Dimensional = dimensional
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path := cfg.GetProfileFile()
	if path == "" {
		if path, err = rprof.FindProfileFile(fsys, cfg.GetStem()); err != nil {
			return err
		}
	}

	names := cfg.GetVars()
	need := append([]string(nil), names...)
	if cfg.GetEnergy() {
		need = append(need, "Tmean", "enadv", "redges")
	}
	vars, err := cfg.GetVarTable().Subset(need...)
	if err != nil {
		return err
	}

	started := clock.Now()
	scaler := cfg.GetScaler()
	data, err := rprof.OpenFile(fsys, path, rprof.Options{
		Parse:  rprof.ParseOptions{Marker: cfg.GetMarker()},
		Vars:   vars,
		Bounds: cfg.GetBounds(),
		Scale:  scaler.Scale,
	})
	if err != nil {
		return err
	}
	monitoring.Logf("rprof: loaded %s in %s", path, timeutil.Since(clock, started))

	if opts.index {
		return printIndex(stdout, data)
	}

	r, err := rprof.ParseRange(cfg.GetTimesteps())
	if err != nil {
		return err
	}
	filters := []rprof.StepFilter{rprof.HasProfiles, r.Filter()}

	w := &writer{out: stdout, cfg: cfg, data: data}
	if dbPath := cfg.GetDatabase(); dbPath != "" {
		if w.rec, err = newRecorder(dbPath, clock); err != nil {
			return err
		}
		defer func() {
			if cerr := w.rec.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	if cfg.GetAverage() {
		return w.averaged(path, names, filters)
	}
	return w.everyStep(path, names, filters)
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rprof migrate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "rprof.db", "sqlite database")
	// the action and its operands may come before or after the flags
	var action []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = append(action, args[0]), args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	return store.RunMigrateCommand(append(action, fs.Args()...), *dbPath, stdout)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// printIndex writes the run table and a summary of the steps.
func printIndex(out io.Writer, data *rprof.Data) error {
	idx := data.Index()
	markers := idx.Markers()
	fmt.Fprintf(out, "# %d steps in %d runs\n", idx.NumSteps(), len(idx.Runs()))
	fmt.Fprintln(out, "run\tfirst_ordinal\tsteps\tcells\tfirst_step\tlast_step")
	cells := make([]float64, len(idx.Runs()))
	weights := make([]float64, len(idx.Runs()))
	for i, run := range idx.Runs() {
		fmt.Fprintf(out, "%d\t%d\t%d\t%d\t%d\t%d\n", i, run.Start, run.Length, run.Cells,
			markers[run.Start].Step, markers[run.End()-1].Step)
		cells[i], weights[i] = float64(run.Cells), float64(run.Length)
	}
	if len(markers) == 0 {
		return nil
	}
	fmt.Fprintf(out, "# steps %d..%d, time %.6e..%.6e, mean cells %.2f\n",
		markers[0].Step, markers[len(markers)-1].Step,
		markers[0].Time, markers[len(markers)-1].Time,
		stat.Mean(cells, weights))
	return nil
}
