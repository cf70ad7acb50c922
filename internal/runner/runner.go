// Package runner implements the erblock CLI's option parsing and
// gologger setup, the ambient-stack layer spec.md §6 calls out as an
// external collaborator (no wire protocol or CLI is part of the core).
package runner

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	fileutil "github.com/projectdiscovery/utils/file"

	"github.com/projectdiscovery/erblock"
)

// Options is the flag-parsed configuration for one erblock CLI run. It
// mirrors alterx's runner.Options shape: a flag struct plus a few
// internal/unexported runtime fields resolved after parsing.
type Options struct {
	Left               string // CSV file of left/source records
	Right              string // CSV file of right records (record-linkage mode)
	Output             string // CSV file to write cluster assignments
	SettingsFile       string
	Dedupe             bool
	N                  int
	K                  int
	MaxCompare         int
	CPUs               int
	Attributes         goflags.StringSlice
	MinRR              float64
	Threshold          float64
	minRRStr           string
	thresholdStr       string
	DisableUpdateCheck bool
	Verbose            bool
	Silent             bool
	// StdinCSV holds the left/source CSV read from stdin when -left is
	// not given, mirroring alterx's own ParseFlags reading os.Stdin into
	// opts.Domains directly rather than leaving the caller to notice.
	StdinCSV string
}

// ParseFlags parses os.Args into Options the way alterx's ParseFlags does,
// using goflags groups for input/output/config/update.
func ParseFlags() *Options {
	opts := &Options{
		MinRR:     0.99,
		Threshold: 0.85,
	}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Entity resolution blocking, conjunction search, scoring and clustering over record tables.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.Left, "left", "l", "", "left (or single dedupe) record table, CSV with header row"),
		flagSet.StringVarP(&opts.Right, "right", "r", "", "right record table for record linkage, CSV with header row"),
		flagSet.StringSliceVarP(&opts.Attributes, "attributes", "attr", nil, "attribute columns to use for blocking and distance (comma-separated)", goflags.FileCommaSeparatedStringSliceOptions),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Output, "output", "o", "", "output CSV of (record_id, origin, cluster_id) assignments"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display results only"),
		flagSet.CallbackVar(printVersion, "version", "display erblock version"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&opts.SettingsFile, "config", "", "erblock settings file (YAML); when omitted, settings come from flags"),
		flagSet.BoolVar(&opts.Dedupe, "dedupe", true, "dedupe a single table instead of record linkage"),
		flagSet.IntVar(&opts.N, "n", 1000, "sample size for conjunction search"),
		flagSet.IntVar(&opts.K, "k", 3, "maximum conjunction length"),
		flagSet.IntVar(&opts.MaxCompare, "max-compare", 1_000_000, "upper bound on the total candidate-pair budget"),
		flagSet.IntVar(&opts.CPUs, "cpus", 0, "worker-pool size (default: all CPUs)"),
		flagSet.StringVar(&opts.minRRStr, "min-rr", "", "minimum reduction ratio for an admissible conjunction (default 0.99)"),
		flagSet.StringVar(&opts.thresholdStr, "threshold", "", "default classifier threshold when labels are absent (default 0.85)"),
	)

	flagSet.CreateGroup("update", "Update",
		flagSet.CallbackVarP(GetUpdateCallback(), "update", "up", "update erblock to latest version"),
		flagSet.BoolVarP(&opts.DisableUpdateCheck, "disable-update-check", "duc", false, "disable automatic erblock update check"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not read flags: %s\n", err)
	}

	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	showBanner()

	if opts.minRRStr != "" {
		v, err := strconv.ParseFloat(opts.minRRStr, 64)
		if err != nil {
			gologger.Fatal().Msgf("Could not parse min-rr: %s\n", err)
		}
		opts.MinRR = v
	}
	if opts.thresholdStr != "" {
		v, err := strconv.ParseFloat(opts.thresholdStr, 64)
		if err != nil {
			gologger.Fatal().Msgf("Could not parse threshold: %s\n", err)
		}
		opts.Threshold = v
	}

	if opts.Left == "" {
		if !fileutil.HasStdin() {
			gologger.Fatal().Msgf("erblock: no input found, pass -left or pipe a CSV on stdin")
		}
		bin, err := ReadStdin()
		if err != nil {
			gologger.Fatal().Msgf("erblock: could not read stdin: %s\n", err)
		}
		opts.StdinCSV = bin
	}

	return opts
}

func printVersion() {
	gologger.Info().Msgf("Current version: %s", version)
	os.Exit(0)
}

// SettingsPath resolves the effective settings file location, creating the
// parent config directory the first time it's needed, mirroring alterx's
// config.go directory bootstrap.
func (o *Options) SettingsPath() string {
	if o.SettingsFile != "" {
		return o.SettingsFile
	}
	if err := validateDir(filepath.Join(getUserHomeDir(), ".config/erblock")); err != nil {
		gologger.Error().Msgf("erblock config dir not found and failed to create got: %v", err)
	}
	return erblock.DefaultSettingsFilePath
}

// ToSettings builds an erblock.Settings from the parsed flags. When a
// settings file is given with -config, cmd/erblock replaces these
// settings wholesale with the loaded file; no field-by-field merge is done.
func (o *Options) ToSettings() erblock.Settings {
	return erblock.Settings{
		Dedupe:     o.Dedupe,
		N:          o.N,
		K:          o.K,
		MaxCompare: o.MaxCompare,
		CPUs:       o.CPUs,
		Attributes: []string(o.Attributes),
		MinRR:      o.MinRR,
		Threshold:  o.Threshold,
	}
}

// ReadStdin reads the left table from stdin when -left was not given,
// mirroring alterx's stdin-input fallback.
func ReadStdin() (string, error) {
	bin, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bin)), nil
}
