package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/projectdiscovery/erblock"
	"github.com/projectdiscovery/erblock/internal/runner"
)

func main() {
	opts := runner.ParseFlags()
	settings := opts.ToSettings()

	if opts.SettingsFile != "" {
		loaded, err := erblock.LoadSettings(opts.SettingsFile)
		if err != nil {
			gologger.Fatal().Msgf("erblock: failed to load settings file: %v", err)
		}
		settings = *loaded
	}

	var leftRows []map[string]string
	var header []string
	var err error
	if opts.Left == "" {
		leftRows, header, err = parseCSV(strings.NewReader(opts.StdinCSV))
	} else {
		leftRows, header, err = readCSV(opts.Left)
	}
	if err != nil {
		gologger.Fatal().Msgf("erblock: failed to read left table: %v", err)
	}
	if len(settings.Attributes) == 0 {
		settings.Attributes = header
	}

	var rightRows []map[string]string
	if !settings.Dedupe {
		rightRows, _, err = readCSV(opts.Right)
		if err != nil {
			gologger.Fatal().Msgf("erblock: failed to read right table: %v", err)
		}
	}

	orchestrator, err := erblock.New(settings)
	if err != nil {
		gologger.Fatal().Msgf("erblock: %v", err)
	}

	ctx := context.Background()
	if err := orchestrator.Initialize(ctx, leftRows, rightRows, true, false); err != nil {
		gologger.Fatal().Msgf("erblock: initialize failed: %v", err)
	}
	if err := orchestrator.FitBlocks(ctx); err != nil {
		gologger.Fatal().Msgf("erblock: fit_blocks failed: %v", err)
	}
	assignments, err := orchestrator.Predict(ctx)
	if err != nil {
		gologger.Fatal().Msgf("erblock: predict failed: %v", err)
	}

	stats := orchestrator.LastRunStats()
	for _, w := range stats.Warnings {
		gologger.Warning().Msgf("%s", w)
	}
	gologger.Info().Msgf("erblock: %d schemes searched, %d conjunctions used, %d candidate pairs, %d entities",
		stats.SchemesSearched, stats.ConjunctionsUsed, stats.FinalPairCount, countClusters(assignments))

	if err := writeClusters(opts.Output, assignments); err != nil {
		gologger.Fatal().Msgf("erblock: failed to write output: %v", err)
	}
}

func readCSV(path string) ([]map[string]string, []string, error) {
	if path == "" {
		return nil, nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return parseCSV(f)
}

// parseCSV reads a header row plus data rows from r, shared by readCSV's
// file path and main's stdin path (opts.StdinCSV) so a piped table is
// parsed identically to a file one.
func parseCSV(r io.Reader) ([]map[string]string, []string, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, row := range records[1:] {
		attrs := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				attrs[col] = row[i]
			}
		}
		rows = append(rows, attrs)
	}
	return rows, header, nil
}

func writeClusters(path string, assignments []erblock.Assignment) error {
	var w *csv.Writer
	if path == "" {
		w = csv.NewWriter(os.Stdout)
	} else {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = csv.NewWriter(f)
	}
	defer w.Flush()

	if err := w.Write([]string{"record_id", "origin", "cluster_id"}); err != nil {
		return err
	}
	for _, a := range assignments {
		row := []string{
			strconv.FormatInt(a.Node.ID, 10),
			a.Node.Origin,
			strconv.Itoa(a.ClusterID),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func countClusters(assignments []erblock.Assignment) int {
	seen := make(map[int]struct{})
	for _, a := range assignments {
		seen[a.ClusterID] = struct{}{}
	}
	return len(seen)
}
