package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/futureCreator/exbuild/internal/run"
	"github.com/futureCreator/exbuild/internal/types"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.RunsDir == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Run history is disabled. Set runs_dir in the config to record builds.")
			return nil
		}
		return listRuns(cmd.OutOrStdout(), cfg.RunsDir, runsLimit)
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of most recent runs to list")
}

type runRecord struct {
	id   string
	meta run.Meta
}

func loadRuns(runsDir string) ([]runRecord, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading runs dir: %w", err)
	}

	var records []runRecord
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "latest" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(runsDir, e.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var meta run.Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		records = append(records, runRecord{id: e.Name(), meta: meta})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].meta.StartedAt.After(records[j].meta.StartedAt)
	})
	return records, nil
}

func listRuns(w io.Writer, runsDir string, limit int) error {
	records, err := loadRuns(runsDir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	var packaged, failed int
	for _, r := range records {
		switch r.meta.Stage {
		case types.StagePackaged:
			packaged++
		case types.StageFailed:
			failed++
		}
	}
	fmt.Fprintf(w, "Runs: %d total, %d packaged, %d failed\n\n", len(records), packaged, failed)

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	fmt.Fprintf(w, "%-48s %-10s %s\n", "Run ID", "Stage", "Result")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, r := range records {
		result := r.meta.Artifact
		if r.meta.Stage == types.StageFailed {
			result = r.meta.Kind
		}
		fmt.Fprintf(w, "%-48s %-10s %s\n", r.id, r.meta.Stage, result)
	}
	return nil
}
