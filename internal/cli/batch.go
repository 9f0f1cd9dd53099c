package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/futureCreator/exbuild/internal/config"
	vlog "github.com/futureCreator/exbuild/internal/log"
	"github.com/futureCreator/exbuild/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchJobs int

var batchCmd = &cobra.Command{
	Use:   "batch DIR...",
	Short: "Build several exercises concurrently",
	Long: `batch builds every DIR the same way the root command builds one. All
archives go to the same output directory, so two directories that would
produce the same exercise name are rejected before anything is built.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBatch,
}

func init() {
	batchCmd.Flags().BoolVarP(&executeFlag, "execute", "x", false, "Execute each template before deriving documents")
	batchCmd.Flags().StringVarP(&outPath, "out-path", "o", "", "Directory receiving the archives (default: exercises/ beside the install directory)")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "Number of exercises built at once")
}

type batchResult struct {
	Dir      string
	Artifact string
	Err      error
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchJobs < 1 {
		return fmt.Errorf("--jobs must be at least 1")
	}
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	outDir, err := resolveOutDir(outPath)
	if err != nil {
		return err
	}
	dirs := make([]string, len(args))
	for i, a := range args {
		if dirs[i], err = filepath.Abs(a); err != nil {
			return fmt.Errorf("resolving %s: %w", a, err)
		}
	}

	engine, err := newEngine(cfg, nil)
	if err != nil {
		return err
	}
	results, err := buildAll(cmd.Context(), engine, dirs, outDir, executeFlag, batchJobs)
	if err != nil {
		return err
	}
	if failed := printBatch(cmd.OutOrStdout(), results); failed > 0 {
		return fmt.Errorf("%d of %d exercises failed", failed, len(results))
	}
	return nil
}

// buildAll builds dirs with at most jobs builds in flight. A failing
// directory does not stop the others; its error is kept in its result.
func buildAll(ctx context.Context, e *pipeline.Engine, dirs []string, outDir string, execute bool, jobs int) ([]batchResult, error) {
	if err := checkDistinct(e.Config, dirs); err != nil {
		return nil, err
	}

	results := make([]batchResult, len(dirs))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			results[i].Dir = dir
			out, err := e.Build(ctx, pipeline.Options{SourceDir: dir, OutDir: outDir, Execute: execute})
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Artifact = out.Artifact
			return nil
		})
	}
	// Builds never return an error to the group.
	_ = g.Wait()
	return results, nil
}

// checkDistinct rejects directories whose exercises would land on the same
// archive name. Directories that cannot be located are left to fail in
// their own build.
func checkDistinct(cfg *config.Config, dirs []string) error {
	owner := map[string]string{}
	for _, dir := range dirs {
		paths, err := locateDir(cfg, dir)
		if err != nil {
			vlog.Debug("skipping duplicate check", "dir", dir, "err", err)
			continue
		}
		name := filepath.Base(paths.Exercise)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if prev, ok := owner[name]; ok {
			return fmt.Errorf("exercise %q is produced by both %s and %s", name, prev, dir)
		}
		owner[name] = dir
	}
	return nil
}

func printBatch(w io.Writer, results []batchResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s\n    %s\n", r.Dir, Diagnostic(r.Err))
			continue
		}
		fmt.Fprintf(w, "✓ %s → %s\n", r.Dir, r.Artifact)
	}
	fmt.Fprintf(w, "\n%d built, %d failed\n", len(results)-failed, failed)
	return failed
}
