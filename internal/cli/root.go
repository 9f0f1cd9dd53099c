package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/futureCreator/exbuild/internal/pipeline"
	"github.com/futureCreator/exbuild/pkg/version"
	"github.com/spf13/cobra"
)

var (
	executeFlag bool
	outPath     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "exbuild DIR",
	Short: "Build exercise and solution documents from a template",
	Long: `exbuild finds the single template in DIR, optionally executes it, writes
an exercise document with the answers removed and a solution document with
the placeholder markers removed, then packages the exercise directory into
a zip archive for distribution.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBuild,
}

// Execute runs the command line. The default output directory is resolved
// here, once, before any command runs.
func Execute() error {
	defaultOutDir = resolveDefaultOutDir()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// Diagnostic renders err as the single line printed before a non-zero exit.
func Diagnostic(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i] + " (see log for details)"
	}
	return msg
}

func init() {
	rootCmd.Flags().BoolVarP(&executeFlag, "execute", "x", false, "Execute the template before deriving documents")
	rootCmd.Flags().StringVarP(&outPath, "out-path", "o", "", "Directory receiving the archive (default: exercises/ beside the install directory)")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show executor output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(doctorCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("exbuild %s\n", version.Version)
	},
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	srcDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	outDir, err := resolveOutDir(outPath)
	if err != nil {
		return err
	}

	disp := pipeline.NewDisplay(filepath.Base(srcDir), verboseFlag)
	engine, err := newEngine(cfg, disp)
	if err != nil {
		return err
	}
	_, err = engine.Build(cmd.Context(), pipeline.Options{
		SourceDir: srcDir,
		OutDir:    outDir,
		Execute:   executeFlag,
	})
	return err
}
