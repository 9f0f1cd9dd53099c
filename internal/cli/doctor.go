package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/futureCreator/exbuild/internal/config"
	"github.com/futureCreator/exbuild/internal/executor"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check exbuild prerequisites and configuration",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	allOK := true

	check := func(label string, ok bool, hint string) {
		if ok {
			fmt.Printf("✅ %s\n", label)
		} else {
			fmt.Printf("❌ %s — %s\n", label, hint)
			allOK = false
		}
	}

	// 1. config
	cfg, cfgErr := config.Load()
	check("config loadable", cfgErr == nil, fmt.Sprintf("fix config: %v", cfgErr))
	if cfgErr == nil {
		validateErr := cfg.Validate()
		check("config valid", validateErr == nil, fmt.Sprintf("%v", validateErr))
	} else {
		cfg = config.Defaults()
	}

	// 2. executor, only needed for --execute
	nb, err := newExecutor(cfg)
	if err == nil {
		_, err = nb.LookPath()
	}
	check(fmt.Sprintf("executor %q installed", cfg.Executor.Command), err == nil,
		"install it or set executor.command; only needed with --execute")

	// 3. notebook converter, used on every build unless disabled
	if conv := cfg.Package.Convert.Command; conv != "" {
		_, err = (&executor.NotebookExecutor{Command: conv}).LookPath()
		check(fmt.Sprintf("converter %q installed", conv), err == nil,
			`install it or set package.convert.command to "" to archive the exercise document only`)
	}

	// 4. output directory
	outDir, err := resolveOutDir("")
	if err == nil {
		var info os.FileInfo
		if info, err = os.Stat(outDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	check(fmt.Sprintf("default output directory %s exists", outDir), err == nil,
		"create it or pass --out-path")

	// 5. git, for archive manifests
	_, err = exec.LookPath("git")
	check("git installed", err == nil, "install git to record commits in archive manifests")

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed. exbuild is ready.")
	} else {
		fmt.Println("Some checks failed. Fix the issues above before running exbuild.")
	}
	return nil
}
