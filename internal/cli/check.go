package cli

import (
	"fmt"
	"path/filepath"

	"github.com/futureCreator/exbuild/internal/config"
	"github.com/futureCreator/exbuild/internal/document"
	"github.com/futureCreator/exbuild/internal/locator"
	"github.com/futureCreator/exbuild/internal/placeholder"
	"github.com/futureCreator/exbuild/internal/types"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:          "check DIR",
	Short:        "Validate the template in DIR without writing anything",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

type checkResult struct {
	Paths locator.Paths
	Stats placeholder.Stats
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := checkDir(cfg, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "template:  %s\n", res.Paths.Template)
	fmt.Fprintf(out, "exercise:  %s\n", filepath.Base(res.Paths.Exercise))
	fmt.Fprintf(out, "solution:  %s\n", filepath.Base(res.Paths.Solution))
	fmt.Fprintf(out, "placeholders: %d (%d block, %d inline, %d with prompt)\n",
		res.Stats.Total(), res.Stats.Blocks, res.Stats.Inline, res.Stats.WithPrompt)
	return nil
}

// locateDir finds the template in dir and derives the document paths.
func locateDir(cfg *config.Config, dir string) (locator.Paths, error) {
	re, err := locator.Compile(cfg.Template.Pattern)
	if err != nil {
		return locator.Paths{}, err
	}
	template, err := locator.Locate(dir, re)
	if err != nil {
		return locator.Paths{}, err
	}
	return locator.Derive(template, re)
}

func checkDir(cfg *config.Config, dir string) (*checkResult, error) {
	paths, err := locateDir(cfg, dir)
	if err != nil {
		return nil, err
	}
	text, err := document.FS{}.Read(paths.Template)
	if err != nil {
		return nil, err
	}
	spans, err := placeholder.Parse(text)
	if err != nil {
		return nil, types.Wrap(types.ErrMalformedTemplate, paths.Template, err)
	}
	return &checkResult{Paths: paths, Stats: placeholder.Count(spans)}, nil
}
