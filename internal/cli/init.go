package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/futureCreator/exbuild/internal/assets"
	"github.com/futureCreator/exbuild/internal/config"
	"github.com/futureCreator/exbuild/pkg/version"
	"github.com/spf13/cobra"
)

var initMinimal bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize exbuild configuration",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Write the config without explanatory comments")
}

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home dir: %w", err)
	}

	configDir := filepath.Join(home, config.Dir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists: %s\n", configPath)
		return nil
	}

	name := "config.yaml"
	if initMinimal {
		name = "config.minimal.yaml"
	}
	content, err := assets.RenderTemplate(name, struct{ Version string }{version.Version})
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit the file to change the template pattern, blank marker or executor.")
	return nil
}
