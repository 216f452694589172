package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/study"
	"github.com/KaramelBytes/sleepstat-cli/internal/utils"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <study-name>",
	Short: "Initialize a new study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if filepath.Base(name) != name {
			return fmt.Errorf("invalid study name %q", name)
		}
		dir := filepath.Join(studiesDir(), name)
		// Refuse to overwrite an existing study.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(dir, study.FileName)); err == nil {
				return fmt.Errorf("study already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect study directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize study", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat study directory: %w", err)
		}
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		s := study.New(name, initDescription, dir)
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Study initialized: %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "study description")
}
