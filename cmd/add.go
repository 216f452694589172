package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

var (
	addStudyName string
	addRole      string
	addDesc      string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Register a dataset file with a study under a role",
	Long: `Register a CSV, TSV or XLSX file with a study. The role says which of the
study's datasets the file is: sleep_productivity, sleep_health, merged or cleaned.
Adding a file for a role that already has one replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addRole == "" {
			return fmt.Errorf("--role is required")
		}
		role, err := dataset.ParseRole(addRole)
		if err != nil {
			return err
		}
		s, err := openStudy(addStudyName, true)
		if err != nil {
			return err
		}
		base, err := currentConfig().Schema()
		if err != nil {
			return err
		}
		schema, err := s.Schema(base)
		if err != nil {
			return err
		}
		d, err := s.AddDataset(role, args[0], addDesc, schema, currentConfig().LoadOptions())
		if err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset added: %s as %s (%d rows, %d columns)\n", d.Name, role, d.Rows, len(d.Columns))
		for _, p := range d.Problems {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠ %s\n", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addStudyName, "study", "s", "", "study name or directory")
	addCmd.Flags().StringVarP(&addRole, "role", "r", "", "dataset role: sleep_productivity|sleep_health|merged|cleaned")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "dataset description")
}
