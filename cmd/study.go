package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/dataset"
)

var (
	smStudy string
	smClear bool
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Manage per-study settings",
}

var studySetAlphaCmd = &cobra.Command{
	Use:   "set-alpha <alpha>",
	Short: "Set or clear a study's significance level",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy(smStudy, true)
		if err != nil {
			return err
		}
		alpha := 0.0
		if !smClear {
			if len(args) == 0 || args[0] == "" {
				return fmt.Errorf("alpha is required unless --clear is set")
			}
			if alpha, err = strconv.ParseFloat(args[0], 64); err != nil {
				return fmt.Errorf("invalid float for alpha: %w", err)
			}
		}
		if err := s.SetAlpha(alpha); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		if smClear {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared study alpha for %s\n", s.Name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Set study alpha for %s: %g\n", s.Name, alpha)
		}
		return nil
	},
}

var studySetColumnCmd = &cobra.Command{
	Use:   "set-column <field> <column>",
	Short: "Map a schema field to a different column name for this study",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy(smStudy, true)
		if err != nil {
			return err
		}
		cols := map[string]string{args[0]: args[1]}
		if _, err := dataset.DefaultSchema().WithOverrides(cols); err != nil {
			return err
		}
		if s.Config.Columns == nil {
			s.Config.Columns = map[string]string{}
		}
		s.Config.Columns[args[0]] = args[1]
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s reads column %q in study %s\n", args[0], args[1], s.Name)
		return nil
	},
}

var studyRemoveDatasetCmd = &cobra.Command{
	Use:   "remove-dataset <role>",
	Short: "Unregister the dataset file a study holds for a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := dataset.ParseRole(args[0])
		if err != nil {
			return err
		}
		s, err := openStudy(smStudy, true)
		if err != nil {
			return err
		}
		if !s.RemoveDataset(role) {
			return fmt.Errorf("study %s has no %s dataset", s.Name, role)
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s dataset from %s\n", role, s.Name)
		return nil
	},
}

var studyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a study's datasets, settings and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy(smStudy, true)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "name: %s\n", s.Name)
		if s.Description != "" {
			fmt.Fprintf(w, "description: %s\n", s.Description)
		}
		fmt.Fprintf(w, "dir: %s\n", s.RootDir())
		fmt.Fprintf(w, "alpha: %g\n", s.Alpha(currentConfig().Alpha))
		for field, col := range s.Config.Columns {
			fmt.Fprintf(w, "column %s: %s\n", field, col)
		}
		fmt.Fprintln(w, "datasets:")
		for _, r := range dataset.Roles() {
			if d, ok := s.Datasets[r]; ok {
				fmt.Fprintf(w, "  %s: %s (%d rows)\n", r, d.Path, d.Rows)
			} else {
				fmt.Fprintf(w, "  %s: (none)\n", r)
			}
		}
		if len(s.Runs) > 0 {
			fmt.Fprintln(w, "runs:")
			for _, r := range s.Runs {
				fmt.Fprintf(w, "  %s %s alpha=%g rejected=[%s]", r.At.Format("2006-01-02 15:04"), r.ID, r.Alpha, strings.Join(r.Rejected, " "))
				if len(r.Failed) > 0 {
					fmt.Fprintf(w, " failed=[%s]", strings.Join(r.Failed, " "))
				}
				fmt.Fprintln(w)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studySetAlphaCmd, studySetColumnCmd, studyRemoveDatasetCmd, studyShowCmd)
	studyCmd.PersistentFlags().StringVarP(&smStudy, "study", "s", "", "study name or directory")
	studySetAlphaCmd.Flags().BoolVar(&smClear, "clear", false, "clear the study's alpha override")
}
