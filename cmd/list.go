package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/study"
)

var (
	listStudies   bool
	listDatasets  bool
	listStudyName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List studies or the datasets of a study",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listStudies == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --studies or --datasets")
		}
		w := cmd.OutOrStdout()
		if listStudies {
			return listAllStudies(w)
		}
		s, err := openStudy(listStudyName, true)
		if err != nil {
			return err
		}
		roles := s.Roles()
		if len(roles) == 0 {
			fmt.Fprintln(w, "(no datasets)")
			return nil
		}
		for _, r := range roles {
			d := s.Datasets[r]
			fmt.Fprintf(w, "- %s: %s (%d rows) %s\n", r, d.Name, d.Rows, d.Path)
			for _, p := range d.Problems {
				fmt.Fprintf(w, "    ⚠ %s\n", p)
			}
			if d.Description != "" {
				fmt.Fprintf(w, "    %s\n", d.Description)
			}
		}
		return nil
	},
}

func listAllStudies(w io.Writer) error {
	root := studiesDir()
	dirs, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), study.FileName)); err == nil {
			fmt.Fprintf(w, "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(w, "(no studies)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listStudies, "studies", false, "list studies")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a study")
	listCmd.Flags().StringVarP(&listStudyName, "study", "s", "", "study name for --datasets")
}
