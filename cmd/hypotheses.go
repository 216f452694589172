package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sleepstat-cli/internal/hypothesis"
)

var (
	hypID    string
	hypStudy string
)

var hypothesesCmd = &cobra.Command{
	Use:     "hypotheses",
	Aliases: []string{"hyp"},
	Short:   "List the study hypotheses or show how one is tested",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := currentConfig().Schema()
		if err != nil {
			return err
		}
		if st, err := openStudy(hypStudy, false); err != nil {
			return err
		} else if st != nil {
			if schema, err = st.Schema(schema); err != nil {
				return err
			}
		}
		r := hypothesis.NewResolver(schema)
		w := cmd.OutOrStdout()

		if hypID != "" {
			h, err := hypothesis.Get(hypID)
			if err != nil {
				return err
			}
			spec, err := r.Resolve(h.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s. %s\n", h.ID, h.Question)
			fmt.Fprintf(w, "category: %s\n", h.Category)
			fmt.Fprintf(w, "H0: %s\n", h.Null)
			fmt.Fprintf(w, "H1: %s\n", h.Alternative)
			fmt.Fprintf(w, "expected effect: %s\n", h.Expected)
			fmt.Fprintf(w, "model: %s (%s)\n", spec.ID, spec.Title)
			fmt.Fprintf(w, "dataset: %s\n", spec.Dataset)
			fmt.Fprintf(w, "formula: %s\n", spec.Formula())
			fmt.Fprintf(w, "decisive term: %s\n", r.TermColumn(h))
			for _, in := range spec.Interactions {
				fmt.Fprintf(w, "derived: %s = %s × %s\n", in.Out, in.A, in.B)
			}
			fmt.Fprintf(w, "missing values: %s imputation\n", spec.Missing)
			return nil
		}

		for _, c := range hypothesis.Categories() {
			fmt.Fprintln(w, titleStyle.Render(string(c)))
			for _, h := range hypothesis.ByCategory(c) {
				fmt.Fprintf(w, "  %s  %s %s\n", h.ID, h.Question, mutedStyle.Render("["+h.Model+"]"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hypothesesCmd)
	hypothesesCmd.Flags().StringVar(&hypID, "id", "", "show one hypothesis (e.g. H1)")
	hypothesesCmd.Flags().StringVarP(&hypStudy, "study", "s", "", "apply a study's column overrides")
}
