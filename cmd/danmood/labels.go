package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"danmood/internal/platform/config"
	analyzemod "danmood/internal/services/analyze/module"
)

func newLabelsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List the active label pack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := analyzemod.LoadLabels(analyzemod.FromConfig(config.New()))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(struct {
					Neutral string `json:"neutral"`
					Labels  any    `json:"labels"`
				}{set.NeutralKey(), set.All()})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tPOLARITY\tVALENCE\tAROUSAL\tPROMPT")
			for _, l := range set.All() {
				key := l.Key
				if key == set.NeutralKey() {
					key += " *"
				}
				fmt.Fprintf(tw, "%s\t%+.2f\t%+.2f\t%+.2f\t%s\n", key, l.Polarity, l.Valence, l.Arousal, l.Prompt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
