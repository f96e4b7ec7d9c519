package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pigmea/internal/preparation"
	"pigmea/internal/stages"
)

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "stages",
		Short:       "List the stage catalog",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(stages.All()))
			for _, stage := range stages.All() {
				family, _ := stages.FamilyOf(stage)
				rows = append(rows, []string{string(stage), stages.Title(stage), string(family)})
			}
			out := cmd.OutOrStdout()
			table := renderTable(
				[]string{"Identificador", "Etapa", "Familia"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(out, table)

			fmt.Fprintln(out, "\nPreparation buckets:")
			for _, bucket := range preparation.AllSubStages() {
				fmt.Fprintf(out, "  %-24s %s\n", string(bucket), preparation.Title(bucket))
			}
			return nil
		},
	}
}
