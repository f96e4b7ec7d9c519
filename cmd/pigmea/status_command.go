package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/stages"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pedido counts per stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *pedidos.SQLiteStore) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(stats))
				total := 0
				for _, stage := range stages.All() {
					count, ok := stats[stage]
					if !ok {
						continue
					}
					total += count
					rows = append(rows, []string{stages.Title(stage), strconv.Itoa(count)})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No pedidos registered")
					return nil
				}
				rows = append(rows, []string{"Total", strconv.Itoa(total)})
				table := renderTable([]string{"Etapa", "Pedidos"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
}
