package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/stages"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit <registration>",
		Short: "Show the audit trail for a pedido",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *pedidos.SQLiteStore) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				entries, err := store.ForPedido(cmd.Context(), pedido.ID, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No audit entries")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					movement := "-"
					if entry.FromStage != "" || entry.ToStage != "" {
						movement = fmt.Sprintf("%s > %s",
							orDash(stages.Title(entry.FromStage)), orDash(stages.Title(entry.ToStage)))
					}
					rows = append(rows, []string{
						entry.OccurredAt.Format("2006-01-02 15:04"),
						orDash(entry.Actor),
						entry.Action,
						movement,
						orDash(entry.Detail),
					})
				}
				table := renderTable(
					[]string{"Fecha", "Actor", "Acción", "Movimiento", "Detalle"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}
