package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var withHistory bool

	cmd := &cobra.Command{
		Use:   "show <registration>",
		Short: "Display one pedido with its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *pedidos.SQLiteStore) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Pedido %s\n", pedido.RegistrationNumber)
				fmt.Fprintf(out, "  Cliente:    %s\n", orDash(pedido.Client))
				fmt.Fprintf(out, "  Nº pedido:  %s\n", orDash(pedido.ClientOrderNumber))
				fmt.Fprintf(out, "  Prioridad:  %s\n", pedido.Priority)
				fmt.Fprintf(out, "  Impresión:  %s\n", orDash(pedido.PrintType))
				fmt.Fprintf(out, "  Metros:     %s\n", formatMeters(pedido.Meters))
				fmt.Fprintf(out, "  Entrega:    %s\n", formatDelivery(pedido.DeliveryDate))

				stage := stages.Title(pedido.CurrentStage)
				if pedido.CurrentStage == stages.Preparation {
					stage = fmt.Sprintf("%s / %s", stage, preparation.Title(pedido.CurrentSubStage))
				}
				fmt.Fprintf(out, "  Etapa:      %s (%s en etapa)\n", stage, formatDwell(pedido.DwellTime(time.Now().UTC())))
				if pedido.PrintingMachine != "" {
					fmt.Fprintf(out, "  Máquina:    %s\n", stages.Title(pedido.PrintingMachine))
				}
				if len(pedido.WorkSequence) > 0 {
					fmt.Fprintf(out, "  Secuencia:  %s\n", sequenceTitles(pedido.WorkSequence))
				}
				fmt.Fprintf(out, "  Material:   %s   Cliché: %s (%s)\n",
					siNo(pedido.MaterialAvailable), siNo(pedido.ClicheAvailable), pedido.ClicheStatus)
				if pedido.AntivahoRequired {
					fmt.Fprintf(out, "  Antivaho:   requerido, aplicado: %s\n", siNo(pedido.AntivahoDone))
				}
				if pedido.Observations != "" {
					fmt.Fprintf(out, "  Notas:      %s\n", pedido.Observations)
				}

				if len(pedido.StageTimeline) > 0 {
					fmt.Fprintln(out, "\nRecorrido:")
					for _, entry := range pedido.StageTimeline {
						fmt.Fprintf(out, "  %s  %s\n", entry.EnteredAt.Format("2006-01-02 15:04"), stages.Title(entry.Stage))
					}
				}

				if withHistory && len(pedido.History) > 0 {
					fmt.Fprintln(out, "\nHistorial:")
					for _, entry := range pedido.History {
						line := fmt.Sprintf("  %s  [%s] %s", entry.Timestamp.Format("2006-01-02 15:04"), orDash(entry.Actor), entry.Action)
						if entry.Detail != "" {
							line += ": " + entry.Detail
						}
						fmt.Fprintln(out, line)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withHistory, "history", false, "Include the free-form history log")
	return cmd
}

func sequenceTitles(sequence []stages.Stage) string {
	titles := ""
	for i, stage := range sequence {
		if i > 0 {
			titles += " > "
		}
		titles += stages.Title(stage)
	}
	return titles
}
