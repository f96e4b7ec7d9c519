package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/transition"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var (
		client       string
		orderNumber  string
		priority     string
		printType    string
		meters       float64
		delivery     string
		observations string
		sequence     string
		material     bool
		cliche       bool
		clicheStatus string
		antivaho     bool
	)

	cmd := &cobra.Command{
		Use:   "register <registration>",
		Short: "Register a new pedido in preparation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := pedidos.NewParams{
				RegistrationNumber: args[0],
				ClientOrderNumber:  orderNumber,
				Client:             client,
				PrintType:          printType,
				Meters:             meters,
				Observations:       observations,
				MaterialAvailable:  material,
				ClicheAvailable:    cliche,
				AntivahoRequired:   antivaho,
			}

			if priority != "" {
				parsed, err := pedidos.ParsePriority(priority)
				if err != nil {
					return err
				}
				params.Priority = parsed
			}
			if clicheStatus != "" {
				params.ClicheStatus = preparation.ParseClicheStatus(clicheStatus)
			}

			deliveryDate, err := parseDeliveryFlag(delivery)
			if err != nil {
				return err
			}
			params.DeliveryDate = deliveryDate

			workSequence, err := parseSequenceFlag(sequence)
			if err != nil {
				return err
			}
			params.WorkSequence = workSequence

			return ctx.withOrchestrator(func(_ *config.Config, _ *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := orch.Register(cmd.Context(), params)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Registered %s for %s\n", pedido.RegistrationNumber, orDash(pedido.Client))
				fmt.Fprintf(out, "Stage: %s / %s\n", stages.Title(pedido.CurrentStage), preparation.Title(pedido.CurrentSubStage))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&orderNumber, "order", "", "Client order number")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (Urgente, Alta, Normal, Baja)")
	cmd.Flags().StringVar(&printType, "print-type", "", "Print type description")
	cmd.Flags().Float64Var(&meters, "meters", 0, "Meters to produce")
	cmd.Flags().StringVar(&delivery, "delivery", "", "Delivery date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&observations, "obs", "", "Free-form observations")
	cmd.Flags().StringVar(&sequence, "sequence", "", "Comma-separated post-printing work sequence")
	cmd.Flags().BoolVar(&material, "material", false, "Material is available")
	cmd.Flags().BoolVar(&cliche, "cliche", false, "Cliché is available")
	cmd.Flags().StringVar(&clicheStatus, "cliche-status", "", "Cliché status (Pendiente cliente, Repetición/Cambio, Nuevo)")
	cmd.Flags().BoolVar(&antivaho, "antivaho", false, "Pedido needs antivaho treatment")

	return cmd
}
