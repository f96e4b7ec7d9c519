package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/transition"
)

func newPrepCommand(ctx *commandContext) *cobra.Command {
	var (
		material     bool
		cliche       bool
		clicheStatus string
	)

	cmd := &cobra.Command{
		Use:   "prep <registration>",
		Short: "Update material and cliché availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update transition.PreparationUpdate
			flags := cmd.Flags()
			if flags.Changed("material") {
				update.MaterialAvailable = &material
			}
			if flags.Changed("cliche") {
				update.ClicheAvailable = &cliche
			}
			if flags.Changed("cliche-status") {
				status := preparation.ParseClicheStatus(clicheStatus)
				update.ClicheStatus = &status
			}
			if update.MaterialAvailable == nil && update.ClicheAvailable == nil && update.ClicheStatus == nil {
				return fmt.Errorf("nothing to update; pass --material, --cliche, or --cliche-status")
			}

			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.ApplyPreparation(cmd.Context(), pedido.ID, update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now in %s\n",
					updated.RegistrationNumber, preparation.Title(updated.CurrentSubStage))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&material, "material", false, "Material availability")
	cmd.Flags().BoolVar(&cliche, "cliche", false, "Cliché availability")
	cmd.Flags().StringVar(&clicheStatus, "cliche-status", "", "Cliché status (Pendiente cliente, Repetición/Cambio, Nuevo)")

	return cmd
}

func newReadyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ready <registration>",
		Short: "Mark a pedido ready for production",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.MarkReady(cmd.Context(), pedido.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s marked %s\n",
					updated.RegistrationNumber, preparation.Title(updated.CurrentSubStage))
				return nil
			})
		},
	}
}
