package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/stages"
	"pigmea/internal/transition"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var sequence string

	cmd := &cobra.Command{
		Use:   "send <registration> <machine>",
		Short: "Send a ready pedido to a printing machine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := parseStageArg(args[1])
			if err != nil {
				return err
			}
			workSequence, err := parseSequenceFlag(sequence)
			if err != nil {
				return err
			}

			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.SendToPrinting(cmd.Context(), pedido.ID, machine, workSequence)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s sent to %s\n",
					updated.RegistrationNumber, stages.Title(updated.CurrentStage))
				if len(updated.WorkSequence) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Sequence: %s\n", sequenceTitles(updated.WorkSequence))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sequence, "sequence", "", "Replace the work sequence before printing (comma-separated)")
	return cmd
}

func newAdvanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <registration>",
		Short: "Advance a pedido to its next planned stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.Advance(cmd.Context(), pedido.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s advanced to %s\n",
					updated.RegistrationNumber, stages.Title(updated.CurrentStage))
				return nil
			})
		},
	}
}

func newAntivahoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "antivaho <registration> <continue|printing|ready>",
		Short: "Confirm antivaho treatment and route the pedido",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var destination transition.AntivahoDestination
			switch args[1] {
			case "continue":
				destination = transition.AntivahoContinue
			case "printing":
				destination = transition.AntivahoToPrinting
			case "ready":
				destination = transition.AntivahoToReady
			default:
				return fmt.Errorf("unknown destination %q (use continue, printing, or ready)", args[1])
			}

			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.ConfirmAntivaho(cmd.Context(), pedido.ID, destination)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Antivaho confirmed; %s is now in %s\n",
					updated.RegistrationNumber, stages.Title(updated.CurrentStage))
				return nil
			})
		},
	}
}

func newReorderCommand(ctx *commandContext) *cobra.Command {
	var continueTo string

	cmd := &cobra.Command{
		Use:   "reorder <registration> <sequence>",
		Short: "Replace the work sequence and pick where to continue",
		Long: `Replace a pedido's post-printing sequence mid-flight. The pedido moves to
the stage named by --continue-to, which must belong to the new sequence or
be COMPLETADO.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newSequence, err := parseSequenceFlag(args[1])
			if err != nil {
				return err
			}
			target, err := parseStageArg(continueTo)
			if err != nil {
				return err
			}

			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.ReorderAndContinue(cmd.Context(), pedido.ID, newSequence, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s continues in %s\n",
					updated.RegistrationNumber, stages.Title(updated.CurrentStage))
				fmt.Fprintf(cmd.OutOrStdout(), "Sequence: %s\n", sequenceTitles(updated.WorkSequence))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&continueTo, "continue-to", "", "Stage to continue in after the reorder (required)")
	_ = cmd.MarkFlagRequired("continue-to")
	return cmd
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <registration>",
		Short: "Archive a completed pedido",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.Archive(cmd.Context(), pedido.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s archived\n", updated.RegistrationNumber)
				return nil
			})
		},
	}
}

func newUnarchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive <registration>",
		Short: "Restore an archived pedido to its previous stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				updated, err := orch.Unarchive(cmd.Context(), pedido.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s restored to %s\n",
					updated.RegistrationNumber, stages.Title(updated.CurrentStage))
				return nil
			})
		},
	}
}
