package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pigmea/internal/board"
	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/transition"
)

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "move <registration> <destination>",
		Short: "Move a pedido on the board",
		Long: `Apply a board gesture: the destination is either a preparation bucket
(for example CLICHE_NUEVO or LISTO_PARA_PRODUCCION) or a stage name. Moves
that contradict the recorded availability ask for confirmation first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				pedido, err := resolvePedido(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}

				confirmer := newTerminalConfirmer(cmd, assumeYes)
				handler, err := board.NewHandler(store, orch, confirmer, nil)
				if err != nil {
					return err
				}

				source := string(pedido.CurrentStage)
				if pedido.CurrentStage == stages.Preparation {
					source = string(pedido.CurrentSubStage)
				}
				updated, err := handler.Resolve(cmd.Context(), board.Gesture{
					Source:      source,
					Destination: args[1],
					PedidoID:    pedido.ID,
				})
				if err != nil {
					return err
				}

				destination := stages.Title(updated.CurrentStage)
				if updated.CurrentStage == stages.Preparation {
					destination = preparation.Title(updated.CurrentSubStage)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s moved to %s\n", updated.RegistrationNumber, destination)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Accept confirmation prompts")
	return cmd
}

// newTerminalConfirmer prompts on stdout and reads one line from stdin.
// Non-interactive runs decline unless --yes was given, so scripts never
// hang waiting for input.
func newTerminalConfirmer(cmd *cobra.Command, assumeYes bool) board.Confirmer {
	return board.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		if assumeYes {
			return true, nil
		}
		out := cmd.OutOrStdout()
		if !isTerminal(out) {
			fmt.Fprintln(out, "Confirmation required; re-run with --yes")
			return false, nil
		}
		fmt.Fprintf(out, "%s [s/N]: ", prompt)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "si", "sí", "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func newPositionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "positions <registration...>",
		Short: "Set the manual board order",
		Long:  "Assign manual positions in the order the registrations are listed.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(_ *config.Config, store *pedidos.SQLiteStore, orch *transition.Orchestrator) error {
				ids := make([]string, 0, len(args))
				for _, ref := range args {
					pedido, err := resolvePedido(cmd.Context(), store, ref)
					if err != nil {
						return err
					}
					ids = append(ids, pedido.ID)
				}

				handler, err := board.NewHandler(store, orch, nil, nil)
				if err != nil {
					return err
				}
				updated, err := handler.ReorderList(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d positions\n", updated)
				return nil
			})
		},
	}
}
