package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pigmea/internal/config"
	"pigmea/internal/pedidos"
	"pigmea/internal/preparation"
	"pigmea/internal/stages"
	"pigmea/internal/viewstate"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		search     string
		stageNames []string
		priorities []string
		archived   bool
		sortMode   string
		saveView   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pedidos using the saved board view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *pedidos.SQLiteStore) error {
				state, err := viewstate.Load(cfg.ViewStatePath())
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if flags.Changed("search") {
					state.Filter.Search = search
				}
				if flags.Changed("archived") {
					state.Filter.ShowArchived = archived
				}
				if flags.Changed("sort") {
					state.Sort = viewstate.SortMode(sortMode)
				}
				if flags.Changed("stage") {
					state.Filter.Stages = state.Filter.Stages[:0]
					for _, name := range stageNames {
						stage, err := parseStageArg(name)
						if err != nil {
							return err
						}
						state.Filter.Stages = append(state.Filter.Stages, stage)
					}
				}
				if flags.Changed("priority") {
					state.Filter.Priorities = state.Filter.Priorities[:0]
					for _, name := range priorities {
						priority, err := pedidos.ParsePriority(name)
						if err != nil {
							return err
						}
						state.Filter.Priorities = append(state.Filter.Priorities, priority)
					}
				}

				all, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				visible := viewstate.Apply(state, all)

				out := cmd.OutOrStdout()
				if len(visible) == 0 {
					fmt.Fprintln(out, "No pedidos match the current view")
				} else {
					rows := make([][]string, 0, len(visible))
					for _, pedido := range visible {
						stage := stages.Title(pedido.CurrentStage)
						if pedido.CurrentStage == stages.Preparation {
							stage = fmt.Sprintf("%s / %s", stage, preparation.Title(pedido.CurrentSubStage))
						}
						rows = append(rows, []string{
							pedido.RegistrationNumber,
							orDash(pedido.Client),
							string(pedido.Priority),
							stage,
							formatDelivery(pedido.DeliveryDate),
							formatMeters(pedido.Meters),
						})
					}
					table := renderTable(
						[]string{"Registro", "Cliente", "Prioridad", "Etapa", "Entrega", "Metros"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
					)
					fmt.Fprintln(out, table)
				}

				if saveView {
					if err := viewstate.Save(cfg.ViewStatePath(), state); err != nil {
						return err
					}
					fmt.Fprintln(out, "View saved")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by client, registration, order number, or observations")
	cmd.Flags().StringSliceVar(&stageNames, "stage", nil, "Filter by stage (repeatable)")
	cmd.Flags().StringSliceVar(&priorities, "priority", nil, "Filter by priority (repeatable)")
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived pedidos")
	cmd.Flags().StringVar(&sortMode, "sort", "", "Sort mode (priority, manual, arrival, delivery)")
	cmd.Flags().BoolVar(&saveView, "save", false, "Persist the resulting view as the default")

	return cmd
}
