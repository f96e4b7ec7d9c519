package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"pigmea/internal/pedidos"
	"pigmea/internal/stages"
)

// resolvePedido looks a pedido up by registration number first, falling back
// to the raw ID so scripts can pass either.
func resolvePedido(ctx context.Context, store pedidos.Store, ref string) (*pedidos.Pedido, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("pedido reference is required")
	}
	pedido, err := store.GetByRegistration(ctx, ref)
	if err != nil {
		return nil, err
	}
	if pedido == nil {
		pedido, err = store.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if pedido == nil {
		return nil, fmt.Errorf("pedido %q not found", ref)
	}
	return pedido, nil
}

func parseSequenceFlag(raw string) ([]stages.Stage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	sequence := make([]stages.Stage, 0, len(parts))
	for _, part := range parts {
		stage, ok := stages.Parse(part)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", strings.TrimSpace(part))
		}
		sequence = append(sequence, stage)
	}
	return sequence, nil
}

func parseStageArg(raw string) (stages.Stage, error) {
	stage, ok := stages.Parse(raw)
	if !ok {
		return "", fmt.Errorf("unknown stage %q", strings.TrimSpace(raw))
	}
	return stage, nil
}

func parseDeliveryFlag(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery date %q (expected YYYY-MM-DD)", raw)
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func formatDelivery(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format("2006-01-02")
}

func formatMeters(value float64) string {
	if value == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f m", value)
}

func formatDwell(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours < 48 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dd%dh", hours/24, hours%24)
}

func siNo(value bool) string {
	if value {
		return "sí"
	}
	return "no"
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
