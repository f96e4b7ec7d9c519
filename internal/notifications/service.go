// Package notifications pushes plant events to ntfy topics.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pigmea/internal/config"
	"pigmea/internal/stages"
)

const userAgent = "Pigmea-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRegistered(ctx context.Context, registration, client string) error
	NotifySentToPrinting(ctx context.Context, registration string, machine stages.Stage) error
	NotifyStageChanged(ctx context.Context, registration string, from, to stages.Stage) error
	NotifyCompleted(ctx context.Context, registration, client string) error
	NotifyArchived(ctx context.Context, registration string, count int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:     topic,
		client:       client,
		stageChanges: cfg.Notifications.StageChanges,
		completions:  cfg.Notifications.Completions,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	stageChanges bool
	completions  bool
	errors       bool
}

func (n *ntfyService) NotifyRegistered(ctx context.Context, registration, client string) error {
	if !n.stageChanges {
		return nil
	}
	data := payload{
		title:   "Pigmea - Pedido Registrado",
		message: fmt.Sprintf("Nuevo pedido %s (%s) en preparación", strings.TrimSpace(registration), strings.TrimSpace(client)),
		tags:    []string{"pigmea", "pedido", "registrado"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySentToPrinting(ctx context.Context, registration string, machine stages.Stage) error {
	if !n.stageChanges {
		return nil
	}
	data := payload{
		title:   "Pigmea - A Impresión",
		message: fmt.Sprintf("Pedido %s enviado a %s", strings.TrimSpace(registration), stages.Title(machine)),
		tags:    []string{"pigmea", "impresion"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageChanged(ctx context.Context, registration string, from, to stages.Stage) error {
	if !n.stageChanges {
		return nil
	}
	data := payload{
		title:   "Pigmea - Cambio de Etapa",
		message: fmt.Sprintf("Pedido %s: %s -> %s", strings.TrimSpace(registration), stages.Title(from), stages.Title(to)),
		tags:    []string{"pigmea", "etapa"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCompleted(ctx context.Context, registration, client string) error {
	if !n.completions {
		return nil
	}
	data := payload{
		title:    "Pigmea - Pedido Completado",
		message:  fmt.Sprintf("Pedido %s (%s) completado", strings.TrimSpace(registration), strings.TrimSpace(client)),
		tags:     []string{"pigmea", "completado"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyArchived(ctx context.Context, registration string, count int) error {
	if !n.completions {
		return nil
	}
	var message string
	if count > 1 {
		message = fmt.Sprintf("%d pedidos archivados automáticamente", count)
	} else {
		message = fmt.Sprintf("Pedido %s archivado", strings.TrimSpace(registration))
	}
	data := payload{
		title:   "Pigmea - Archivado",
		message: message,
		tags:    []string{"pigmea", "archivado"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" en ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("desconocido")
	}

	data := payload{
		title:    "Pigmea - Error",
		message:  builder.String(),
		tags:     []string{"pigmea", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Pigmea - Test",
		message:  "Prueba del sistema de notificaciones",
		tags:     []string{"pigmea", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRegistered(context.Context, string, string) error { return nil }
func (noopService) NotifySentToPrinting(context.Context, string, stages.Stage) error {
	return nil
}
func (noopService) NotifyStageChanged(context.Context, string, stages.Stage, stages.Stage) error {
	return nil
}
func (noopService) NotifyCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyArchived(context.Context, string, int) error     { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
