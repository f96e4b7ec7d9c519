package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pigmea/internal/config"
	"pigmea/internal/stages"
)

func testService(t *testing.T, handler http.HandlerFunc) (Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	return NewService(&cfg), server
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyCompleted(context.Background(), "REG-1", "Acme"); err != nil {
		t.Fatalf("noop notify returned error: %v", err)
	}
}

func TestStageChangedSendsHeaders(t *testing.T) {
	var gotTitle, gotTags string
	service, _ := testService(t, func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		w.WriteHeader(http.StatusOK)
	})

	err := service.NotifyStageChanged(context.Background(), "REG-1", stages.PrintingWM1, stages.LaminationSL2)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotTitle != "Pigmea - Cambio de Etapa" {
		t.Fatalf("title = %q", gotTitle)
	}
	if gotTags != "pigmea,etapa" {
		t.Fatalf("tags = %q", gotTags)
	}
}

func TestSendSurfacesServerError(t *testing.T) {
	service, _ := testService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestDisabledCategoriesSkipSend(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.StageChanges = false
	cfg.Notifications.Completions = false
	service := NewService(&cfg)

	ctx := context.Background()
	if err := service.NotifyStageChanged(ctx, "REG-1", stages.Preparation, stages.PrintingWM1); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := service.NotifyCompleted(ctx, "REG-1", "Acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no requests, got %d", calls)
	}
}
