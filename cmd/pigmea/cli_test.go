package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[broadcast]
enabled = false
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRunCLI(t *testing.T, configPath string, args ...string) string {
	t.Helper()

	output, err := runCLI(t, configPath, args...)
	if err != nil {
		t.Fatalf("pigmea %s: %v\n%s", strings.Join(args, " "), err, output)
	}
	return output
}

func TestRegisterShowRoundTrip(t *testing.T) {
	configPath := writeTestConfig(t)

	output := mustRunCLI(t, configPath, "register", "REG-5001",
		"--client", "Gráficas del Ebro",
		"--priority", "Alta",
		"--sequence", "POST_LAMINACION_SL2,POST_REBOBINADO_S2DT",
		"--material", "--cliche",
		"--cliche-status", "Nuevo",
	)
	if !strings.Contains(output, "Registered REG-5001") {
		t.Fatalf("register output = %q", output)
	}
	if !strings.Contains(output, "Cliché Nuevo") {
		t.Fatalf("expected cliché nuevo bucket, got %q", output)
	}

	output = mustRunCLI(t, configPath, "show", "REG-5001")
	if !strings.Contains(output, "Gráficas del Ebro") || !strings.Contains(output, "Laminación SL2") {
		t.Fatalf("show output = %q", output)
	}
}

func TestFullStageWalk(t *testing.T) {
	configPath := writeTestConfig(t)

	mustRunCLI(t, configPath, "register", "REG-5002",
		"--client", "Flexo Levante",
		"--sequence", "POST_LAMINACION_SL2",
		"--material", "--cliche",
	)
	mustRunCLI(t, configPath, "ready", "REG-5002")
	output := mustRunCLI(t, configPath, "send", "REG-5002", "IMPRESION_WM1")
	if !strings.Contains(output, "sent to Impresión WM1") {
		t.Fatalf("send output = %q", output)
	}

	output = mustRunCLI(t, configPath, "advance", "REG-5002")
	if !strings.Contains(output, "Laminación SL2") {
		t.Fatalf("advance output = %q", output)
	}
	output = mustRunCLI(t, configPath, "advance", "REG-5002")
	if !strings.Contains(output, "Completado") {
		t.Fatalf("advance output = %q", output)
	}

	mustRunCLI(t, configPath, "archive", "REG-5002")
	output = mustRunCLI(t, configPath, "unarchive", "REG-5002")
	if !strings.Contains(output, "Completado") {
		t.Fatalf("unarchive output = %q", output)
	}
}

func TestSendRequiresReadyBucket(t *testing.T) {
	configPath := writeTestConfig(t)

	mustRunCLI(t, configPath, "register", "REG-5003", "--sequence", "POST_LAMINACION_SL2")
	if _, err := runCLI(t, configPath, "send", "REG-5003", "IMPRESION_GIAVE"); err == nil {
		t.Fatal("send must fail before the pedido is marked ready")
	}
}

func TestListAndStatus(t *testing.T) {
	configPath := writeTestConfig(t)

	mustRunCLI(t, configPath, "register", "REG-5004", "--client", "Envases del Norte",
		"--sequence", "POST_REBOBINADO_TEMAC")
	mustRunCLI(t, configPath, "register", "REG-5005", "--client", "Bolsas Rivera",
		"--priority", "Urgente", "--sequence", "POST_REBOBINADO_TEMAC")

	output := mustRunCLI(t, configPath, "list")
	if !strings.Contains(output, "REG-5004") || !strings.Contains(output, "REG-5005") {
		t.Fatalf("list output = %q", output)
	}
	urgentIdx := strings.Index(output, "REG-5005")
	normalIdx := strings.Index(output, "REG-5004")
	if urgentIdx > normalIdx {
		t.Fatal("urgent pedido must list before normal priority")
	}

	output = mustRunCLI(t, configPath, "list", "--search", "rivera")
	if strings.Contains(output, "REG-5004") || !strings.Contains(output, "REG-5005") {
		t.Fatalf("search output = %q", output)
	}

	output = mustRunCLI(t, configPath, "status")
	if !strings.Contains(output, "Preparación") {
		t.Fatalf("status output = %q", output)
	}
}

func TestMoveDeclinesContradictionWhenNotInteractive(t *testing.T) {
	configPath := writeTestConfig(t)

	mustRunCLI(t, configPath, "register", "REG-5006", "--sequence", "POST_LAMINACION_SL2")

	// Material and cliché are both unavailable, so CLICHE_NUEVO contradicts
	// the recorded state. Test output is not a terminal, so the prompt
	// auto-declines without --yes.
	if _, err := runCLI(t, configPath, "move", "REG-5006", "CLICHE_NUEVO"); err == nil {
		t.Fatal("contradictory move must be declined without --yes")
	}

	output := mustRunCLI(t, configPath, "move", "--yes", "REG-5006", "CLICHE_NUEVO")
	if !strings.Contains(output, "Cliché Nuevo") {
		t.Fatalf("move output = %q", output)
	}
}

func TestAuditListsTrail(t *testing.T) {
	configPath := writeTestConfig(t)

	mustRunCLI(t, configPath, "register", "REG-5007", "--sequence", "POST_LAMINACION_SL2",
		"--material", "--cliche")
	mustRunCLI(t, configPath, "ready", "REG-5007", "--actor", "jefa-turno")

	output := mustRunCLI(t, configPath, "audit", "REG-5007")
	if !strings.Contains(output, "registrado") || !strings.Contains(output, "listo-para-produccion") {
		t.Fatalf("audit output = %q", output)
	}
	if !strings.Contains(output, "operador") || !strings.Contains(output, "jefa-turno") {
		t.Fatalf("audit output missing actors: %q", output)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}
}

func TestStagesCatalogNeedsNoConfig(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", "/nonexistent/config.toml", "stages"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("stages: %v", err)
	}
	if !strings.Contains(out.String(), "IMPRESION_WM1") {
		t.Fatalf("stages output = %q", out.String())
	}
}
