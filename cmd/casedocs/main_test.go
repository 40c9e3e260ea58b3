package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/config"
	"github.com/a3tai/casedocs/internal/pdf/form"
	"github.com/a3tai/casedocs/internal/render"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = "1.2.3", "2024-06-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	output := captureStdout(t, printVersion)

	for _, expected := range []string{
		"casedocs",
		"Version: 1.2.3",
		"Build Time: 2024-06-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestOpenStore_MemoryWithSeeds(t *testing.T) {
	seedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "cases.json"),
		[]byte(`[{"id":"7","firstName":"Ana"},{"id":"3","firstName":"Ben"}]`), 0o600))

	cfg := config.DefaultConfig()
	cfg.SeedDir = seedDir

	fetcher, closeStore, err := openStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()

	c, err := fetcher.Get(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "3", c.ID)
}

func TestOpenStore_BadSeedDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SeedDir = filepath.Join(t.TempDir(), "missing")

	_, _, err := openStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenStore_HTTP(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StoreKind = config.StoreHTTP
	cfg.CaseAPIURL = "http://127.0.0.1:1"

	fetcher, closeStore, err := openStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()
	assert.NotNil(t, fetcher)
}

func TestNewService(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TemplateDir = t.TempDir()

	fetcher, closeStore, err := openStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()

	svc, provisioner := newService(cfg, fetcher, zap.NewNop())
	require.NotNil(t, svc)
	assert.Equal(t, cfg.FillableTemplatePath(), provisioner.FillablePath())

	res, err := provisioner.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.ProvisionBaseMissing, res)

	info := svc.ServerInfo(cfg.ServerName, cfg.Version)
	assert.Equal(t, render.TemplateNotProvisioned, info.TemplateStatus)
	assert.Equal(t, config.DefaultPageFormat, info.DefaultFormat)
}
