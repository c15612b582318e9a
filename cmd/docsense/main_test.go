package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsense/internal/auth"
	"docsense/internal/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := execute(t, "schema", "Facture")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Facture:\n"))

	_, _, err = execute(t, "schema", "Recette")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("DOCSENSE_AUTH_SECRET", "s3cret")

	out, _, err := execute(t, "token", "--subject", "ci-bot")
	require.NoError(t, err)

	cfg, err := config.Load()
	require.NoError(t, err)
	issuer, err := auth.NewTokenIssuer(cfg.Auth)
	require.NoError(t, err)
	claims, err := issuer.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci-bot", claims.Subject)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	_, _, err := execute(t, "token", "--subject", "ci-bot")
	assert.Error(t, err)
}

func TestRunCommand_RejectsBadReportExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	_, _, err := execute(t, "run", "--report", filepath.Join(dir, "out.txt"), path)
	assert.Error(t, err)
}

func TestRunCommand_UnreadableFileAllFailures(t *testing.T) {
	t.Setenv("DOCSENSE_TRACKING_SINK", "none")
	t.Setenv("DOCSENSE_ACQUISITION_FALLBACK", "structure")
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	reportPath := filepath.Join(dir, "out.csv")

	out, _, err := execute(t, "run", "--report", reportPath, path)
	assert.Error(t, err)
	assert.Contains(t, out, "empty.pdf")
	assert.Contains(t, out, "FAILED")

	data, readErr := os.ReadFile(reportPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "empty.pdf,failed")
}
