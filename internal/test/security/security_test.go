package security

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ejagojo/megagrep/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScan(t *testing.T, cfg scanner.ScanConfig, keywords ...string) *scanner.Report {
	t.Helper()

	s, err := scanner.New(cfg, keywords, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := s.Run(ctx)
	require.NoError(t, err, "scan should survive hostile input")
	return report
}

func configFor(dir string) scanner.ScanConfig {
	cfg := scanner.DefaultConfig()
	cfg.Path = dir
	return cfg
}

func TestSymlinkLoop(t *testing.T) {
	dir := t.TempDir()
	CreateSymlinkLoop(t, dir)

	report := runScan(t, configFor(dir), "password")
	assert.Equal(t, 0, report.Stats.Files)
}

func TestDirectoryLoop(t *testing.T) {
	dir := t.TempDir()
	CreateDirectoryLoop(t, dir)
	CreateLargeFile(t, filepath.Join(dir, "a.txt"), "password", 1)

	report := runScan(t, configFor(dir), "password")
	assert.Equal(t, 1, report.Stats.Files)
	require.Len(t, report.Results, 1)
}

func TestBinaryFile(t *testing.T) {
	dir := t.TempDir()
	CreateBinaryFile(t, filepath.Join(dir, "bomb"), "password")
	CreateLargeFile(t, filepath.Join(dir, "ok.txt"), "password", 1)

	report := runScan(t, configFor(dir), "password")
	require.Len(t, report.Results, 1)
	assert.Equal(t, "ok.txt", report.Results[0].RelPath)
	assert.Equal(t, 1, report.Stats.Files)
}

func TestDeepTree(t *testing.T) {
	dir := t.TempDir()
	CreateDeepTree(t, dir, 100, "secret")

	report := runScan(t, configFor(dir), "secret")
	require.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.Results[0].Line)
}

func TestLargeFileLimit(t *testing.T) {
	dir := t.TempDir()
	CreateLargeFile(t, filepath.Join(dir, "big.txt"), "token = 1", 10000)

	cfg := configFor(dir)
	cfg.MaxFileSize = 1024
	report := runScan(t, cfg, "token")
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.Stats.Files)

	cfg.MaxFileSize = 0
	cfg.Threads = 4
	report = runScan(t, cfg, "token")
	assert.Len(t, report.Results, 10000)
	assert.Equal(t, 10000, report.Stats.Lines)
}

func TestLongLine(t *testing.T) {
	dir := t.TempDir()
	CreateLongLine(t, filepath.Join(dir, "min.txt"), "password", 1<<20)

	report := runScan(t, configFor(dir), "password")
	require.Len(t, report.Results, 1)
	require.Len(t, report.Results[0].Matches, 1)
	assert.Equal(t, 1<<20, report.Results[0].Matches[0].Offset)
}
