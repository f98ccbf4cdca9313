package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdopts "github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/config"
	"github.com/caltus/ggpk-explorer-sub001/pkg/log"
)

func benchTestContext(t *testing.T) context.Context {
	t.Helper()
	logger := log.New(io.Discard, zerolog.Disabled)
	t.Cleanup(logger.Close)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	return log.NewContext(ctx, logger)
}

func benchTestOpts(t *testing.T, size int) *cmdopts.RootOpts {
	t.Helper()
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i * 7)
	}
	path := filepath.Join(t.TempDir(), "bench.ggpk")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return &cmdopts.RootOpts{
		Config: &config.Config{
			Archive: config.ArchiveConfig{Path: path, QueueName: "bench-test"},
		},
	}
}

func TestBenchCmdResolvesAndVerifiesBatch(t *testing.T) {
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	cmd := NewBenchCmd(benchTestOpts(t, 1024))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--n", "32", "--workers", "4", "--chunk", "16"})

	require.NoError(t, cmd.ExecuteContext(benchTestContext(t)))
}

func TestBenchCmdRejectsOversizedChunk(t *testing.T) {
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	cmd := NewBenchCmd(benchTestOpts(t, 64))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--n", "4", "--chunk", "4096"})

	err := cmd.ExecuteContext(benchTestContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive smaller than chunk")
}
