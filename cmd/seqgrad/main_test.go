package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/RodgersLuo/DeepBind-code/internal/config"
)

func TestOpenBackend(t *testing.T) {
	b, release, err := openBackend("CPU", config.Config{})
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "CPU", b.Name())

	_, _, err = openBackend("tpu", config.Config{})
	assert.Error(t, err)

	zero := 0
	var cfg config.Config
	cfg.Tiling.SampleTile = &zero
	_, _, err = openBackend("cpu", cfg)
	assert.Error(t, err)
}

// TestSetup runs the root command with a config file and checks that
// explicit flags win over file values.
func TestSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: webgpu\nlog_level: debug\nworkers: 3\n"), 0o600))

	var ran bool
	app := &cli.Command{
		Name:   "seqgrad",
		Flags:  globalFlags(),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ran = true
			return nil
		},
	}
	require.NoError(t, app.Run(context.Background(), []string{"seqgrad", "--config", path, "--backend", "cpu"}))
	require.True(t, ran)

	assert.Equal(t, "cpu", backendName)
	assert.Equal(t, "debug", logLevel)
	require.NotNil(t, appConfig.Workers)
	assert.Equal(t, 3, *appConfig.Workers)
}

func TestCPUFeatures(t *testing.T) {
	assert.NotEmpty(t, cpuFeatures())
}
