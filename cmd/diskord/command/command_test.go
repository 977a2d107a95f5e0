package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/diskor"
	"github.com/viant/diskor/model/device"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T) string {
	cfg := diskor.DefaultConfig()
	cfg.Backend.Kind = diskor.BackendMemory
	cfg.Metrics.Runtime = false
	cfg.Sysroot = "mem://localhost/" + t.Name() + "/sysroot"
	data, err := diskor.EncodeConfig(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "diskor.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestConfigCommand(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := New(out)
	cmd.SetArgs([]string{"config"})
	require.NoError(t, cmd.Execute())
	decoded, err := diskor.DecodeConfig(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, diskor.DefaultConfig(), decoded)

	out.Reset()
	cmd = New(out)
	cmd.SetArgs([]string{"config", "--effective", "--config", writeConfig(t)})
	require.NoError(t, cmd.Execute())
	decoded, err = diskor.DecodeConfig(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, diskor.BackendMemory, decoded.Backend.Kind)
}

func TestProbeCommand(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := New(out)
	cmd.SetArgs([]string{"probe", "--config", writeConfig(t)})
	require.NoError(t, cmd.Execute())

	model := &device.Model{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), model))
	disk, err := model.Lookup("vda")
	require.NoError(t, err)
	assert.Equal(t, device.TypeDisk, disk.Type)
}

func TestRootCommand(t *testing.T) {
	cmd := New(&bytes.Buffer{})
	cmd.SetArgs([]string{"probe", "extra"})
	assert.Error(t, cmd.Execute())
}
