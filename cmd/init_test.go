package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommandWritesConfigFile(t *testing.T) {
	_, err := executeCommand(t, "init")
	require.NoError(t, err)

	content, err := os.ReadFile(configFileName)
	require.NoError(t, err)

	assert.Contains(t, string(content), "build:")
	assert.Contains(t, string(content), "sanitizers:")
}

func TestInitCommandRefusesToOverwrite(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(configFileName, []byte("version: 1\n"), 0o600))

	buffer := &bytes.Buffer{}
	rootCmd.SetOut(buffer)
	rootCmd.SetErr(buffer)
	rootCmd.SetArgs([]string{"init"})

	assert.Error(t, rootCmd.Execute())
}
