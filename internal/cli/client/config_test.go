package client

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")

	oldGetConfigPath := getConfigPathFunc
	getConfigPathFunc = func() (string, error) { return configPath, nil }
	t.Cleanup(func() { getConfigPathFunc = oldGetConfigPath })

	return configPath
}

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.True(t, strings.HasSuffix(dir, "docqa"))
}

func TestLoadGlobalConfig_FileNotExists(t *testing.T) {
	useTempConfig(t)

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestLoadGlobalConfig_InvalidJSON(t *testing.T) {
	configPath := useTempConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	require.NoError(t, os.WriteFile(configPath, []byte("{invalid"), 0600))

	_, err := LoadGlobalConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveGlobalConfig_RoundTrip(t *testing.T) {
	configPath := useTempConfig(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "https://docqa.internal"}))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(configPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "https://docqa.internal", loaded.APIURL)
}

func TestSaveGlobalConfig_NilConfig(t *testing.T) {
	assert.Error(t, SaveGlobalConfig(nil))
}

func TestDeleteGlobalConfig(t *testing.T) {
	configPath := useTempConfig(t)

	require.NoError(t, DeleteGlobalConfig())

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://x"}))
	require.NoError(t, DeleteGlobalConfig())
	_, err := os.Stat(configPath)
	assert.True(t, os.IsNotExist(err))
}

func TestResolveAPIURL(t *testing.T) {
	useTempConfig(t)
	t.Setenv(envAPIURL, "")

	url, source, err := ResolveAPIURL("")
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, url)
	assert.Equal(t, SourceDefault, source)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://from-config"}))
	url, source, err = ResolveAPIURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-config", url)
	assert.Equal(t, SourceGlobalConfig, source)

	t.Setenv(envAPIURL, "http://from-env")
	url, source, err = ResolveAPIURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", url)
	assert.Equal(t, SourceEnv, source)

	url, source, err = ResolveAPIURL("http://from-flag")
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag", url)
	assert.Equal(t, SourceFlag, source)
}
