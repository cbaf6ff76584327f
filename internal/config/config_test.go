package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvGroupID, "-100500")
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvOpsAddr, "")
	t.Setenv(EnvLocalePath, "")
	t.Setenv(EnvPollTimeout, "")
	t.Setenv(EnvMaxLetterLen, "")
}

func TestLoad_DefaultsWithEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.EqualValues(t, -100500, cfg.GroupID)
	assert.Equal(t, "snowpost.db", cfg.DatabasePath)
	assert.Equal(t, 30, cfg.PollTimeout)
	assert.Equal(t, 2000, cfg.MaxLetterLen)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvDBPath, "/var/lib/snowpost/letters.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
group_id: -42
database_path: from-file.db
poll_timeout: 10
max_letter_len: 500
ops_listen_addr: "127.0.0.1:9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Env wins over file for group id and db path.
	assert.EqualValues(t, -100500, cfg.GroupID)
	assert.Equal(t, "/var/lib/snowpost/letters.db", cfg.DatabasePath)
	// File wins over defaults where no env is set.
	assert.Equal(t, 10, cfg.PollTimeout)
	assert.Equal(t, 500, cfg.MaxLetterLen)
	assert.Equal(t, "127.0.0.1:9090", cfg.OpsListenAddr)
}

func TestLoad_EveryFieldEnvOverridable(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvLocalePath, "/etc/snowpost/ru.yaml")
	t.Setenv(EnvPollTimeout, "15")
	t.Setenv(EnvMaxLetterLen, "300")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locale_path: from-file.yaml
poll_timeout: 45
max_letter_len: 1000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/snowpost/ru.yaml", cfg.LocalePath)
	assert.Equal(t, 15, cfg.PollTimeout)
	assert.Equal(t, 300, cfg.MaxLetterLen)
}

func TestLoad_BadPollTimeoutEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvPollTimeout, "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPollTimeout)
}

func TestValidate_MissingToken(t *testing.T) {
	t.Setenv(EnvBotToken, "")
	t.Setenv(EnvGroupID, "-1")

	cfg, err := Load("")
	require.NoError(t, err, "Load itself must not validate")

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvBotToken)
}

func TestValidate_MissingGroup(t *testing.T) {
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvGroupID, "")

	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group_id")
}

func TestLoad_BadGroupEnv(t *testing.T) {
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvGroupID, "not-a-number")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_Bounds(t *testing.T) {
	cfg := defaults()
	cfg.BotToken = "t"
	cfg.GroupID = -1

	cfg.PollTimeout = 0
	assert.Error(t, cfg.Validate())

	// A hold time past the cap would outlive the transport client's timeout.
	cfg.PollTimeout = MaxPollTimeout + 1
	assert.Error(t, cfg.Validate())

	cfg.PollTimeout = MaxPollTimeout
	assert.NoError(t, cfg.Validate())

	cfg.PollTimeout = 30
	cfg.MaxLetterLen = -5
	assert.Error(t, cfg.Validate())

	cfg.MaxLetterLen = 2000
	assert.NoError(t, cfg.Validate())
}
