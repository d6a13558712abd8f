package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendGit, cfg.StoreBackend)
	assert.Equal(t, IndexMemory, cfg.UsernameIndex)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "@every 1m", cfg.ReminderSchedule)
	assert.True(t, cfg.RemindersEnabled())
	assert.False(t, cfg.NeedsDatabase())
}

func TestLoadGitHubRequiresCredentials(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("STORE_BACKEND", "github")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("GITHUB_TOKEN", "token")
	t.Setenv("GITHUB_OWNER", "owner")
	t.Setenv("GITHUB_REPO", "repo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.GitHubBranch)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
}

func TestNeedsDatabase(t *testing.T) {
	cfg := &Config{StoreBackend: BackendGit, UsernameIndex: IndexPostgres}
	assert.True(t, cfg.NeedsDatabase())
}

func TestRemindersOff(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("REMINDER_SCHEDULE", "off")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.RemindersEnabled())
}
