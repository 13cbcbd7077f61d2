package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CURSOR_SECRET", "")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 8, c.BattleSize)
	assert.Equal(t, 60*time.Second, c.VoteWindow)
	assert.Equal(t, 3*time.Second, c.NextPairDelay)
	assert.Len(t, c.CursorSecret, 32)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BATTLE_SIZE", "16")
	t.Setenv("VOTE_WINDOW", "0s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CURSOR_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 16, c.BattleSize)
	assert.Zero(t, c.VoteWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSAllowedOrigins)
	assert.Equal(t, []byte("s3cret"), c.CursorSecret)
	assert.True(t, c.InMemory())
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv("BATTLE_SIZE", "1")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("BATTLE_SIZE", "8")
	t.Setenv("LOG_LEVEL", "loud")
	_, err = FromEnv()
	assert.Error(t, err)
}
