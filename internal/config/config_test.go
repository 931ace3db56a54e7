package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, 1*time.Second, c.PollInterval)
	assert.Equal(t, 40, c.PollMaxTries)
	assert.Equal(t, 12*time.Hour, c.URLExpiration)
	assert.Equal(t, "org-sagebridge-userdata", c.UserDataBucket)
	assert.Equal(t, 4, c.WorkerPoolSize)
	assert.Equal(t, "admin", c.S3RootUser)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, 1*time.Second, c.PollInterval)
	assert.Equal(t, 40, c.PollMaxTries)
	assert.Equal(t, 12*time.Hour, c.URLExpiration)
}
