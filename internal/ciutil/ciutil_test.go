package ciutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI,
		EnvTestDatabaseURL, EnvLegacyTestDBURL, EnvDatabaseURL,
	} {
		t.Setenv(name, "")
	}
}

func TestIsCI(t *testing.T) {
	clearEnv(t)
	assert.False(t, IsCI())

	t.Setenv(EnvGitHubActions, "true")
	assert.True(t, IsCI())
}

func TestGetEnvWithFallbacks(t *testing.T) {
	clearEnv(t)
	logBuf, log := logger.SetupTestLogger(t)

	assert.Equal(t, "default", GetEnvWithFallbacks([]string{"SCRY_A_UNSET", "SCRY_B_UNSET"}, "default", log))

	t.Setenv(EnvDatabaseURL, "postgres://app:hunter22@db:5432/x")
	got := GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", log)
	assert.Equal(t, "postgres://app:hunter22@db:5432/x", got)
	logger.AssertLogContains(t, logBuf, "using legacy environment variable")
	assert.NotContains(t, logBuf.String(), "hunter22")
}

func TestGetTestDatabaseURL(t *testing.T) {
	t.Run("unset outside CI", func(t *testing.T) {
		clearEnv(t)
		assert.Empty(t, GetTestDatabaseURL(nil))
	})

	t.Run("unset inside CI", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvCI, "true")
		assert.Equal(t, StandardCIDatabaseURL, GetTestDatabaseURL(nil))
	})

	t.Run("local host gets sslmode", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvTestDatabaseURL, "postgresql://u:p@localhost:5433/cache")
		assert.Equal(t, "postgresql://u:p@localhost:5433/cache?sslmode=disable", GetTestDatabaseURL(nil))
	})

	t.Run("remote host untouched", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvTestDatabaseURL, "postgres://u:p@db.internal:5432/cache?sslmode=require")
		assert.Equal(t, "postgres://u:p@db.internal:5432/cache?sslmode=require", GetTestDatabaseURL(nil))
	})

	t.Run("unparseable URL returned as is", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvTestDatabaseURL, "mysql://u:p@localhost/x")
		assert.Equal(t, "mysql://u:p@localhost/x", GetTestDatabaseURL(nil))
	})
}
