package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetStoreEnv(t *testing.T) {
	for _, p := range (StoreParams{}).Params() {
		t.Setenv(p.Env, "")
		os.Unsetenv(p.Env)
	}
}

func TestParseFlags(t *testing.T) {
	unsetStoreEnv(t)

	cfg, err := ParseFlags([]string{
		"-port", "8080",
		"-token-secret", "s3cret",
		"-token-ttl", "60",
		"-submit-timeout", "3",
		"-session-ttl", "600",
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Url())
	assert.Equal(t, time.Minute, cfg.TokenTTL)
	assert.Equal(t, 3*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 1000, cfg.LocalBuffer)
	assert.Equal(t, StoreParams{}, cfg.StoreParams)
}

func TestParseFlagsErrors(t *testing.T) {
	unsetStoreEnv(t)

	_, err := ParseFlags(nil)
	assert.EqualError(t, err, "missing parameter -token-secret")

	_, err = ParseFlags([]string{"-token-secret", "x", "-admin-email", "a@example.com"})
	assert.Error(t, err)

	_, err = ParseFlags([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestEnvFile(t *testing.T) {
	unsetStoreEnv(t)
	t.Setenv("QSURVEY_PROJECT_ID", "from-env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"QSURVEY_DATABASE_URL=memory:\nQSURVEY_PROJECT_ID=from-file\nQSURVEY_APP_ID=1:abc\n",
	), 0o600))

	cfg, err := ParseFlags([]string{"-token-secret", "x", "-env-file", envFile})
	require.NoError(t, err)
	assert.Equal(t, "memory:", cfg.StoreParams.DatabaseURL)
	assert.Equal(t, "from-env", cfg.StoreParams.ProjectID)
	assert.Equal(t, "1:abc", cfg.StoreParams.AppID)
}

func TestEnvText(t *testing.T) {
	p := StoreParams{
		APIKey:            "key",
		DatabaseURL:       "redis://localhost:6379/0",
		ProjectID:         "survey",
		MessagingSenderID: "42",
	}
	assert.Equal(t,
		"QSURVEY_API_KEY=key\n"+
			"QSURVEY_DATABASE_URL=redis://localhost:6379/0\n"+
			"QSURVEY_PROJECT_ID=survey\n"+
			"QSURVEY_MESSAGING_SENDER_ID=42\n",
		p.EnvText())
	assert.Equal(t, []string{"authDomain", "storageBucket", "appId", "measurementId"}, p.Missing())
	assert.Empty(t, (StoreParams{}).EnvText())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "QSURVEY_MEASUREMENT_ID", EnvName("measurementId"))
	assert.Equal(t, "QSURVEY_APP_ID", EnvName("appId"))
}
