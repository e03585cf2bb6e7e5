package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/shell/config"
)

func lookupFrom(env map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func Test_Load_Defaults(t *testing.T) {
	// act
	cfg, err := config.LoadWithLookup("", lookupFrom(nil))

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
	assert.False(t, cfg.OTel.Enabled)
}

func Test_Load_YAMLThenEnvironment(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "lending.yaml")
	yamlContent := `
database:
  driver: pgx
  dsn: postgres://yaml@localhost/lending
  max_conns: 4
http:
  addr: ":8080"
  request_timeout: 3s
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	env := map[string]string{
		"LENDING_DB_DSN":       "postgres://env@localhost/lending",
		"LENDING_OTEL_ENABLED": "true",
	}

	// act
	cfg, err := config.LoadWithLookup(path, lookupFrom(env))

	// assert
	require.NoError(t, err)
	assert.Equal(t, config.DriverPGX, cfg.Database.Driver)
	assert.Equal(t, "postgres://env@localhost/lending", cfg.Database.DSN)
	assert.Equal(t, 4, cfg.Database.MaxConns)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.LogFormatText, cfg.Log.Format)
	assert.True(t, cfg.OTel.Enabled)
}

func Test_Load_Rejects_Invalid_Values(t *testing.T) {
	testCases := []struct {
		name        string
		env         map[string]string
		expectedErr error
	}{
		{
			name:        "unknown driver",
			env:         map[string]string{"LENDING_DB_DRIVER": "oracle"},
			expectedErr: config.ErrUnknownDriver,
		},
		{
			name:        "malformed max conns",
			env:         map[string]string{"LENDING_DB_MAX_CONNS": "many"},
			expectedErr: config.ErrInvalidEnvValue,
		},
		{
			name:        "zero max conns",
			env:         map[string]string{"LENDING_DB_MAX_CONNS": "0"},
			expectedErr: config.ErrInvalidMaxConns,
		},
		{
			name:        "replica without pgx",
			env:         map[string]string{"LENDING_DB_REPLICA_DSN": "postgres://replica"},
			expectedErr: config.ErrReplicaNeedsPGX,
		},
		{
			name:        "unknown log level",
			env:         map[string]string{"LENDING_LOG_LEVEL": "loud"},
			expectedErr: config.ErrInvalidLogLevel,
		},
		{
			name:        "unknown log format",
			env:         map[string]string{"LENDING_LOG_FORMAT": "xml"},
			expectedErr: config.ErrInvalidLogFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := config.LoadWithLookup("", lookupFrom(tc.env))

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_Load_Fails_For_Missing_File(t *testing.T) {
	// act
	_, err := config.LoadWithLookup(filepath.Join(t.TempDir(), "missing.yaml"), lookupFrom(nil))

	// assert
	assert.ErrorIs(t, err, config.ErrReadingConfigFailed)
}

func Test_SQLiteDSN(t *testing.T) {
	// act
	dsn := config.SQLiteDSN("/tmp/lending.db", 2*time.Second)

	// assert
	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/lending.db?"))
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "busy_timeout%282000%29")
	assert.Contains(t, dsn, "foreign_keys%281%29")
	assert.Equal(t, "file:x.db?mode=ro", config.SQLiteDSN("file:x.db?mode=ro", time.Second))
}

func Test_NewLogger_Respects_Level_And_Format(t *testing.T) {
	// arrange
	var buf bytes.Buffer

	// act
	logger, err := config.NewLogger(&buf, config.LogConfig{Level: "warn", Format: config.LogFormatText})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("item_code", "B1"))

	// assert
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "item_code=B1")
}
