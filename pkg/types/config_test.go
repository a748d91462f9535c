package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "negative busy timeout",
			config:  Config{Backend: BackendSQLite, BusyTimeout: -time.Second},
			wantErr: ErrBusyTimeoutInvalid,
		},
		{
			name:    "unknown journal mode",
			config:  Config{Backend: BackendSQLite, JournalMode: "memory"},
			wantErr: ErrJournalModeUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
		},
		{
			name:   "wal with timeout",
			config: Config{Backend: BackendSQLite, BusyTimeout: time.Second, JournalMode: JournalWAL},
		},
		{
			name:   "sqlite with empty DataDir is valid at config level",
			config: Config{Backend: BackendSQLite, DataDir: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.Equal(t, DefaultBusyTimeout, c.Timeout())
	assert.Equal(t, JournalDelete, c.Journal())

	c = Config{BusyTimeout: 250 * time.Millisecond, JournalMode: JournalWAL}
	assert.Equal(t, 250*time.Millisecond, c.Timeout())
	assert.Equal(t, JournalWAL, c.Journal())
}
