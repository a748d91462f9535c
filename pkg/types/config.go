package types

import (
	"errors"
	"fmt"
	"time"
)

// Config holds store selection and connection parameters for Backend.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// BusyTimeout is how long a write waits on a locked database. Zero
	// means DefaultBusyTimeout.
	BusyTimeout time.Duration `json:"busy_timeout,omitempty" yaml:"busy_timeout,omitempty"`
	// JournalMode is the SQLite journal mode. Empty means JournalDelete.
	JournalMode string `json:"journal_mode,omitempty" yaml:"journal_mode,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// SQLite journal modes accepted by Validate.
const (
	JournalDelete = "delete"
	JournalWAL    = "wal"
)

// DefaultBusyTimeout applies when Config.BusyTimeout is zero.
const DefaultBusyTimeout = 5 * time.Second

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrBusyTimeoutInvalid = errors.New("busy timeout must not be negative")
	ErrJournalModeUnknown = errors.New("unknown journal mode")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.BusyTimeout < 0 {
		return ErrBusyTimeoutInvalid
	}
	switch c.JournalMode {
	case "", JournalDelete, JournalWAL:
	default:
		return fmt.Errorf("%w: %q", ErrJournalModeUnknown, c.JournalMode)
	}
	return nil
}

// Timeout returns the busy timeout, applying DefaultBusyTimeout.
func (c Config) Timeout() time.Duration {
	if c.BusyTimeout == 0 {
		return DefaultBusyTimeout
	}
	return c.BusyTimeout
}

// Journal returns the journal mode, applying JournalDelete.
func (c Config) Journal() string {
	if c.JournalMode == "" {
		return JournalDelete
	}
	return c.JournalMode
}
