package config

import (
	"path/filepath"
	"time"
)

// LinkConfig holds the tunable parameters of a single link layer node:
// where it binds, which identity it loads, how long a session may sit idle
// before it is reaped, and the size limits the fragment codec and
// reassembly buffer enforce.
type LinkConfig struct {
	// ListenAddr is the UDP address the transport binds to, e.g. ":7654".
	ListenAddr string
	// IdentityFile holds the router's long-term signing and transport keys.
	IdentityFile string
	// BaseDir contains read-only default configuration shipped with the binary.
	BaseDir string
	// WorkingDir contains runtime-modifiable configuration and state.
	WorkingDir string
	// SessionTimeout is how long a session may go without activity before
	// it is considered dead and reaped on the next tick.
	SessionTimeout time.Duration
	// KeepaliveEnabled controls whether a session emits a DiscardMessage,
	// from the manager's tick, when its send queue is empty and it has been
	// idle for at least half of SessionTimeout, to keep the transport alive.
	KeepaliveEnabled bool
	// MaxReassembledMessageSize bounds a single reassembled message (MAX_LINK_MSG).
	MaxReassembledMessageSize int
}

func defaultLinkBase() string {
	return filepath.Join(BuildLinkDirPath(), "base")
}

func defaultLinkWorking() string {
	return filepath.Join(BuildLinkDirPath(), "config")
}

var defaultLinkConfig = &LinkConfig{
	ListenAddr:                ":7654",
	IdentityFile:              "identity.key",
	BaseDir:                   defaultLinkBase(),
	WorkingDir:                defaultLinkWorking(),
	SessionTimeout:            30 * time.Second,
	KeepaliveEnabled:          false,
	MaxReassembledMessageSize: 65536,
}

// DefaultLinkConfig returns the package-wide default LinkConfig.
func DefaultLinkConfig() *LinkConfig {
	return defaultLinkConfig
}

// LinkConfigProperties is the process-wide config, refreshed by UpdateLinkConfig.
var LinkConfigProperties = DefaultLinkConfig()
