// Package config provides configuration management for the link layer node.
//
// # Configuration Directories
//
// The config file itself is $HOME/.linklayer/config.yaml (or the file named by
// CfgFile); InitConfig creates it from the defaults when it is missing.
//
// LinkConfig also carries two directory paths:
//
// BaseDir: a directory for read-only default files.
//   - Default location: $HOME/.linklayer/base
//   - Nothing in this package reads from or writes to BaseDir; it is only
//     carried as a setting.
//
// WorkingDir: the directory for runtime state.
//   - Default location: $HOME/.linklayer/config
//   - A relative IdentityFile (default identity.key) is resolved against
//     WorkingDir, and a newly generated identity is written there.
//
// There is no fallback from WorkingDir to BaseDir: a file missing from
// WorkingDir is not looked up in BaseDir.
package config
