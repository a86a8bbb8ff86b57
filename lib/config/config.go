package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-i2p/linklayer/lib/util"
	"github.com/go-i2p/logger"
	"github.com/spf13/viper"
)

var (
	CfgFile string
	log     = logger.GetGoI2PLogger()
)

const LINKLAYER_BASE_DIR = ".linklayer"

// InitConfig wires viper to the config file (explicit via CfgFile, or the
// default $HOME/.linklayer/config.yaml), registers defaults, creates the
// file if it's missing, and refreshes LinkConfigProperties.
func InitConfig() {
	if CfgFile != "" {
		viper.SetConfigFile(CfgFile)
	} else {
		viper.AddConfigPath(BuildLinkDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	handleConfigFile()
	UpdateLinkConfig()
}

func setDefaults() {
	d := DefaultLinkConfig()
	viper.SetDefault("listen_addr", d.ListenAddr)
	viper.SetDefault("identity_file", d.IdentityFile)
	viper.SetDefault("base_dir", d.BaseDir)
	viper.SetDefault("working_dir", d.WorkingDir)
	viper.SetDefault("session_timeout", d.SessionTimeout)
	viper.SetDefault("keepalive_enabled", d.KeepaliveEnabled)
	viper.SetDefault("max_reassembled_message_size", d.MaxReassembledMessageSize)
}

// NewLinkConfigFromViper builds a LinkConfig from the current viper settings.
// Preferred over reading the LinkConfigProperties global directly.
func NewLinkConfigFromViper() *LinkConfig {
	return &LinkConfig{
		ListenAddr:                viper.GetString("listen_addr"),
		IdentityFile:              viper.GetString("identity_file"),
		BaseDir:                   viper.GetString("base_dir"),
		WorkingDir:                viper.GetString("working_dir"),
		SessionTimeout:            viper.GetDuration("session_timeout"),
		KeepaliveEnabled:          viper.GetBool("keepalive_enabled"),
		MaxReassembledMessageSize: viper.GetInt("max_reassembled_message_size"),
	}
}

// UpdateLinkConfig refreshes LinkConfigProperties from viper settings.
func UpdateLinkConfig() {
	LinkConfigProperties = NewLinkConfigFromViper()
}

func createDefaultConfig(defaultConfigDir string) {
	defaultConfigFile := filepath.Join(defaultConfigDir, "config.yaml")
	if err := os.MkdirAll(defaultConfigDir, 0o755); err != nil {
		log.Fatalf("Could not create config directory: %s", err)
	}

	if err := viper.WriteConfig(); err != nil {
		log.Fatalf("Could not write default config file: %s", err)
	}

	log.Debugf("Created default configuration at: %s", defaultConfigFile)
}

func handleConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if CfgFile != "" {
				log.Fatalf("Config file %s is not found: %s", CfgFile, err)
			} else {
				createDefaultConfig(BuildLinkDirPath())
			}
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	} else {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

// BuildLinkDirPath returns $HOME/.linklayer, the root of both BaseDir and
// WorkingDir unless overridden.
func BuildLinkDirPath() string {
	return filepath.Join(util.UserHome(), LINKLAYER_BASE_DIR)
}

// ParseSessionTimeout is a small helper for flag/env parsing call sites that
// receive the timeout as a string (e.g. from a CLI flag) rather than a
// viper-bound duration.
func ParseSessionTimeout(s string) (time.Duration, error) {
	if s == "" {
		return DefaultLinkConfig().SessionTimeout, nil
	}
	return time.ParseDuration(s)
}
