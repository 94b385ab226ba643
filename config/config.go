// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"time"

	"github.com/luxfi/geth/common"
)

const (
	defaultLogLevel       = "info"
	defaultAPIPort        = uint16(8080)
	defaultMetricsPort    = uint16(9090)
	defaultBotDelayMS     = uint64(1000)
	defaultSuccessClearMS = uint64(2000)
	defaultErrorClearMS   = uint64(3000)
)

// Config is the client configuration, populated from the config file,
// environment variables, and flags.
type Config struct {
	LogLevel        string `mapstructure:"log-level" json:"log-level"`
	RPCEndpoint     string `mapstructure:"rpc-endpoint" json:"rpc-endpoint"`
	ContractAddress string `mapstructure:"contract-address" json:"contract-address"`
	GatewayURL      string `mapstructure:"gateway-url" json:"gateway-url"`

	// PrivateKey signs ledger writes. When empty the client is read-only and
	// Identity must be set for view attribution.
	PrivateKey string `mapstructure:"private-key" json:"private-key"`
	Identity   string `mapstructure:"identity" json:"identity"`

	APIPort     uint16 `mapstructure:"api-port" json:"api-port"`
	MetricsPort uint16 `mapstructure:"metrics-port" json:"metrics-port"`

	BotDelayMS     uint64 `mapstructure:"bot-delay-ms" json:"bot-delay-ms"`
	SuccessClearMS uint64 `mapstructure:"success-clear-ms" json:"success-clear-ms"`
	ErrorClearMS   uint64 `mapstructure:"error-clear-ms" json:"error-clear-ms"`
}

func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("%s is required", RPCEndpointKey)
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("%s is not a valid contract address", ContractAddressKey)
	}
	if c.GatewayURL == "" {
		return fmt.Errorf("%s is required", GatewayURLKey)
	}
	if c.PrivateKey == "" && c.Identity == "" {
		return fmt.Errorf("one of %s or %s is required", PrivateKeyKey, IdentityKey)
	}
	if c.Identity != "" && !common.IsHexAddress(c.Identity) {
		return fmt.Errorf("%s is not a valid address", IdentityKey)
	}
	return nil
}

func (c *Config) BotDelay() time.Duration {
	return time.Duration(c.BotDelayMS) * time.Millisecond
}

func (c *Config) SuccessClearDelay() time.Duration {
	return time.Duration(c.SuccessClearMS) * time.Millisecond
}

func (c *Config) ErrorClearDelay() time.Duration {
	return time.Duration(c.ErrorClearMS) * time.Millisecond
}
