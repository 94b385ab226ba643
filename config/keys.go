// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	LogLevelKey        = "log-level"
	RPCEndpointKey     = "rpc-endpoint"
	ContractAddressKey = "contract-address"
	GatewayURLKey      = "gateway-url"
	PrivateKeyKey      = "private-key"
	IdentityKey        = "identity"
	APIPortKey         = "api-port"
	MetricsPortKey     = "metrics-port"
	BotDelayMSKey      = "bot-delay-ms"
	SuccessClearMSKey  = "success-clear-ms"
	ErrorClearMSKey    = "error-clear-ms"
)
