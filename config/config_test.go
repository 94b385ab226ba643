// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		RPCEndpoint:     "http://localhost:8545",
		ContractAddress: "0x000000000000000000000000000000000000dEaD",
		GatewayURL:      "http://localhost:3000",
		PrivateKey:      "abc123",
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*Config)
		errRegex string
	}{
		{
			name:   "valid with private key",
			mutate: func(*Config) {},
		},
		{
			name: "valid read-only with identity",
			mutate: func(c *Config) {
				c.PrivateKey = ""
				c.Identity = "0x00000000000000000000000000000000000000AB"
			},
		},
		{
			name:     "missing rpc endpoint",
			mutate:   func(c *Config) { c.RPCEndpoint = "" },
			errRegex: RPCEndpointKey,
		},
		{
			name:     "bad contract address",
			mutate:   func(c *Config) { c.ContractAddress = "not-an-address" },
			errRegex: ContractAddressKey,
		},
		{
			name:     "missing gateway url",
			mutate:   func(c *Config) { c.GatewayURL = "" },
			errRegex: GatewayURLKey,
		},
		{
			name: "no signer and no identity",
			mutate: func(c *Config) {
				c.PrivateKey = ""
			},
			errRegex: IdentityKey,
		},
		{
			name: "malformed identity",
			mutate: func(c *Config) {
				c.Identity = "bogus"
			},
			errRegex: IdentityKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.errRegex == "" {
				require.NoError(err)
			} else {
				require.ErrorContains(err, tc.errRegex)
			}
		})
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	require := require.New(t)

	v := viper.New()
	cfg, err := BuildConfig(v)
	require.NoError(err)

	require.Equal(defaultLogLevel, cfg.LogLevel)
	require.Equal(defaultAPIPort, cfg.APIPort)
	require.Equal(defaultMetricsPort, cfg.MetricsPort)
	require.Equal(time.Second, cfg.BotDelay())
	require.Equal(2*time.Second, cfg.SuccessClearDelay())
	require.Equal(3*time.Second, cfg.ErrorClearDelay())
}

func TestBuildConfigOverrides(t *testing.T) {
	require := require.New(t)

	v := viper.New()
	v.Set(RPCEndpointKey, "http://localhost:8545")
	v.Set(BotDelayMSKey, 250)

	cfg, err := BuildConfig(v)
	require.NoError(err)
	require.Equal("http://localhost:8545", cfg.RPCEndpoint)
	require.Equal(250*time.Millisecond, cfg.BotDelay())
}
