// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/botcipher/cipherchat"
	"github.com/botcipher/cipherchat/api"
	"github.com/botcipher/cipherchat/config"
	"github.com/botcipher/cipherchat/fhe"
	"github.com/botcipher/cipherchat/ledger/evm"
	"github.com/botcipher/cipherchat/metrics"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const serveRefreshInterval = 15 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cipherchat",
	Short: "Encrypted chat client for the BotCipher ledger",
	Long: `cipherchat drives the lifecycle of FHE-encrypted chat messages: it
encrypts integer values through a relayer gateway, stores them alongside
plaintext content on an EVM ledger, and runs the verifiable decryption
protocol that discloses them with proof of correctness.`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.String(config.ConfigFileKey, "", "Path to a JSON config file")
	fs.String(config.LogLevelKey, "", "Log level")
	fs.String(config.RPCEndpointKey, "", "Ledger RPC endpoint URL")
	fs.String(config.ContractAddressKey, "", "Record contract address")
	fs.String(config.GatewayURLKey, "", "FHE relayer gateway base URL")
	fs.String(config.PrivateKeyKey, "", "Hex private key for signing ledger writes")
	fs.String(config.IdentityKey, "", "Session identity address (read-only mode)")
	fs.Uint16(config.APIPortKey, 0, "API server port")
	fs.Uint16(config.MetricsPortKey, 0, "Metrics server port")
	fs.Uint64(config.BotDelayMSKey, 0, "Responder delay in milliseconds")
	fs.Uint64(config.SuccessClearMSKey, 0, "Success status visibility in milliseconds")
	fs.Uint64(config.ErrorClearMSKey, 0, "Error status visibility in milliseconds")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)

	sendCmd.Flags().String("content", "", "Message content")
	sendCmd.Flags().String("value", "", "Integer value to encrypt")
}

// client bundles everything a command needs.
type client struct {
	logger       *zap.Logger
	cfg          config.Config
	registry     *prometheus.Registry
	repo         *cipherchat.Repository
	status       *cipherchat.StatusChannel
	orchestrator *cipherchat.Orchestrator
	store        *evm.Store
	identity     string
	evmClient    *evm.Client
}

func buildClient(cmd *cobra.Command) (*client, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	evmClient, err := evm.Dial(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, err
	}

	identity := cfg.Identity
	var sender evm.TxSender
	if cfg.PrivateKey != "" {
		keySender, err := evm.NewKeySender(ctx, evmClient, cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		sender = keySender
		identity = keySender.Address().Hex()
	}

	store, err := evm.NewStore(
		logger,
		evmClient,
		sender,
		evmClient,
		common.HexToAddress(cfg.ContractAddress),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	repo := cipherchat.NewRepository(logger, store, lifecycleMetrics)

	status := cipherchat.NewStatusChannel()
	status.SuccessClearDelay = cfg.SuccessClearDelay()
	status.ErrorClearDelay = cfg.ErrorClearDelay()

	gateway := fhe.NewGateway(logger, cfg.GatewayURL)

	orchestrator := cipherchat.NewOrchestrator(cipherchat.OrchestratorConfig{
		Logger:          logger,
		Session:         cipherchat.StaticSession{Identity: identity},
		Encryptor:       gateway,
		Verifier:        gateway,
		Store:           store,
		Repository:      repo,
		Status:          status,
		Metrics:         lifecycleMetrics,
		ContractAddress: cfg.ContractAddress,
		BotDelay:        cfg.BotDelay(),
	})

	return &client{
		logger:       logger,
		cfg:          cfg,
		registry:     registry,
		repo:         repo,
		status:       status,
		orchestrator: orchestrator,
		store:        store,
		identity:     identity,
		evmClient:    evmClient,
	}, nil
}

func (c *client) close() {
	c.evmClient.Close()
	_ = c.logger.Sync()
}

// printStatusTransitions mirrors the status channel to stdout until the
// returned stop function is called.
func (c *client) printStatusTransitions() func() {
	updates := c.status.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-updates:
				if s.Visible {
					fmt.Printf("[%s] %s\n", s.Kind, s.Message)
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Encrypt a value and submit a new message",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		content, _ := cmd.Flags().GetString("content")
		value, _ := cmd.Flags().GetString("value")

		stop := c.printStatusTransitions()
		defer stop()

		id := c.orchestrator.CreateMessage(cmd.Context(), content, value)
		c.orchestrator.Wait()
		if id == "" {
			return fmt.Errorf("message creation failed: %s", c.status.Current().Message)
		}
		fmt.Printf("Created message %s\n", id)
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <message-id>",
	Short: "Run the verifiable decryption protocol for a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		stop := c.printStatusTransitions()
		defer stop()

		value, ok := c.orchestrator.DecryptMessage(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("no value disclosed: %s", c.status.Current().Message)
		}
		fmt.Printf("Decrypted value: %d\n", value)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		messages, _, err := c.repo.Refresh(cmd.Context(), c.identity)
		if err != nil {
			return err
		}
		for _, m := range messages {
			author := "bot"
			if m.IsUser {
				author = "you"
			}
			state := "encrypted"
			if m.IsVerified {
				state = fmt.Sprintf("verified value=%d", m.DecryptedValue)
			}
			fmt.Printf("%s  %s  [%s] [%s]  %s\n",
				m.ID,
				time.Unix(int64(m.Timestamp), 0).Format(time.RFC3339),
				author,
				state,
				m.Content,
			)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chat statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		_, stats, err := c.repo.Refresh(cmd.Context(), c.identity)
		if err != nil {
			return err
		}
		fmt.Printf("Total messages:     %d\n", stats.TotalMessages)
		fmt.Printf("Encrypted messages: %d\n", stats.EncryptedMessages)
		fmt.Printf("Verified messages:  %d\n", stats.VerifiedMessages)
		fmt.Printf("Mean timestamp:     %.0f\n", stats.AvgResponseTime)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check FHE system availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		c.orchestrator.CheckAvailability(cmd.Context())
		current := c.status.Current()
		fmt.Println(current.Message)
		if current.Kind == cipherchat.StatusError {
			return fmt.Errorf("availability check failed")
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only chat API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		ctx := cmd.Context()
		if _, _, err := c.repo.Refresh(ctx, c.identity); err != nil {
			c.logger.Warn("Initial refresh failed", zap.Error(err))
		}

		mux := http.NewServeMux()
		api.NewServer(c.logger, c.repo, c.status).RegisterRoutes(mux)
		api.RegisterHealthCheck(mux, c.store)
		api.StartMetricsServer(c.logger, c.cfg.MetricsPort, c.registry)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			addr := fmt.Sprintf(":%d", c.cfg.APIPort)
			c.logger.Info("Serving API", zap.String("addr", addr))
			return http.ListenAndServe(addr, mux)
		})
		g.Go(func() error {
			ticker := time.NewTicker(serveRefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if _, _, err := c.repo.Refresh(ctx, c.identity); err != nil {
						c.logger.Warn("Periodic refresh failed", zap.Error(err))
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		return g.Wait()
	},
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}
