package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/oraclesim"
	"flightsurety/internal/platform/config"
	"flightsurety/internal/platform/logger"
	"flightsurety/internal/platform/redis"
	"flightsurety/pkg/domain"
)

type rootOptions struct {
	config   string
	logLevel string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "oracle-sim",
		Short: "Simulated flight status reporters for the flightsurety ledger",
	}
	cmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "path to simulator YAML config (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	return cmd
}

func loadConfig(opts *rootOptions) (oraclesim.Config, error) {
	if opts.config == "" {
		cfg := oraclesim.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return oraclesim.LoadConfig(opts.config)
}

func newSimulator(opts *rootOptions, cfg oraclesim.Config) (*oraclesim.Simulator, error) {
	policy, err := cfg.Policy.Build()
	if err != nil {
		return nil, err
	}
	fee, err := cfg.FeeAmount()
	if err != nil {
		return nil, err
	}
	tokens := jwttoken.NewJWTService(cfg.SigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	client := oraclesim.NewClient(cfg.Server, tokens, cfg.ClientAddress(), cfg.TokenTTL, nil)
	return oraclesim.New(client, policy, fee, cfg.ReporterAddresses(),
		oraclesim.WithLogger(logger.New(opts.logLevel)),
	), nil
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Register reporters and answer confirmation requests until interrupted",
		Example: `  oracle-sim run --config sim.yaml
  oracle-sim run --log-level debug`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			sim, err := newSimulator(opts, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rdb, err := redis.Open(ctx, config.RedisConfig{
				URL:          cfg.Redis.URL,
				DialTimeout:  5 * time.Second,
				WriteTimeout: 3 * time.Second,
			})
			if err != nil {
				return err
			}
			if rdb == nil {
				return fmt.Errorf("redis.url is required to receive confirmation requests")
			}
			defer rdb.Close()

			if err := sim.Register(ctx); err != nil {
				return err
			}
			return sim.Listen(ctx, rdb, cfg.Redis.ChannelPrefix)
		},
	}
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "register",
		Short:        "Register reporters and print their shard indexes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			sim, err := newSimulator(opts, cfg)
			if err != nil {
				return err
			}
			if err := sim.Register(cmd.Context()); err != nil {
				return err
			}
			for _, r := range sim.Reporters() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", r.Address, r.Indexes)
			}
			return nil
		},
	}
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		caller string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for an account",
		Example: `  oracle-sim token --caller 0x0000000000000000000000000000000000000001
  oracle-sim token --caller passenger-1`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			addr, err := domain.ParseAddress(caller)
			if err != nil {
				addr = domain.AddressFromSeed(caller)
			}
			tokens := jwttoken.NewJWTService(cfg.SigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
			token, err := tokens.GenerateAccessToken(addr, cfg.ClientAddress(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "caller %s via client %s\n", addr, cfg.ClientAddress())
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "account address, or a seed to derive one from (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}
