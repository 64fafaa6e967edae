// Package cli implements the docupsert command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/jacentio/docupsert/store"
	"github.com/jacentio/docupsert/upsert"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Table        string
	Region       string
	Endpoint     string
	Profile      string
	Verbose      bool
	MaxAttempts  int
	TombstoneTTL time.Duration
}

// ClientFactory opens the document store the commands operate on.
type ClientFactory func(ctx context.Context, opts *RootOptions) (upsert.Client, error)

// NewRootCommand creates the root command backed by DynamoDB.
func NewRootCommand() *cobra.Command {
	return newRootCommand(DynamoDBClient)
}

func newRootCommand(factory ClientFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docupsert",
		Short: "Create or update revision-tracked documents",
		Long: `Create or update documents in a DynamoDB table with optimistic concurrency.

Every write carries the revision it read; writes that lose a race are
retried from a fresh read until they land.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Table, "table", "", "DynamoDB table name (required)")
	cmd.PersistentFlags().StringVar(&opts.Region, "region", "", "AWS region")
	cmd.PersistentFlags().StringVar(&opts.Endpoint, "endpoint", "", "DynamoDB endpoint URL (e.g. DynamoDB Local)")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "AWS shared config profile")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "maximum attempts under conflict (0 = unlimited)")
	cmd.PersistentFlags().DurationVar(&opts.TombstoneTTL, "tombstone-ttl", 0, "expire tombstones after this long (0 = never)")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errBadInput, err)
	})

	sess := &session{opts: opts, factory: factory}
	cmd.AddCommand(newPutCommand(sess))
	cmd.AddCommand(newGetCommand(sess))
	cmd.AddCommand(newDeleteCommand(sess))

	return cmd
}

// session carries what subcommands need to reach the store.
type session struct {
	opts    *RootOptions
	factory ClientFactory
}

func (s *session) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if s.opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (s *session) client(cmd *cobra.Command) (upsert.Client, error) {
	if s.opts.Table == "" {
		return nil, fmt.Errorf("%w: required flag \"table\" not set", errBadInput)
	}
	client, err := s.factory(cmd.Context(), s.opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return client, nil
}

func (s *session) engine(cmd *cobra.Command) (*upsert.Engine, error) {
	client, err := s.client(cmd)
	if err != nil {
		return nil, err
	}
	cfg := upsert.DefaultConfig()
	cfg.MaxAttempts = s.opts.MaxAttempts
	cfg.Backoff = upsert.ExponentialBackoff(10*time.Millisecond, time.Second)
	cfg.Logger = s.logger(cmd)
	return upsert.New(client, cfg), nil
}

// DynamoDBClient opens a store.Store using the default AWS configuration chain.
func DynamoDBClient(ctx context.Context, opts *RootOptions) (upsert.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return store.New(client, store.Config{
		Table:        opts.Table,
		TombstoneTTL: opts.TombstoneTTL,
	}), nil
}
