package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	litcal "github.com/AnandSundar/go-litcal"
	"github.com/AnandSundar/go-litcal/config"
	"github.com/AnandSundar/go-litcal/metadata"
)

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the litcal command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "litcal",
		Short:         "Query the Liturgical Calendar API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.config/litcal/config.toml)")

	root.AddCommand(newCalendarsCmd(&configPath))
	root.AddCommand(newValidateCmd(&configPath))
	root.AddCommand(newGetCmd(&configPath))
	return root
}

// session is the client stack a command runs against.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	client *litcal.Client
	close  func() error
}

func openSession(configPath string) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	opts, closeFn, err := cfg.ClientOptions(logger, nil)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("build client: %w", err)
	}
	return &session{cfg: cfg, logger: logger, client: litcal.New(opts...), close: closeFn}, nil
}

// provider registers the process-wide metadata provider on first use.
func (s *session) provider() *metadata.Provider {
	return metadata.Instance(
		metadata.WithBaseURL(s.cfg.BaseURL),
		metadata.WithTransport(s.client),
		metadata.WithLogger(s.logger),
	)
}

func (s *session) Close() {
	if err := s.close(); err != nil {
		s.logger.Warn("close cache store", zap.Error(err))
	}
	_ = s.logger.Sync()
}

func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
