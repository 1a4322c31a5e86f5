package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/irfndi/tokenscope/internal/client"
	"github.com/irfndi/tokenscope/internal/config"
	"github.com/irfndi/tokenscope/internal/history"
	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/tui"
	"github.com/irfndi/tokenscope/internal/utils"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tokenscope",
		Short: "tokenscope - AI analysis of Solana tokens",
		Long: `tokenscope fetches live DexScreener market data for a Solana token and asks
the analysis server for a narrative covering price action, liquidity, sentiment and risk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newHistoryCmd())

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Write debug logs to stderr")
	rootCmd.PersistentFlags().String("server", "", "Analysis server URL (overrides client.server_url)")

	return rootCmd
}

// cliEnv is the configuration shared by every subcommand.
type cliEnv struct {
	cfg     *config.Config
	logger  logrus.FieldLogger
	store   history.Store
	closeFn func() error
}

func (e *cliEnv) Close() {
	if e.closeFn != nil {
		if err := e.closeFn(); err != nil {
			e.logger.WithError(err).Warn("Failed to close history store")
		}
	}
}

func loadEnv(cmd *cobra.Command) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.Client.ServerURL = server
	}

	var logger logrus.FieldLogger = logging.Discard()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		l := logging.NewLogger("debug", cfg.Environment)
		l.SetOutput(cmd.ErrOrStderr())
		logger = l
	}

	store, closeFn, err := history.Open(cmd.Context(), cfg.History, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open search history: %w", err)
	}

	return &cliEnv{cfg: cfg, logger: logger, store: store, closeFn: closeFn}, nil
}

func (e *cliEnv) newController() *client.Controller {
	api := client.NewAPIClient(e.cfg.Client.ServerURL, config.Duration(e.cfg.Client.Timeout, client.DefaultTimeout))
	return client.NewController(api,
		client.WithHistory(e.store),
		client.WithLogger(e.logger),
	)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [ADDRESS]",
		Short: "Analyze a token once and print the result",
		Long: `Run one analysis for a Solana token address, retrying transient failures.
Example: tokenscope analyze DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263 --prompt "liquidity risk?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := utils.ValidateTokenAddress(args[0])
			if err != nil {
				return err
			}
			prompt, _ := cmd.Flags().GetString("prompt")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			return runAnalyze(cmd, env.newController(), address, prompt, timeout)
		},
	}

	cmd.Flags().String("prompt", "", "Question to ask about the token (full analysis if empty)")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Give up after this long, retries included")

	return cmd
}

func runAnalyze(cmd *cobra.Command, controller *client.Controller, address, prompt string, timeout time.Duration) error {
	defer controller.Close()

	ctx, stop := signalContext(cmd)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	errOut := cmd.ErrOrStderr()
	unsubscribe := controller.Subscribe(func(s client.State) {
		if s.RetryPending {
			fmt.Fprintf(errOut, "Request failed: %s. Retrying (attempt %d)...\n", s.ErrorMessage, s.AttemptCount+1)
		}
	})
	defer unsubscribe()

	fmt.Fprintf(errOut, "Analyzing %s...\n", logging.ShortToken(address))
	if err := controller.BindPrompt(address, prompt); err != nil {
		return err
	}

	state, err := controller.Await(ctx)
	if err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}
	if state.Status == client.StatusError {
		return fmt.Errorf("analysis failed after %d attempts: %s", state.AttemptCount, state.ErrorMessage)
	}

	printResult(cmd.OutOrStdout(), state)
	return nil
}

func printResult(w io.Writer, state client.State) {
	if state.Result == nil {
		return
	}
	fmt.Fprintln(w, "Token Data")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprint(w, tui.RenderSnapshot(state.Result.Snapshot))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Analysis")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w, strings.TrimSpace(state.Result.NarrativeText))
}

// newChatCmd creates the interactive chat command
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [ADDRESS]",
		Short: "Open the interactive analysis panel for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := utils.ValidateTokenAddress(args[0])
			if err != nil {
				return err
			}

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := signalContext(cmd)
			defer stop()

			controller := env.newController()
			if err := controller.Bind(address); err != nil {
				return err
			}
			return tui.Run(ctx, controller, env.store)
		},
	}
}

// newHistoryCmd creates the history command
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently analyzed tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := cmd.Context()
			if reset, _ := cmd.Flags().GetBool("clear"); reset {
				if err := env.store.Write(ctx, nil); err != nil {
					return fmt.Errorf("failed to clear search history: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Search history cleared.")
				return nil
			}

			entries, err := env.store.Read(ctx)
			if err != nil {
				return fmt.Errorf("failed to read search history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recent searches.")
				return nil
			}
			for i, token := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, token)
			}
			return nil
		},
	}

	cmd.Flags().Bool("clear", false, "Remove all entries")

	return cmd
}
