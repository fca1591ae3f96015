// Package cli is the nyxguard command line. Every command builds the
// application from the layered config, runs, and closes it again; logs go to
// stderr so stdout carries only command output.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/raysh454/nyxguard/internal/app"
	"github.com/raysh454/nyxguard/internal/domains"
	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/scanner"
	"github.com/raysh454/nyxguard/internal/settings"
)

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

// NewRootCommand builds the nyxguard command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "nyxguard",
		Short:         "Score web pages for phishing, dark patterns and trackers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default is ./"+app.DefaultConfigFile+" when present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable log output")

	root.AddCommand(
		newServeCommand(opts),
		newScanCommand(opts),
		newSettingsCommand(opts),
		newAddDomainCommand(opts, settings.ListAllow),
		newAddDomainCommand(opts, settings.ListDeny),
		newListsCommand(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

// withApp loads config, builds the application and hands it to fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.pretty {
		cfg.Log.Pretty = true
	}

	logger := logging.NewZerologLogger(cmd.ErrOrStderr(), logging.Options{
		Level:     cfg.Log.Level,
		Pretty:    cfg.Log.Pretty,
		Component: "nyxguard",
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("closing application", logging.Err(cerr))
		}
	}()
	return fn(ctx, a)
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Serve(ctx)
			})
		},
	}
}

func newScanCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan <url>...",
		Short: "Fetch pages and print their risk assessment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				outcomes := a.Scanner.ScanAll(ctx, args)

				out := cmd.OutOrStdout()
				if asJSON {
					if err := writeJSON(out, outcomes); err != nil {
						return err
					}
				} else {
					printOutcomes(out, outcomes)
				}

				failed := 0
				for _, o := range outcomes {
					if o.Error != "" {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d scans failed", failed, len(outcomes))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func printOutcomes(w io.Writer, outcomes []scanner.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tSCORE\tLEVEL\tREASONS")
	for _, o := range outcomes {
		url := domains.TruncateMiddle(o.URL, 60)
		if o.Error != "" {
			fmt.Fprintf(tw, "%s\t-\terror\t%s\n", url, o.Error)
			continue
		}
		ids := make([]string, 0, len(o.Result.Reasons))
		for _, r := range o.Result.Reasons {
			ids = append(ids, r.ID)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", url, o.Result.Score, o.Result.Level, strings.Join(ids, ","))
	}
	_ = tw.Flush()
}

func newSettingsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or reset the stored settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
					st, err := a.Settings.Load(ctx)
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), redact(st))
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
					st, err := a.Settings.Reset(ctx)
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), redact(st))
				})
			},
		},
	)
	return cmd
}

func newAddDomainCommand(opts *rootOptions, list settings.List) *cobra.Command {
	return &cobra.Command{
		Use:   string(list) + " <domain>",
		Short: fmt.Sprintf("Add a domain to the %slist", list),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				if _, err := a.Settings.AddDomain(ctx, list, args[0]); err != nil {
					return err
				}
				domain, _ := domains.NormalizeDomain(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to the %slist.\n", domain, list)
				return nil
			})
		},
	}
}

func newListsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage the allow and deny lists",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <allow|deny> <file>",
		Short: "Import one domain per line into a list; use - for stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := settings.ParseList(args[0])
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				summary, err := a.Settings.ImportDomainLines(ctx, list, text)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
				return nil
			})
		},
	})
	return cmd
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// redact hides the reputation API key from printed settings.
func redact(st settings.Settings) settings.Settings {
	if st.ReputationAPIKey != "" {
		st.ReputationAPIKey = "********"
	}
	return st
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
