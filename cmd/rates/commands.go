package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/rateslib/config"
	"github.com/meenmo/rateslib/internal/logging"
	"github.com/meenmo/rateslib/internal/pricing"
	"github.com/meenmo/rateslib/internal/report"
)

// exitError carries a process exit code through cobra. The JSON error body
// has already been written when it is returned.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

type options struct {
	configPath string
	inputPath  string
	table      bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "rates",
		Short:         "Curve bootstrap and Hull-White swap pricing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config path (defaults + RATES_* env when empty)")
	root.PersistentFlags().StringVarP(&opts.inputPath, "input", "i", "", "request path, YAML or JSON (stdin when empty)")
	root.PersistentFlags().BoolVar(&opts.table, "table", false, "print a table instead of JSON")

	root.AddCommand(
		command("bootstrap", "Bootstrap a zero curve from par OIS quotes", opts,
			func(svc *pricing.Service, in []byte, w io.Writer, table bool) error {
				var req pricing.BootstrapRequest
				if err := decode(in, &req); err != nil {
					return err
				}
				resp, err := svc.Bootstrap(req)
				if err != nil {
					return err
				}
				if table {
					report.WriteCurve(w, resp)
					return nil
				}
				return report.WriteJSON(w, resp)
			}),
		command("callable", "Price a callable swap on the Hull-White tree", opts, swapRunner(false)),
		command("puttable", "Price a puttable swap on the Hull-White tree", opts, swapRunner(true)),
		command("range-accrual", "Price a range accrual leg by Monte Carlo", opts,
			func(svc *pricing.Service, in []byte, w io.Writer, table bool) error {
				var req pricing.RangeAccrualRequest
				if err := decode(in, &req); err != nil {
					return err
				}
				resp, err := svc.RangeAccrual(req)
				if err != nil {
					return err
				}
				if table {
					report.WriteRangeAccrual(w, resp)
					return nil
				}
				return report.WriteJSON(w, resp)
			}),
	)
	return root
}

type runner func(svc *pricing.Service, input []byte, w io.Writer, table bool) error

func swapRunner(puttable bool) runner {
	return func(svc *pricing.Service, in []byte, w io.Writer, table bool) error {
		var req pricing.SwapRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		price := svc.Callable
		if puttable {
			price = svc.Puttable
		}
		resp, err := price(req)
		if err != nil {
			return err
		}
		if table {
			report.WriteSwap(w, resp)
			return nil
		}
		return report.WriteJSON(w, resp)
	}
}

func command(use, short string, opts *options, fn runner) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return writeError(stdout, err)
			}
			logger := logging.New(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(logger)

			in, err := readInput(cmd.InOrStdin(), opts.inputPath)
			if err != nil {
				return writeError(stdout, fmt.Errorf("read input: %w", err))
			}
			svc := pricing.NewService(cfg, nil, logger)
			if err := fn(svc, in, stdout, opts.table); err != nil {
				return writeError(stdout, err)
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path = strings.TrimSpace(path); path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

// decode reads YAML, and therefore JSON, requests.
func decode(in []byte, v any) error {
	if err := yaml.Unmarshal(in, v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return nil
}

func writeError(w io.Writer, err error) error {
	_ = report.WriteJSON(w, map[string]string{"error": err.Error()})
	return exitError{code: 1, err: err}
}
