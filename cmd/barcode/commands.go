package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	catalogapp "github.com/erp/barcode/internal/application/catalog"
	"github.com/erp/barcode/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errInvalidBarcode signals a failed validation. The result is already
// printed, so main exits 1 without another message.
var errInvalidBarcode = errors.New("barcode is invalid")

type cliOptions struct {
	jsonOutput bool
	logLevel   string
	symbology  string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "barcode",
		Short: "Generate, validate, detect and format product barcodes",
		Long: `Offline barcode toolkit for EAN-13, EAN-8, UPC-A, ITF-14 and CODE128.

Examples:
  barcode generate SKU-001
  barcode generate SKU-001 --symbology EAN8
  barcode validate 4006381333931
  barcode detect 96385074
  barcode format 036000291452`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(opts),
		newValidateCmd(opts),
		newDetectCmd(opts),
		newFormatCmd(opts),
	)
	return root
}

// newService builds a barcode service with no storage behind it; the codec
// operations never reach the repository
func newService(opts *cliOptions, cmd *cobra.Command) (*catalogapp.BarcodeService, error) {
	log, err := logger.New(&logger.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	log.Debug("barcode CLI", zap.String("command", cmd.Name()))
	return catalogapp.NewBarcodeService(nil, nil, catalogapp.DefaultBarcodeServiceConfig(), log), nil
}

func newGenerateCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <seed>",
		Short: "Derive a barcode with a valid check digit from a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts, cmd)
			if err != nil {
				return err
			}
			resp, err := svc.Generate(context.Background(), catalogapp.GenerateBarcodeRequest{
				Seed:      args[0],
				Symbology: opts.symbology,
			})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, resp, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", resp.Barcode, resp.Symbology, resp.Display)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.symbology, "symbology", "s", "", "symbology to generate (default EAN13)")
	return cmd
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <code>",
		Short: "Check a barcode's length, digits and check digit; exits 1 when invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts, cmd)
			if err != nil {
				return err
			}
			resp, err := svc.Validate(context.Background(), catalogapp.ValidateBarcodeRequest{
				Barcode:   args[0],
				Symbology: opts.symbology,
			})
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), opts, resp, func(w io.Writer) {
				status := "VALID"
				if !resp.Valid {
					status = "INVALID"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", status, resp.Symbology, resp.Display)
			}); err != nil {
				return err
			}
			if !resp.Valid {
				return errInvalidBarcode
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.symbology, "symbology", "s", "", "symbology to validate against (default detected)")
	return cmd
}

func newDetectCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <code>",
		Short: "Guess the symbology of a barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts, cmd)
			if err != nil {
				return err
			}
			resp := svc.Detect(args[0])
			return render(cmd.OutOrStdout(), opts, resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.Symbology)
			})
		},
	}
}

func newFormatCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <code>",
		Short: "Group a barcode's digits the way labels print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts, cmd)
			if err != nil {
				return err
			}
			resp, err := svc.Format(args[0], opts.symbology)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, resp, func(w io.Writer) {
				fmt.Fprintln(w, resp.Display)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.symbology, "symbology", "s", "", "symbology to format as (default detected)")
	return cmd
}

func render(w io.Writer, opts *cliOptions, v any, text func(io.Writer)) error {
	if !opts.jsonOutput {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
