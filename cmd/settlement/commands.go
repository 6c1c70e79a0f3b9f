package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/garyjia/settlement-converter/internal/interfaces/http"
	"github.com/garyjia/settlement-converter/internal/pipeline"
	"github.com/garyjia/settlement-converter/internal/storage"
	"github.com/garyjia/settlement-converter/pkg/utils"
)

var variantNames = map[pipeline.Variant]string{
	pipeline.VariantLocal: "本行",
	pipeline.VariantOther: "他行",
}

// offerCmd converts an offer text file into the bank's spreadsheet
func (a *app) offerCmd(v pipeline.Variant) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s-offer <offer.txt>", v),
		Short: fmt.Sprintf("Convert a %s offer text file into a spreadsheet", variantNames[v]),
		Long: fmt.Sprintf(`Parses a %s offer text file and writes the offer spreadsheet.

The output defaults to <offer>%s next to the input. Lines that cannot be
parsed are listed in the report; nothing is written when no line parses.`,
			variantNames[v], pipeline.OfferOutputSuffix),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidateInputFile(args[0]); err != nil {
				return err
			}
			svc, err := a.service(a.cfg.Output.BaseDir)
			if err != nil {
				return err
			}
			p, err := svc.Offer(v)
			if err != nil {
				return err
			}

			res, err := p.Convert(commandContext(cmd), args[0], output)
			if res != nil {
				if rerr := writeReport(cmd.OutOrStdout(), a.format, offerReport(res)); rerr != nil {
					return rerr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output spreadsheet path")
	return cmd
}

// replyCmd reconciles a reply spreadsheet against its offer text file
func (a *app) replyCmd(v pipeline.Variant) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s-reply <offer.txt> <reply.xls>", v),
		Short: fmt.Sprintf("Reconcile a %s reply spreadsheet and annotate the offer", variantNames[v]),
		Long: fmt.Sprintf(`Compares the transactions of a %s offer text file with the bank's
reply spreadsheet. When both hold the same transactions, writes a copy of the
offer with each remark prefixed by 001 (success) or 002 (failure), by default
to <offer>%s. Otherwise prints both differences, writes nothing
and exits with status 2.`,
			variantNames[v], pipeline.ReplyOutputSuffix),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, in := range args {
				if err := utils.ValidateInputFile(in); err != nil {
					return err
				}
			}
			svc, err := a.service(a.cfg.Output.BaseDir)
			if err != nil {
				return err
			}
			p, err := svc.Reply(v)
			if err != nil {
				return err
			}

			res, err := p.ReconcileAndAnnotate(commandContext(cmd), args[0], args[1], output)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), a.format, replyReport(res)); err != nil {
				return err
			}
			if !res.Consistent() {
				return errInconsistent
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output text path")
	return cmd
}

// serveCmd runs the HTTP adapter until interrupted
func (a *app) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Server
			if port > 0 {
				sc.Port = port
			}

			// Each request works in its own temporary directory.
			svc, err := pipeline.NewService(a.cfg, storage.NewLocalFileStorage("", a.logger), a.logger)
			if err != nil {
				return err
			}
			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:          sc.Host,
				Port:          sc.Port,
				Mode:          sc.Mode,
				ReadTimeout:   sc.ReadTimeout,
				WriteTimeout:  sc.WriteTimeout,
				MaxUploadSize: sc.MaxUploadSize,
			}, svc, version, a.logger)

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("Starting settlement server",
				zap.String("version", version),
				zap.String("address", server.Address()))
			return server.Start(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides server.port)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
