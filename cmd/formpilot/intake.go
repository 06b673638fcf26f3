package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/intake"
)

func newIntakeCommand(ctx *commandContext) *cobra.Command {
	var src textSource
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Fill the patient registration form from pasted text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			parser, err := cfg.Parser()
			if err != nil {
				return err
			}
			text, err := src.read(cmd)
			if err != nil {
				return err
			}
			rec := parser.Parse(text)
			if rec.Len() == 0 {
				return errors.New("no fields recognised in the text")
			}
			if dryRun {
				return writeRecord(cmd, rec, false)
			}

			log := ctx.logger("intake")
			h, err := openHost(cmd.Context(), cfg, ctx.logger("host"))
			if err != nil {
				return err
			}
			defer h.Close()

			writer := intake.NewWriter(action.New(h.doc, cfg.Keywords), cfg.Intake, log)
			if !writer.Ready(cmd.Context()) {
				return fmt.Errorf("%w: the registration form is not open", action.ErrPrecondition)
			}
			res, err := writer.Fill(cmd.Context(), rec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d fields written\n", res.Written)
			if len(res.Missed) > 0 {
				missed := make([]string, len(res.Missed))
				for i, label := range res.Missed {
					missed[i] = string(label)
				}
				fmt.Fprintf(out, "not found on the form: %s\n", strings.Join(missed, ", "))
			}
			return nil
		},
	}

	src.addFlags(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the parsed fields instead of filling the form")
	return cmd
}
