package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/action"
	"github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/notify"
	"github.com/entrhq/formpilot/pkg/session"
	"github.com/entrhq/formpilot/pkg/workflow"
)

// runJob connects to the browser, starts one driver job with start and waits
// for its outcome.
func runJob(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, start func(d *workflow.Driver, done func(error))) error {
	log := ctx.logger("workflow")
	h, err := openHost(cmd.Context(), cfg, ctx.logger("host"))
	if err != nil {
		return err
	}
	defer h.Close()

	timeline := workflow.NewTimeline(ctx.logger("timeline"))
	defer timeline.Close()

	driver := workflow.NewDriver(cmd.Context(), action.New(h.doc, cfg.Keywords), timeline, session.New(), workflow.Options{
		Config:   cfg.Workflow(),
		Notifier: notify.Multi{notify.NewTerminal(cmd.OutOrStdout()), notify.NewLog(log)},
		Logger:   log,
	})

	result := make(chan error, 1)
	start(driver, func(err error) { result <- err })

	select {
	case err := <-result:
		return err
	case <-cmd.Context().Done():
		return context.Cause(cmd.Context())
	}
}

func newReferCommand(ctx *commandContext) *cobra.Command {
	var targetURL string

	cmd := &cobra.Command{
		Use:   "refer <specialism-code>",
		Short: "Open the referral form on the consultation journal and hand off to the referral service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code := args[0]
			return runJob(cmd, ctx, cfg, func(d *workflow.Driver, done func(error)) {
				d.Refer(code, targetURL, done)
			})
		},
	}

	cmd.Flags().StringVar(&targetURL, "url", "", "Open this referral service address in a new browser context")
	return cmd
}

func newGoToCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "goto <shortcut>",
		Short: "Run a menu shortcut",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if list || len(args) == 0 {
				shortcuts := append([]workflow.Shortcut(nil), cfg.Shortcuts...)
				sort.Slice(shortcuts, func(i, j int) bool { return shortcuts[i].Name < shortcuts[j].Name })
				rows := make([][]string, 0, len(shortcuts))
				for _, s := range shortcuts {
					rows = append(rows, []string{s.Name, s.Title, s.Menu, s.Button})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Title", "Menu", "Button"}, rows, nil))
				return nil
			}

			name := args[0]
			return runJob(cmd, ctx, cfg, func(d *workflow.Driver, done func(error)) {
				d.GoTo(name, done)
			})
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the configured shortcuts")
	return cmd
}
