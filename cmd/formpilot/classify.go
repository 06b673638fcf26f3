package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/inspect"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var frameFile string
	var pageURL string
	var frameURL string

	cmd := &cobra.Command{
		Use:   "classify [page.html]",
		Short: "Classify the screen shown in the browser, or a saved page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var snap *inspect.Snapshot
			if len(args) == 1 {
				page, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				var frame []byte
				if frameFile != "" {
					if frame, err = os.ReadFile(frameFile); err != nil {
						return fmt.Errorf("read %s: %w", frameFile, err)
					}
				}
				if snap, err = inspect.NewSnapshot(pageURL, string(page), frameURL, string(frame)); err != nil {
					return err
				}
			} else {
				h, err := openHost(cmd.Context(), cfg, ctx.logger("host"))
				if err != nil {
					return err
				}
				defer h.Close()
				if snap, err = h.doc.Snapshot(cmd.Context()); err != nil {
					return fmt.Errorf("read screen: %w", err)
				}
			}

			kw := cfg.Keywords
			rows := [][]string{
				{"state", inspect.Classify(snap, kw).String()},
				{"upload workflow", strconv.FormatBool(inspect.IsAuthorizedContext(snap, kw))},
				{"description screen", strconv.FormatBool(inspect.IsDescriptionScreen(snap, kw))},
				{"import screen", strconv.FormatBool(inspect.IsImportScreen(snap, kw))},
				{"registration form", strconv.FormatBool(inspect.IsPatientForm(snap, kw))},
				{"contact page", strconv.FormatBool(inspect.IsContactPage(snap, kw))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Result"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&frameFile, "frame", "", "Saved markup of the content frame")
	cmd.Flags().StringVar(&pageURL, "url", "", "Address of the saved page")
	cmd.Flags().StringVar(&frameURL, "frame-url", "", "Address of the saved content frame")
	return cmd
}
