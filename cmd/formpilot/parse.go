package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/fields"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var src textSource
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Show the fields recognised in pasted patient text without touching the browser",
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
			return writeRecord(cmd, rec, asJSON)
		},
	}

	src.addFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the record as JSON")
	return cmd
}

func writeRecord(cmd *cobra.Command, rec fields.Record, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		values := make(map[string]string, rec.Len())
		for label, value := range rec.Map() {
			values[string(label)] = value
		}
		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if rec.Len() == 0 {
		fmt.Fprintln(out, "No fields recognised.")
		return nil
	}
	rows := make([][]string, 0, rec.Len())
	for _, label := range rec.Labels() {
		rows = append(rows, []string{string(label), rec.Value(label)})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}
