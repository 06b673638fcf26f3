package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/ui"
)

// textSource selects where pasted patient text comes from.
type textSource struct {
	file      string
	clipboard bool
}

func (s *textSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "Read the text from a file (- for stdin)")
	cmd.Flags().BoolVar(&s.clipboard, "clipboard", false, "Read the text from the clipboard")
}

// read returns the text from the file, the clipboard, piped stdin or, on a
// terminal, an interactive prompt.
func (s *textSource) read(cmd *cobra.Command) (string, error) {
	var text string
	switch {
	case s.file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	case s.file != "":
		data, err := os.ReadFile(s.file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", s.file, err)
		}
		text = string(data)
	case s.clipboard:
		v, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		text = v
	case isTerminal(cmd.InOrStdin()):
		v, err := ui.ReadPaste(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), "Patiëntgegevens")
		if err != nil {
			return "", err
		}
		text = v
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text to parse")
	}
	return text, nil
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
