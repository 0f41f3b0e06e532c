package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-builder/internal/ingestion"
)

var (
	extractOut      string
	extractMetaPath string
)

var extractTextCmd = &cobra.Command{
	Use:   "extract-text <rfp.pdf>",
	Short: "Extract the raw text of an RFP",
	Long:  "Extract the text of a PDF page by page (or read a text file) and print it, optionally writing it and its metadata to files.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractText,
}

func init() {
	extractTextCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Write the text to this file instead of stdout")
	extractTextCmd.Flags().StringVar(&extractMetaPath, "meta", "", "Write extraction metadata JSON to this file")
	rootCmd.AddCommand(extractTextCmd)
}

func runExtractText(cmd *cobra.Command, args []string) error {
	source := ingestion.NewFileSource(newLogger(false))
	text, meta, err := source.ExtractText(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if meta.Incomplete() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: no text on pages %v, extraction errors on pages %v\n", meta.EmptyPages, meta.ErrorPages)
	}

	if extractMetaPath != "" {
		data, err := meta.ToJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(extractMetaPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	if extractOut != "" {
		if err := os.WriteFile(extractOut, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d characters to %s\n", len([]rune(text)), extractOut)
		return nil
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
