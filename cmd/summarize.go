package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/research-assistant/internal/assistant"
)

var summarizeJSON bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Upload a document and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAssistant(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		res, err := env.Service.Upload(ctx, assistant.UploadInput{
			Filename: filepath.Base(args[0]),
			Data:     data,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if summarizeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintf(out, "Session: %s\nFile:    %s\n\n%s\n", res.SessionID, res.Filename, res.Summary)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "print the full upload result as JSON")
	rootCmd.AddCommand(summarizeCmd)
}
