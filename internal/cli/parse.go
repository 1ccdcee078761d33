package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/ocr"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Find and normalize expiration dates in text",
		Long: "Find date-like substrings in label text and normalize them to YYYY-MM-DD. " +
			"Reads stdin when no text is given. With --date the whole input is one date.",
		Run: runParse,
	}

	cmd.Flags().Bool("date", false, "Treat the input as a single date and normalize it")

	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	single, _ := cmd.Flags().GetBool("date")

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			exitErr("read stdin", err)
		}
		text = string(data)
	}

	if single {
		d, err := dates.Normalize(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not parse %q\n", strings.TrimSpace(text))
			printJSON(cmd, map[string]any{"raw": text, "date": nil})
			os.Exit(1)
		}
		printJSON(cmd, map[string]any{"raw": text, "date": d})
		return
	}

	res := ocr.Analyze(ocr.Result{Text: text, Confidence: 1})
	if textOutput() {
		for _, c := range res.Candidates {
			if c.Date == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tcould not parse\n", c.Raw)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Raw, c.Date)
		}
		return
	}
	printJSON(cmd, res)
}
