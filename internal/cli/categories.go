package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the allowed product categories",
		Run: func(cmd *cobra.Command, args []string) {
			if textOutput() {
				for _, c := range model.Categories {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return
			}
			printJSON(cmd, model.Categories)
		},
	}

	RootCmd.AddCommand(cmd)
}
