package cli

import (
	"github.com/spf13/cobra"
)

func newGetCommand(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a document, tombstones included",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sess.client(cmd)
			if err != nil {
				return err
			}
			doc, err := client.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), doc)
		},
	}
}
