package cli

import (
	"github.com/spf13/cobra"
)

func newDeleteCommand(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Tombstone a document",
		Long: `Mark the document <id> deleted. The tombstone keeps the document's
fields and stays readable with get. A later put revives it.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := sess.engine(cmd)
			if err != nil {
				return err
			}
			doc, err := engine.Tombstone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), doc)
		},
	}
}
