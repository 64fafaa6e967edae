package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/docupsert/upsert"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	NoCreate    bool
	Merge       string // "replace" | "shallow"
	OnlyIfNewer string
}

// ValidMerges defines the allowed merge strategies.
var ValidMerges = []string{"replace", "shallow"}

func newPutCommand(sess *session) *cobra.Command {
	opts := &PutOptions{}

	cmd := &cobra.Command{
		Use:   "put <id> [file]",
		Short: "Create or update a document",
		Long: `Create or update the document <id> from a JSON file, or stdin when the
file is omitted or "-". Comments and trailing commas are allowed.

Prints the document as written, or the existing document when
--only-if-newer skips the update, or null when --no-create skips a
missing document.`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 2 {
				path = args[1]
			}
			return runPut(sess, opts, cmd, args[0], path)
		},
	}

	cmd.Flags().BoolVar(&opts.NoCreate, "no-create", false, "do not create the document if it does not exist")
	cmd.Flags().StringVar(&opts.Merge, "merge", "replace", "merge strategy (replace|shallow)")
	cmd.Flags().StringVar(&opts.OnlyIfNewer, "only-if-newer", "", "only update when this numeric field is greater than the stored one")

	return cmd
}

func runPut(sess *session, opts *PutOptions, cmd *cobra.Command, id, path string) error {
	merge, err := mergeFunc(opts.Merge)
	if err != nil {
		return err
	}

	newDoc, err := openDocument(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	engine, err := sess.engine(cmd)
	if err != nil {
		return err
	}

	req := upsert.NewRequest(id, newDoc).
		WithShouldCreate(!opts.NoCreate).
		WithMerge(merge)
	if opts.OnlyIfNewer != "" {
		req = req.WithShouldUpdate(newerField(opts.OnlyIfNewer))
	}

	doc, err := engine.Upsert(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeDocument(cmd.OutOrStdout(), doc)
}

func mergeFunc(name string) (upsert.MergeFunc, error) {
	switch name {
	case "replace":
		return upsert.ReplaceMerge, nil
	case "shallow":
		return upsert.ShallowMerge, nil
	default:
		return nil, fmt.Errorf("%w: invalid merge %q: must be one of %v", errBadInput, name, ValidMerges)
	}
}

// newerField updates when the stored document lacks field or holds a
// smaller number than the new one.
func newerField(field string) upsert.ShouldUpdateFunc {
	return func(existing, newDoc upsert.Document) bool {
		have, ok := existing[field].(float64)
		if !ok {
			return true
		}
		want, ok := newDoc[field].(float64)
		return ok && have < want
	}
}
