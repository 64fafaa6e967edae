package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tailscale/hujson"
	"golang.org/x/term"

	"github.com/jacentio/docupsert/upsert"
)

// errBadInput marks errors caused by an unusable input document or flag.
var errBadInput = errors.New("bad input")

// readDocument reads a JSON object, allowing comments and trailing commas.
func readDocument(r io.Reader) (upsert.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSONC: %v", errBadInput, err)
	}

	var doc upsert.Document
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", errBadInput, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", errBadInput)
	}
	return doc, nil
}

// openDocument reads the document at path, or stdin for "-".
func openDocument(path string, stdin io.Reader) (upsert.Document, error) {
	if path == "-" {
		return readDocument(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readDocument(f)
}

// writeDocument prints doc as JSON, indented when w is a terminal.
// A nil doc prints null.
func writeDocument(w io.Writer, doc upsert.Document) error {
	var (
		out []byte
		err error
	)
	if isTerminal(w) {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
