package store

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NextRevision returns a fresh revision following prev. An empty prev
// starts the sequence at 1.
func NextRevision(prev string) string {
	u := uuid.New()
	return fmt.Sprintf("%d-%s", RevisionSeq(prev)+1, hex.EncodeToString(u[:]))
}

// RevisionSeq returns the sequence number of a revision, or 0 when rev is
// empty or malformed.
func RevisionSeq(rev string) int64 {
	prefix, _, ok := strings.Cut(rev, "-")
	if !ok {
		return 0
	}
	seq, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
