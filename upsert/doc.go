// Package upsert implements create-or-update over a revision-tracked document store.
//
// The store is expected to assign a new revision token on every successful
// write, to reject writes that carry a stale revision with [ErrConflict], and
// to model deletion as a tombstone marker ([DeletedField]) rather than
// physical removal.
//
// # Protocol
//
// Each call to [Engine.Upsert] runs one or more passes of:
//
//  1. Fetch the existing document (skipped on the first pass when
//     [Request.ExistingDoc] is set). If none exists, create it, unless
//     [Request.ShouldCreate] is false.
//  2. Ask [Request.ShouldUpdate] whether an update is wanted at all.
//  3. Merge the existing document, with its tombstone marker removed, and
//     the new document using [Request.Merge]. The existing revision is then
//     stamped onto the result.
//  4. Write the merged document.
//
// A conflict on create or write restarts the protocol from step 1 with a
// fresh fetch. Conflicts are never returned to the caller.
//
// # Usage
//
//	engine := upsert.New(client, upsert.DefaultConfig())
//
//	req := upsert.NewRequest("_design/foo", designDoc).
//	    WithShouldUpdate(func(existing, newDoc upsert.Document) bool {
//	        return existing["version"] == nil || existing["version"].(float64) < newDoc["version"].(float64)
//	    })
//
//	doc, err := engine.Upsert(ctx, req)
//
// # Errors
//
//   - [ErrInvalidRequest] - the request has no id or no new document
//   - [ErrMergeRejected] - matched by every [*MergeRejectedError]
//   - [ErrTooManyConflicts] - [Config.MaxAttempts] was exhausted
//   - [*StoreError] - any other fetch, create or write failure
package upsert
