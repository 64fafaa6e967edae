// Package store provides document store clients for the upsert engine.
//
// [Store] keeps documents in a DynamoDB table keyed by a string "id"
// attribute. [Memory] keeps them in process. Both satisfy [upsert.Client]:
//
//   - every successful create or write assigns a new revision token
//   - writes must carry the current revision; a stale one fails with
//     [upsert.ErrConflict]
//   - creating an id that already exists fails with [upsert.ErrConflict]
//   - deletion is a tombstone ("deleted": true); tombstones stay fetchable
//
// # Revisions
//
// Revisions have the form "<seq>-<32 hex digits>". The sequence starts at 1
// on create and increases by one on every write; the suffix is random, so
// two writers that both succeed never share a revision.
//
// # Tombstone expiry
//
// With [Config.TombstoneTTL] set, writes carrying the tombstone marker also
// set the table's "ttl" attribute so DynamoDB eventually purges them.
// Expired tombstones are reported as [upsert.ErrNotFound] even before
// DynamoDB removes them.
package store
