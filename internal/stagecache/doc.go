// Package stagecache provides the content-addressed store for intermediate
// pipeline stage outputs.
//
// Entries are keyed on the source file's content fingerprint plus the
// per-stage configuration fingerprint, so re-running a session after an
// irrelevant config edit hits the cache while a relevant edit recomputes only
// the stages that declared the field. Corrupt or unreadable payloads are
// treated as a miss and recomputed; they are never surfaced as errors.
package stagecache
