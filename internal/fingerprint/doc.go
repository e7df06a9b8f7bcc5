// Package fingerprint derives the stable hash identities the stage cache is
// keyed on: a bounded content hash for source media files and a per-stage
// hash over the allow-listed configuration fields. Keeping the allow-list in
// one table prevents both silent cache invalidation and silent staleness when
// configuration fields are added.
package fingerprint
