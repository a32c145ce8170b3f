// Package cache provides content-addressed storage for review results.
//
// Keys are SHA-256 digests of the reviewed content, the perspective ID and
// the model identifier (see Key), so the same file reviewed from the same
// angle by the same model is never sent to the endpoint twice. Values are
// opaque JSON documents; package review owns their shape.
//
// Two backends implement Store. FileStore writes one JSON file per key into
// a directory, committing each entry with a rename. SQLiteStore keeps all
// entries in a single database using the pure-Go modernc.org/sqlite driver
// and an embedded migration. Neither backend updates an entry once written
// and neither expires entries; "facet cache clear" is the only eviction.
//
// The default directory is $XDG_CACHE_HOME/facet (or the OS-appropriate
// equivalent). Content is redacted before it reaches the endpoint, but the
// key is derived from what was actually sent.
package cache
