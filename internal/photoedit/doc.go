// Package photoedit reconciles local edits to a design's photo collections
// before they are committed in a single update.
//
// An edit Session holds, per photo category, an immutable snapshot of the
// persisted photo locators and an Edits store of pending intents: replace an
// existing position, append a new photo, or delete an existing position.
// Every uploaded file gets a revocable preview Handle from the session's
// Previews registry; handles are released when their intent is cancelled,
// when the session is discarded, or when a save succeeds.
//
// Project derives what the editor renders from the store without mutating
// it, and Reconcile converts the store into the parallel files/indices
// arrays the update endpoint expects.
package photoedit
