// Package intern manages the persisted counters and interning tables of one dataset.
//
// A Manager works on the dataset's namespace (db.KVDB) and owns the key families
//
//	[0]        entity counter
//	[1]        attribute counter
//	[2]        string-literal counter
//	[3][name]  -> attribute id     [4][id] -> attribute name
//	[13][text] -> string id        [14][id] -> text
//
// Counters are 8-byte big-endian values. A missing counter reads as 0, so the first
// allocated id is 1 and id 0 never denotes anything.
//
// Every allocation is one conditional batch: the counter is swapped from the value that
// was read and the name must still be unmapped. A crash can therefore never leave the
// counter advanced without both map entries or the other way round. Conflicting
// batches are retried.
//
// Releasing an id deletes both map entries in one batch, guarded by the name->id entry
// still pointing at the id. The "unused" check is a prefix scan of the statement index
// and is not atomic with the delete; callers must hold the dataset's writer lock.
package intern
