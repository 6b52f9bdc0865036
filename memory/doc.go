// Package memory stores the durable facts the bot has learned about
// each user.
//
// The Store maps user IDs to ordered fact lists and persists the whole
// mapping as one JSON document after every mutation. Mutations for the
// same user are serialized by a per-user mutex, so concurrent additions
// of distinct facts never lose one of them, and the document write is
// atomic (temp file + rename) so a concurrent reader never observes a
// partial file.
//
// # Usage
//
//	store, _ := memory.NewStore(memory.StoreConfig{Path: "data/memory.json"})
//	defer store.Close()
//
//	added, _ := store.Add("user-1", "Adopted a corgi named Biscuit")
//	facts := store.Facts("user-1")
//
// An optional Index adds full-text search over a user's facts:
//
//	idx, _ := memory.NewMemIndex()
//	store, _ := memory.NewStore(memory.StoreConfig{Path: path, Index: idx})
//	hits, _ := idx.Search("user-1", "corgi", 5)
package memory
