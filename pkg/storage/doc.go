/*
Package storage persists the set of tracked application names between passes.

The set is the only state fluxdns carries from one reconciliation pass to the
next. It is read and rewritten once per pass, before any pipeline starts, by a
single writer.

# Backends

Two AppStore implementations are provided and selected with Open:

	file  FileStore  newline-delimited text (apps.txt), created if absent,
	                 rewritten atomically via a temp file + rename
	bolt  BoltStore  BoltDB file with one "applications" bucket

BoltStore keys are 8-byte big-endian sequence numbers, so a cursor walk
returns names in the order they were saved, and each value is a JSON AppRecord:

	{"name": "minecraft1", "added_at": "2026-10-19T12:00:00Z"}

AddedAt survives later saves for names that remain tracked. The fluxdns-migrate
command imports an existing apps.txt into a BoltStore.

# Usage

	store, err := storage.Open(storage.BackendFile, "apps.txt")
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.Load()
	...
	err = store.Save(updated)
*/
package storage
