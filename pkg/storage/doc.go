/*
Package storage persists randpick's documents.

randpick keeps four documents: the roster (students.json), the settings
override (config.ini), the optional shipped defaults (default_config.json)
and the history (log/history.json). Components always read and write a
document as a whole, so the Backend interface is a small key/value contract:

	type Backend interface {
		Read(name string) ([]byte, error)
		Write(name string, data []byte) error
		Exists(name string) bool
		Close() error
	}

Read returns ErrNotFound for a document that was never written. Callers
treat that as empty data.

# Backends

FileBackend stores each document as a file under the data directory. A write
goes to a temporary file in the same directory which is synced and renamed
over the original, so a crash leaves either the old or the new document and
never a truncated one. Names containing a slash create subdirectories.

BoltBackend stores every document as a key in the "documents" bucket of
<dataDir>/randpick.db. Each write is one bbolt transaction.

	backend, err := storage.Open("bolt", dataDir)
	if err != nil {
		return err
	}
	defer backend.Close()

# Corrupt Documents

Backup writes a copy of unreadable bytes under "<name>.corrupt-<unixnano>"
before a component replaces the document with an empty one, so the
original data can still be recovered by hand.
*/
package storage
