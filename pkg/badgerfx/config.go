package badgerfx

import "github.com/dgraph-io/badger/v4"

type Config struct {
	// Path to the BadgerDB data directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps all data in memory, nothing touches disk.
	InMemory bool
	// Wipe drops all keys right after the store opens.
	Wipe bool
}

func (c Config) Build() badger.Options {
	if c.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}

	return badger.DefaultOptions(c.Dir)
}
