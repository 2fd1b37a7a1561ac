// Package journalstore implements regstore.Store as an append-only journal
// of changes with an index file and a data file.
//
// Every SetValue appends a record, so the journal keeps the full history of
// every entry. The current state is rebuilt by replaying the index when the
// store is opened.
//
// # Store Structure
//
// A Store consists of two files in DataDir:
//   - An index file (default: "index.txt") with one line per record:
//     <offset> <size> <timestamp ms> <kind> <meta>
//   - A data file (default: "data.bin") with values of entries
//
// Record kinds:
//   - "loc": a location was created, meta is the quoted path
//   - "set": an entry was written, meta is <tag> <quoted path> <quoted name>
//     where tag is the kind of the value (see regstore.EncodeData)
//
// # Basic Usage
//
//	s := &journalstore.Store{
//	    DataDir: "./data",
//	}
//	err := journalstore.OpenStore(s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := registry.New("Consto", "Tests", s)
//
// # Thread Safety
//
// The Store is safe for concurrent use. All public methods that access
// or modify records are protected by a mutex.
package journalstore
