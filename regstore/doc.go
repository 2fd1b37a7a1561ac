// Package regstore defines the persistent store used by the registry:
// a hierarchical namespace of locations, each holding named, typed scalar
// entries (in the spirit of the Windows registry).
//
// A Store opens a location and returns a Key. Keys must always be closed:
//
//	k, err := store.Open("Software/Consto/Tests/Settings", true)
//	if err != nil {
//	    return err
//	}
//	defer k.Close()
//	err = k.SetValue("Price", regstore.QWordValue(1000))
//
// # Values
//
// A Value is one of String, DWord (32-bit integer), QWord (64-bit integer)
// or Binary. The zero Value has KindNone and means "absent": GetValue
// returns the default it was given when the entry doesn't exist.
//
// # Entries format
//
// Entries can be serialized into a line-oriented, human-readable format
// (see Entries.Marshal), which is used by file and object storage backends:
//
//	BookKind:d 1
//	BookName:s The Book
//	Icon:b+4
//	<4 bytes>
//
// # Implementations
//
// MemoryStore lives here. File system, journal, object storage and Windows
// registry backends live in their own packages.
package regstore
