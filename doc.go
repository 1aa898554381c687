// Package persist saves typed, in-memory records to disk with automatic,
// change-driven saving and per-type storage policy.
//
// Records are plain Go structs that implement the Persistable contract and
// submit themselves to a process-wide registration directory from their
// package init. An Engine built on top of a Manager consumes the directory,
// loads every registered type once before the host's first tick, and persists
// each type after any tick on which its state changed.
//
// On disk, everything lives in a ContainerFile: a single envelope mapping
// type names to generic ValueStores plus a save timestamp and version.
// Container files are encoded as JSON or YAML depending on file extension,
// and types registered with ModeSecure are additionally sealed with an AEAD.
package persist
