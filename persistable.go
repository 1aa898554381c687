package persist

// Persistable is the per-type adapter contract bridging a live record
// instance and its generic ValueStore representation. Implementations are
// mechanical; StoreFrom and MergeInto cover the common case:
//
//	func (s *Settings) PersistName() string            { return "Settings" }
//	func (s *Settings) ToValueStore() ValueStore       { return persist.StoreFrom(s) }
//	func (s *Settings) MergeValueStore(vs ValueStore)  { persist.MergeInto(s, vs) }
type Persistable interface {
	// PersistName is the stable type name used as the key in container files.
	PersistName() string
	// ToValueStore snapshots the instance into its generic persisted shape.
	ToValueStore() ValueStore
	// MergeValueStore overlays stored fields onto the instance. Fields absent
	// from the store keep their current values.
	MergeValueStore(vs ValueStore)
}

// ModeProvider is optionally implemented by a Persistable to pick a storage
// Mode other than ModeDev.
type ModeProvider interface {
	PersistMode() Mode
}

// AutoSaver is optionally implemented by a Persistable to change the
// auto-save default (true when absent).
type AutoSaver interface {
	PersistAutoSave() bool
}

// Embedder is optionally implemented by ModeEmbed types to expose data
// captured at build time, typically a go:embed string holding a container
// file in either codec. An empty string means no embedded payload.
type Embedder interface {
	EmbeddedData() string
}
