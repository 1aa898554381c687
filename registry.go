package persist

import (
	"log/slog"
	"sync"
)

// Registration is one record type's entry in the process-wide directory: the
// static metadata plus the callback that wires the type into an Engine.
// Entries are created once per type, before any engine exists, and consumed
// exactly once per engine instance.
type Registration struct {
	TypeName     string
	Mode         Mode
	AutoSave     bool
	EmbeddedData string

	attach func(*Engine)
}

// TypeOption overrides a Registration field at registration time, the
// equivalent of the attribute knobs a code generator would emit.
type TypeOption func(*Registration)

// WithTypeMode fixes the storage mode for the type being registered,
// overriding any ModeProvider implementation.
func WithTypeMode(m Mode) TypeOption {
	return func(r *Registration) { r.Mode = m }
}

// WithTypeAutoSave sets the auto-save default for the type being registered.
func WithTypeAutoSave(enabled bool) TypeOption {
	return func(r *Registration) { r.AutoSave = enabled }
}

type registrationDirectory struct {
	mu      sync.Mutex
	entries []Registration
}

// directory is the process-wide registration directory. Populated from
// package inits, enumerated by every NewEngine.
var directory registrationDirectory

func (d *registrationDirectory) submit(reg Registration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.entries {
		if d.entries[i].TypeName == reg.TypeName {
			slog.Warn("persist: type registered twice, replacing earlier entry", "type", reg.TypeName)
			d.entries[i] = reg
			return
		}
	}
	d.entries = append(d.entries, reg)
}

func (d *registrationDirectory) snapshot() []Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Registration, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *registrationDirectory) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = nil
}

// RegisterType submits T to the registration directory. Call it from the
// type's package init so the type attaches itself to whichever engine is
// built later, without a central file enumerating all persistent types:
//
//	func init() { persist.RegisterType[Settings]() }
//
// Defaults come from the optional ModeProvider, AutoSaver and Embedder
// implementations on *T; opts override them.
func RegisterType[T any, PT interface {
	*T
	Persistable
}](opts ...TypeOption) {
	var zero T
	p := PT(&zero)

	reg := Registration{
		TypeName: p.PersistName(),
		Mode:     ModeDev,
		AutoSave: true,
	}
	if mp, ok := any(p).(ModeProvider); ok {
		reg.Mode = mp.PersistMode()
	}
	if as, ok := any(p).(AutoSaver); ok {
		reg.AutoSave = as.PersistAutoSave()
	}
	if em, ok := any(p).(Embedder); ok {
		reg.EmbeddedData = em.EmbeddedData()
	}
	for _, o := range opts {
		o(&reg)
	}
	if !reg.Mode.Valid() {
		slog.Warn("persist: invalid mode at registration, using dev", "type", reg.TypeName, "mode", reg.Mode)
		reg.Mode = ModeDev
	}
	reg.attach = func(e *Engine) {
		attachType[T, PT](e, reg)
	}
	directory.submit(reg)
}

// RegisteredTypes returns the names currently in the directory, in
// registration order.
func RegisteredTypes() []string {
	entries := directory.snapshot()
	names := make([]string, 0, len(entries))
	for _, reg := range entries {
		names = append(names, reg.TypeName)
	}
	return names
}
