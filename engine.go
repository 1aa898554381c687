package persist

import (
	"log/slog"
	"sync"
)

// Engine wires the registration directory, the Manager and the host's tick
// loop together. It owns the live record instances (the host mutates them
// through Resource and Update), runs every type's load hook once before the
// first tick and its persist hook after every tick.
type Engine struct {
	mgr *Manager
	log *slog.Logger

	mu      sync.Mutex
	state   map[string]*stateEntry
	order   []string
	loads   map[string]func()
	saves   map[string]func()
	started bool
}

type stateEntry struct {
	value   Persistable
	changed bool
}

// NewEngine builds an Engine over mgr and consumes the registration
// directory exactly once: every submitted type gets a default instance, its
// auto-save default and mode recorded in the Manager, and its load and
// persist hooks installed.
func NewEngine(mgr *Manager) *Engine {
	e := &Engine{
		mgr:   mgr,
		log:   mgr.log,
		state: map[string]*stateEntry{},
		loads: map[string]func(){},
		saves: map[string]func(){},
	}
	for _, reg := range directory.snapshot() {
		e.log.Debug("persist: registering type", "type", reg.TypeName, "mode", reg.Mode, "auto_save", reg.AutoSave)
		reg.attach(e)
	}
	return e
}

// attachType installs one record type into the engine. Called through the
// registration's wiring callback so the engine itself stays type-erased.
func attachType[T any, PT interface {
	*T
	Persistable
}](e *Engine, reg Registration) {
	name := reg.TypeName

	e.mgr.SetTypeAutoSave(name, reg.AutoSave)
	e.mgr.SetTypeMode(name, reg.Mode)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.state[name]; !ok {
		var zero T
		e.state[name] = &stateEntry{value: PT(&zero)}
		e.order = append(e.order, name)
	}
	e.loads[name] = func() { e.loadType(name, reg) }
	e.saves[name] = func() { e.persistType(name) }
}

// Start runs every type's load hook. It must run once before the first tick;
// later calls are no-ops.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	for _, name := range e.order {
		e.loads[name]()
	}
}

// Tick runs every type's persist hook once. The host calls it at the end of
// each update; Start is implied on the first call.
func (e *Engine) Tick() {
	e.mu.Lock()
	if !e.started {
		e.started = true
		for _, name := range e.order {
			e.loads[name]()
		}
	}
	for _, name := range e.order {
		e.saves[name]()
	}
	e.mu.Unlock()
}

// Manager returns the engine's Manager.
func (e *Engine) Manager() *Manager { return e.mgr }

// loadType resolves stored data for one type and merges it onto the default
// instance. Nothing found means the defaults stand; that is not an error.
// Called with e.mu held.
func (e *Engine) loadType(name string, reg Registration) {
	ent := e.state[name]
	mode := e.mgr.TypeMode(name)

	if mode == ModeEmbed && reg.EmbeddedData != "" {
		f, err := decodeEmbedded(reg.EmbeddedData)
		if err != nil {
			e.log.Warn("persist: embedded data does not parse", "type", name, "err", err)
			return
		}
		if vs, ok := f.TypeData(name); ok {
			ent.value.MergeValueStore(vs)
			e.log.Debug("persist: loaded embedded data", "type", name)
		}
		return
	}

	if mode.dedicated() {
		vs, ok, err := e.mgr.loadDedicated(name, mode)
		if err != nil {
			e.log.Warn("persist: dedicated load failed, keeping defaults", "type", name, "err", err)
			return
		}
		if ok {
			ent.value.MergeValueStore(vs)
			e.log.Debug("persist: loaded dedicated data", "type", name, "mode", mode)
			return
		}
		// Fall through to the dev container: data may predate the mode.
	}

	if vs, ok := e.mgr.TypeData(name); ok {
		ent.value.MergeValueStore(vs)
		e.log.Debug("persist: loaded dev data", "type", name)
	}
}

// persistType is the autosave policy for one type: skip when unchanged, when
// the type is embedded in a production build, when auto-save is off, or when
// the write throttle defers. Failures are logged and swallowed; autosave
// must never interrupt the host's tick. Called with e.mu held.
func (e *Engine) persistType(name string) {
	ent := e.state[name]
	if !ent.changed {
		return
	}
	mode := e.mgr.TypeMode(name)
	if mode == ModeEmbed && !e.mgr.Development() {
		// Embedded resources are read-only outside development builds.
		return
	}
	if !e.mgr.IsAutoSaveEnabled(name) {
		// Leave the change pending so a manual save still writes it.
		return
	}
	if !e.mgr.allowWrite() {
		// Throttled; retry on a later tick.
		return
	}

	vs := ent.value.ToValueStore()
	var err error
	if mode.dedicated() && !e.mgr.Development() {
		err = e.mgr.saveDedicated(name, mode, vs)
	} else {
		e.mgr.SetTypeData(name, vs)
		err = e.mgr.Save()
	}
	if err != nil {
		e.log.Error("persist: auto-save failed", "type", name, "err", err)
		return
	}
	ent.changed = false
	e.log.Debug("persist: auto-saved", "type", name, "mode", mode)
}

// Save persists every registered type's current state right now, regardless
// of change flags and auto-save gating. It is the manual entry point behind
// "save on quit" style commands; the first typed error is returned.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	dirty := false
	for _, name := range e.order {
		ent := e.state[name]
		mode := e.mgr.TypeMode(name)
		if mode == ModeEmbed && !e.mgr.Development() {
			continue
		}
		vs := ent.value.ToValueStore()
		if mode.dedicated() && !e.mgr.Development() {
			if err := e.mgr.saveDedicated(name, mode, vs); err != nil && firstErr == nil {
				firstErr = err
				continue
			}
		} else {
			e.mgr.SetTypeData(name, vs)
			dirty = true
		}
		ent.changed = false
	}
	if dirty {
		if err := e.mgr.Save(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Resource returns the live instance for T, or nil when T was never
// registered. The pointer aliases engine state; prefer Update for mutations
// so the change is tracked.
func Resource[T any, PT interface {
	*T
	Persistable
}](e *Engine) PT {
	var zero T
	name := PT(&zero).PersistName()
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.state[name]
	if !ok {
		return nil
	}
	return ent.value.(PT)
}

// Update mutates T's live instance through fn and marks it changed so the
// next Tick persists it.
func Update[T any, PT interface {
	*T
	Persistable
}](e *Engine, fn func(PT)) {
	var zero T
	name := PT(&zero).PersistName()
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.state[name]
	if !ok {
		return
	}
	fn(ent.value.(PT))
	ent.changed = true
}

// MarkChanged flags a type as changed by name, for hosts that mutate through
// Resource directly. It reports whether the type is registered.
func (e *Engine) MarkChanged(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.state[name]
	if ok {
		ent.changed = true
	}
	return ok
}

// decodeEmbedded parses a build-time literal by trying each codec in turn.
func decodeEmbedded(data string) (*ContainerFile, error) {
	var lastErr error
	for _, c := range codecs {
		f, err := decodeContainer([]byte(data), c)
		if err == nil {
			return f, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
