package persist

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/statekit/persist/internal/paths"
)

// Manager resolves storage locations, caches the shared dev container file
// and tracks per-type auto-save and mode tables. One Manager backs one
// Engine; all methods are safe for concurrent use.
type Manager struct {
	org string
	app string

	mu            sync.Mutex
	file          *ContainerFile
	devPath       string
	baseDir       string // overrides platform dirs when set
	autoSave      bool
	development   bool
	secret        []byte
	autoSaveTypes map[string]bool
	modes         map[string]Mode
	limiter       *rate.Limiter
	history       *history

	log *slog.Logger
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithAutoSave sets the global auto-save flag (default true).
func WithAutoSave(enabled bool) Option {
	return func(m *Manager) { m.autoSave = enabled }
}

// WithDevelopment marks the build as a development configuration: every type
// routes through the editable dev container file and ModeEmbed types may be
// written back.
func WithDevelopment(enabled bool) Option {
	return func(m *Manager) { m.development = enabled }
}

// WithBaseDir anchors the dev file and the dynamic/secure directories under
// dir instead of the working directory and platform directories.
func WithBaseDir(dir string) Option {
	return func(m *Manager) { m.baseDir = dir }
}

// WithSecret supplies key material for sealing ModeSecure files.
func WithSecret(secret []byte) Option {
	return func(m *Manager) { m.secret = secret }
}

// WithLogger replaces slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithDevFormat selects the dev container file extension, ".json" (default)
// or ".yaml".
func WithDevFormat(ext string) Option {
	return func(m *Manager) {
		m.devPath = strings.TrimSuffix(m.devPath, filepath.Ext(m.devPath)) + ext
	}
}

// WithSaveInterval throttles change-driven saves to at most one per
// interval. A deferred save stays pending and is retried on later ticks;
// manual saves are never throttled.
func WithSaveInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithHistory records every dev container flush as a git commit in the base
// directory. Failures to commit are logged, never fatal.
func WithHistory(enabled bool) Option {
	return func(m *Manager) {
		if enabled {
			m.history = &history{}
		}
	}
}

// NewManager builds a Manager for the given organization and application
// identifiers and eagerly loads the dev container file. Load failures are
// downgraded to "start empty": a corrupt or unreadable dev file must never
// prevent startup.
func NewManager(org, app string, opts ...Option) *Manager {
	m := &Manager{
		org:           org,
		app:           app,
		autoSave:      true,
		autoSaveTypes: map[string]bool{},
		modes:         map[string]Mode{},
		log:           slog.Default(),
		devPath:       devFileName(app) + ".json",
	}
	for _, o := range opts {
		o(m)
	}
	if m.baseDir != "" {
		m.devPath = filepath.Join(m.baseDir, filepath.Base(m.devPath))
	}

	f, err := LoadContainerFile(m.devPath)
	if err != nil {
		m.log.Warn("persist: dev container unreadable, starting empty", "path", m.devPath, "err", err)
		f = NewContainerFile()
	}
	m.file = f

	if m.history != nil {
		if err := m.history.open(filepath.Dir(m.devPath)); err != nil {
			m.log.Warn("persist: history disabled", "err", err)
			m.history = nil
		}
	}
	return m
}

// devFileName derives the dev container file name from the application
// identifier: lowercased, spaces replaced.
func devFileName(app string) string {
	name := strings.ToLower(strings.TrimSpace(app))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "persist"
	}
	return name
}

// DevPath returns the resolved dev container file path.
func (m *Manager) DevPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.devPath
}

// Development reports whether the Manager runs in a development
// configuration.
func (m *Manager) Development() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.development
}

// ResourcePath resolves the concrete storage location for a type and mode.
// ModeEmbed returns "" because embedded data never touches disk. Dynamic and
// secure directories are created on demand; when platform directories are
// unavailable the current directory is used rather than failing.
func (m *Manager) ResourcePath(typeName string, mode Mode) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resourcePath(typeName, mode)
}

func (m *Manager) resourcePath(typeName string, mode Mode) string {
	switch mode {
	case ModeDynamic:
		dir := m.platformDir("config", paths.ConfigDir)
		return filepath.Join(dir, typeName+filepath.Ext(m.devPath))
	case ModeSecure:
		dir := m.platformDir("data", paths.DataDir)
		return filepath.Join(dir, typeName+secureExt)
	case ModeEmbed:
		return ""
	default:
		return m.devPath
	}
}

// platformDir resolves and creates the directory backing dynamic or secure
// storage. kind is the subdirectory used under an explicit base dir.
func (m *Manager) platformDir(kind string, resolve func() (string, error)) string {
	var dir string
	if m.baseDir != "" {
		dir = filepath.Join(m.baseDir, kind)
	} else if base, err := resolve(); err == nil {
		dir = paths.AppDir(base, m.org, m.app)
	} else {
		m.log.Warn("persist: platform directory unavailable, falling back to working directory", "kind", kind, "err", err)
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.log.Warn("persist: cannot create storage directory, falling back to working directory", "dir", dir, "err", err)
		return "."
	}
	return dir
}

// Save flushes the cached dev container file to disk. Unlike autosave, the
// error is returned so an explicit "Save" action can report failure.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save()
}

func (m *Manager) save() error {
	if err := m.file.SaveToFile(m.devPath); err != nil {
		return err
	}
	if m.history != nil {
		if err := m.history.commit(filepath.Base(m.devPath)); err != nil {
			m.log.Warn("persist: history commit failed", "err", err)
		}
	}
	return nil
}

// Load re-reads the dev container file from disk, replacing the cache. Used
// for forced refresh, not on the normal hot path.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := LoadContainerFile(m.devPath)
	if err != nil {
		return err
	}
	m.file = f
	return nil
}

// TypeData returns the cached dev container entry for a type name.
func (m *Manager) TypeData(name string) (ValueStore, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.file.TypeData(name)
	return vs, ok
}

// SetTypeData replaces the cached dev container entry for a type name. The
// cache is not flushed; call Save.
func (m *Manager) SetTypeData(name string, vs ValueStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.file.SetTypeData(name, vs)
}

// IsAutoSaveEnabled reports whether change-driven saving applies to a type:
// the global flag AND the per-type override, which defaults to true.
func (m *Manager) IsAutoSaveEnabled(typeName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.autoSave {
		return false
	}
	enabled, ok := m.autoSaveTypes[typeName]
	return !ok || enabled
}

// SetTypeAutoSave toggles change-driven saving for one type.
func (m *Manager) SetTypeAutoSave(typeName string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoSaveTypes[typeName] = enabled
}

// SetGlobalAutoSave toggles change-driven saving for every type at once.
func (m *Manager) SetGlobalAutoSave(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoSave = enabled
}

// TypeMode returns the storage mode recorded for a type, ModeDev if never
// set.
func (m *Manager) TypeMode(typeName string) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode, ok := m.modes[typeName]; ok {
		return mode
	}
	return ModeDev
}

// SetTypeMode records the storage mode for a type.
func (m *Manager) SetTypeMode(typeName string, mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[typeName] = mode
}

// allowWrite applies the optional autosave throttle. Manual saves bypass it.
func (m *Manager) allowWrite() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limiter == nil || m.limiter.Allow()
}

// saveDedicated writes one type's ValueStore to its own per-type container
// file, resolved for the given mode.
func (m *Manager) saveDedicated(typeName string, mode Mode, vs ValueStore) error {
	m.mu.Lock()
	path := m.resourcePath(typeName, mode)
	secret := m.secret
	m.mu.Unlock()

	f := NewContainerFile()
	f.SetTypeData(typeName, vs)
	if mode == ModeSecure {
		if len(secret) == 0 {
			m.log.Warn("persist: no secret configured, writing secure file unsealed", "type", typeName)
		}
		return saveSecureFile(path, f, secret)
	}
	return f.SaveToFile(path)
}

// loadDedicated reads one type's ValueStore from its per-type container
// file. The boolean is false when the file does not exist or holds no entry
// for the type.
func (m *Manager) loadDedicated(typeName string, mode Mode) (ValueStore, bool, error) {
	m.mu.Lock()
	path := m.resourcePath(typeName, mode)
	secret := m.secret
	m.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return ValueStore{}, false, nil
	}
	var f *ContainerFile
	var err error
	if mode == ModeSecure {
		f, err = loadSecureFile(path, secret)
	} else {
		f, err = LoadContainerFile(path)
	}
	if err != nil {
		return ValueStore{}, false, err
	}
	vs, ok := f.TypeData(typeName)
	return vs, ok, nil
}
