package persist

import "fmt"

// Mode is the per-type storage policy. Exactly one Mode applies to a record
// type, fixed at registration.
type Mode string

const (
	// ModeDev stores the type in the single shared local container file,
	// meant to be freely editable during development.
	ModeDev Mode = "dev"
	// ModeEmbed reads data baked into the binary at build time. Embedded
	// types are never written back in production builds.
	ModeEmbed Mode = "embed"
	// ModeDynamic stores the type in its own file under the user config
	// directory.
	ModeDynamic Mode = "dynamic"
	// ModeSecure stores the type in its own file under the user data
	// directory, sealed with an AEAD when a secret is configured.
	ModeSecure Mode = "secure"
)

func (m Mode) String() string { return string(m) }

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeDev, ModeEmbed, ModeDynamic, ModeSecure:
		return true
	}
	return false
}

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("persist: unknown mode %q", s)
	}
	return m, nil
}

// dedicated reports whether the mode writes to its own per-type file instead
// of the shared dev container.
func (m Mode) dedicated() bool {
	return m == ModeDynamic || m == ModeSecure
}
