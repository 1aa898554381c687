package persist

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes the wire form of a ContainerFile. Both built-in
// codecs produce stable, human-diffable output and round-trip arbitrary
// nested maps, sequences and scalars.
type Codec interface {
	// Name identifies the codec in errors and logs.
	Name() string
	// Ext is the file extension (with dot) the codec claims.
	Ext() string
	Encode(wire map[string]any) ([]byte, error)
	Decode(data []byte) (map[string]any, error)
}

// codecs lists every known codec; order matters for try-each decoding of
// embedded literals.
var codecs = []Codec{jsonCodec{}, yamlCodec{}}

// codecForPath selects a codec by file extension. YAML extensions pick the
// YAML codec; everything else defaults to JSON.
func codecForPath(path string) Codec {
	return codecForExt(filepath.Ext(path))
}

func codecForExt(ext string) Codec {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yamlCodec{}
	default:
		return jsonCodec{}
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Ext() string { return ".json" }

func (jsonCodec) Encode(wire map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) Decode(data []byte) (map[string]any, error) {
	wire := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&wire); err != nil {
		return nil, err
	}
	return wire, nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }
func (yamlCodec) Ext() string { return ".yaml" }

func (yamlCodec) Encode(wire map[string]any) ([]byte, error) {
	return yaml.Marshal(wire)
}

func (yamlCodec) Decode(data []byte) (map[string]any, error) {
	wire := map[string]any{}
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return wire, nil
}
