package persist

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects a JSON Schema over a record type's persisted shape, for
// tooling that wants to validate or document container files. Field
// descriptions come from `jsonschema:"description=..."` tags.
func SchemaFor(p Persistable) ([]byte, error) {
	t := reflect.TypeOf(p)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("persist: %s is not a struct", t)
	}
	// Inline properties, no $ref: the persisted shape is flat per type.
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schema := r.ReflectFromType(t)
	schema.Title = p.PersistName()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, serErr("json", err)
	}
	return append(data, '\n'), nil
}
