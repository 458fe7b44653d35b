package curriculum

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidSnapshot is returned when a snapshot fails schema validation.
var ErrInvalidSnapshot = errors.New("invalid curriculum snapshot")

//go:embed snapshot.schema.json
var snapshotSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(snapshotSchema))
	})
	return schema, schemaErr
}

// Validate checks a snapshot against the curriculum schema: priority and
// importance in [0,9], known material and owner kinds, non-negative hours,
// HH:MM clocks and YYYY-MM-DD dates.
func Validate(snap *Snapshot) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling snapshot schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(snap))
	if err != nil {
		return fmt.Errorf("validating snapshot: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
}
