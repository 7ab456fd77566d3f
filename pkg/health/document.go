package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"github.com/cuemby/randpick/pkg/storage"
)

// DocumentChecker verifies that a stored document can be parsed
type DocumentChecker struct {
	backend storage.Backend
	name    string
	parse   func([]byte) error

	// Required documents fail the check when missing
	Required bool
}

// NewJSONChecker checks a JSON document such as students.json
func NewJSONChecker(backend storage.Backend, name string) *DocumentChecker {
	return &DocumentChecker{
		backend: backend,
		name:    name,
		parse: func(data []byte) error {
			var v any
			return json.Unmarshal(data, &v)
		},
	}
}

// NewINIChecker checks an INI document such as config.ini
func NewINIChecker(backend storage.Backend, name string) *DocumentChecker {
	return &DocumentChecker{
		backend: backend,
		name:    name,
		parse: func(data []byte) error {
			_, err := ini.Load(data)
			return err
		},
	}
}

// Check reads and parses the document
func (d *DocumentChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return result(start, false, fmt.Sprintf("check cancelled: %v", err))
	}

	data, err := d.backend.Read(d.name)
	if errors.Is(err, storage.ErrNotFound) {
		if d.Required {
			return result(start, false, "document is missing")
		}
		return result(start, true, "document not created yet")
	}
	if err != nil {
		return result(start, false, fmt.Sprintf("read failed: %v", err))
	}

	if err := d.parse(data); err != nil {
		return result(start, false, fmt.Sprintf("document is corrupt: %v", err))
	}
	return result(start, true, fmt.Sprintf("%d bytes, parses cleanly", len(data)))
}

// Type returns the health check type
func (d *DocumentChecker) Type() CheckType {
	return CheckTypeDocument
}

// Name returns the document name
func (d *DocumentChecker) Name() string {
	return d.name
}
