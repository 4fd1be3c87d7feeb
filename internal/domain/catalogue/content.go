package catalogue

import (
	"fmt"
	"strings"
)

// ContentField is one optional display field of a catalogue item
type ContentField uint8

const (
	FieldSKU ContentField = 1 << iota
	FieldCategories
	FieldShortDescription
	FieldLongDescription
)

// allFields lists the optional fields in their fixed display order
var allFields = []ContentField{FieldSKU, FieldCategories, FieldShortDescription, FieldLongDescription}

// Key returns the settings key of the field
func (f ContentField) Key() string {
	switch f {
	case FieldSKU:
		return "sku"
	case FieldCategories:
		return "categories"
	case FieldShortDescription:
		return "short_description"
	case FieldLongDescription:
		return "long_description"
	default:
		return ""
	}
}

// String returns the settings key of the field
func (f ContentField) String() string {
	return f.Key()
}

// ParseContentField parses a settings key
func ParseContentField(key string) (ContentField, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, f := range allFields {
		if f.Key() == k {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown content field %q", key)
}

// AllContentFields returns every optional field in display order
func AllContentFields() []ContentField {
	out := make([]ContentField, len(allFields))
	copy(out, allFields)
	return out
}

// ContentSelection is the set of optional fields surfaced in the listing
type ContentSelection uint8

// NewContentSelection builds a selection from fields
func NewContentSelection(fields ...ContentField) ContentSelection {
	var s ContentSelection
	for _, f := range fields {
		s = s.With(f)
	}
	return s
}

// ParseContentSelection builds a selection from settings keys.
// Unknown keys are an error rather than a silent no-op.
func ParseContentSelection(keys []string) (ContentSelection, error) {
	var s ContentSelection
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		f, err := ParseContentField(k)
		if err != nil {
			return 0, err
		}
		s = s.With(f)
	}
	return s, nil
}

// Has reports whether the field is selected
func (s ContentSelection) Has(f ContentField) bool {
	return s&ContentSelection(f) != 0
}

// With returns a copy of the selection including the field
func (s ContentSelection) With(f ContentField) ContentSelection {
	return s | ContentSelection(f)
}

// Without returns a copy of the selection excluding the field
func (s ContentSelection) Without(f ContentField) ContentSelection {
	return s &^ ContentSelection(f)
}

// Fields returns the selected fields in display order
func (s ContentSelection) Fields() []ContentField {
	var out []ContentField
	for _, f := range allFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Keys returns the settings keys of the selected fields in display order
func (s ContentSelection) Keys() []string {
	fields := s.Fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key()
	}
	return keys
}

// String returns the selected keys joined by commas
func (s ContentSelection) String() string {
	return strings.Join(s.Keys(), ",")
}
