package formula

import "strings"

// FieldSet is an ordered set of field names, kept in the order of Fields.
type FieldSet []Field

// Has reports whether field is a member of the set.
func (s FieldSet) Has(field Field) bool {
	for _, f := range s {
		if f == field {
			return true
		}
	}
	return false
}

// Len returns the number of fields in the set.
func (s FieldSet) Len() int { return len(s) }

func (s FieldSet) String() string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

// DirtyFields diffs current against the originally loaded values.
func DirtyFields(original, current Draft) FieldSet {
	var dirty FieldSet
	for _, field := range Fields {
		if original.Value(field) != current.Value(field) {
			dirty = append(dirty, field)
		}
	}
	return dirty
}

// PatchFromDraft builds a patch holding only the fields named in dirty.
func PatchFromDraft(d Draft, dirty FieldSet) Patch {
	var p Patch
	for _, field := range dirty {
		value := d.Value(field)
		switch field {
		case FieldTitle:
			p.Title = &value
		case FieldDescription:
			p.Description = &value
		case FieldContent:
			p.Content = &value
		}
	}
	return p
}

// Apply merges the fields present in p into f. Timestamps are left alone.
func (f *Formula) Apply(p Patch) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Content != nil {
		f.Content = *p.Content
	}
}
