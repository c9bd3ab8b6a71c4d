// Package formula defines the formula record, its editable projections and
// the rules that keep them consistent between the browser and the backend.
package formula

import (
	"time"

	"github.com/google/uuid"
)

// MaxTitleLength is the maximum number of characters accepted for a title.
const MaxTitleLength = 255

// Field names one editable attribute of a formula.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldContent     Field = "content"
)

// Fields lists every editable field in display order.
var Fields = []Field{FieldTitle, FieldDescription, FieldContent}

// ParseField resolves a form or JSON field name.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Formula is the persisted record as exchanged with the backend.
type Formula struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Draft is the editable projection used by the create and edit forms.
type Draft struct {
	Title       string `json:"title" yaml:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty" yaml:"description"`
	Content     string `json:"content" yaml:"content" validate:"required"`
}

// DraftOf seeds an edit draft from a fetched formula.
func DraftOf(f Formula) Draft {
	return Draft{
		Title:       f.Title,
		Description: f.Description,
		Content:     f.Content,
	}
}

// Value returns the current value of field.
func (d Draft) Value(field Field) string {
	switch field {
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldContent:
		return d.Content
	}
	return ""
}

// Set assigns value to field. It reports false for unknown fields.
func (d *Draft) Set(field Field, value string) bool {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldContent:
		d.Content = value
	default:
		return false
	}
	return true
}

// Patch carries a partial update. Nil fields are left untouched by the backend.
type Patch struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty" validate:"omitnil,min=1"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Content == nil
}

// Fields returns the set of fields present in the patch.
func (p Patch) Fields() FieldSet {
	var set FieldSet
	if p.Title != nil {
		set = append(set, FieldTitle)
	}
	if p.Description != nil {
		set = append(set, FieldDescription)
	}
	if p.Content != nil {
		set = append(set, FieldContent)
	}
	return set
}
