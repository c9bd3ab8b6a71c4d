package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"formulaplace/internal/formula"
)

// Formula is the persisted formula record.
type Formula struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	TitleKey    string    `gorm:"type:text;not null;default:'';index" json:"-"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;index" json:"updated_at"`
}

// BeforeCreate fills the search key and assigns a time-ordered id when the
// caller has not chosen one.
func (f *Formula) BeforeCreate(*gorm.DB) error {
	f.TitleKey = foldTitle(f.Title)
	if f.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate formula id: %w", err)
	}
	f.ID = id
	return nil
}

// NewFormula builds an unsaved record from a validated draft.
func NewFormula(d formula.Draft) Formula {
	return Formula{Title: d.Title, Description: d.Description, Content: d.Content}
}

// Domain converts the record into the wire representation.
func (f Formula) Domain() formula.Formula {
	return formula.Formula{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Content:     f.Content,
		CreatedAt:   f.CreatedAt.UTC(),
		UpdatedAt:   f.UpdatedAt.UTC(),
	}
}

// Changes maps the present patch fields onto column names for a partial update.
func Changes(p formula.Patch) map[string]any {
	changes := make(map[string]any, 3)
	if p.Title != nil {
		changes["title"] = *p.Title
		changes["title_key"] = foldTitle(*p.Title)
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Content != nil {
		changes["content"] = *p.Content
	}
	return changes
}

// TitleContains scopes a query to records whose title contains q, ignoring
// case. Matching runs on the folded title_key column because SQLite's LOWER
// only folds ASCII. A blank q leaves the query untouched.
func TitleContains(q string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		q = strings.TrimSpace(q)
		if q == "" {
			return db
		}
		return db.Where(`title_key LIKE ? ESCAPE '\'`, "%"+escapeLike(foldTitle(q))+"%")
	}
}

// BackfillTitleKeys fills title_key on rows stored before the column existed.
func BackfillTitleKeys(db *gorm.DB) error {
	var stale []Formula
	if err := db.Select("id", "title").Where("title_key = ? AND title <> ?", "", "").Find(&stale).Error; err != nil {
		return fmt.Errorf("find formulas without title key: %w", err)
	}
	for _, record := range stale {
		err := db.Model(&Formula{}).Where("id = ?", record.ID).UpdateColumn("title_key", foldTitle(record.Title)).Error
		if err != nil {
			return fmt.Errorf("backfill title key for %s: %w", record.ID, err)
		}
	}
	return nil
}

func foldTitle(s string) string {
	return strings.ToLower(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
