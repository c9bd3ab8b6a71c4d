package mock

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"formulaplace/internal/db"
	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
	"formulaplace/models"
)

//go:embed seed.yaml
var seedYAML []byte

// New returns an in-memory sqlite database seeded with a handful of formulas.
// Each call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:formulaplace-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database, time.Now().UTC()); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

// Fixtures decodes the embedded seed file.
func Fixtures() ([]formula.Draft, error) {
	drafts, err := formula.DecodeDrafts(seedYAML)
	if err != nil {
		return nil, fmt.Errorf("seed file: %w", err)
	}
	return drafts, nil
}

func seed(ctx context.Context, database *gorm.DB, now time.Time) error {
	applog.Debug(ctx, "seeding mock database")

	drafts, err := Fixtures()
	if err != nil {
		return err
	}

	start := now.Add(-time.Duration(len(drafts)) * time.Hour)
	for i, draft := range drafts {
		record := models.NewFormula(draft)
		record.CreatedAt = start.Add(time.Duration(i) * time.Hour)
		record.UpdatedAt = record.CreatedAt
		if err := database.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded", "formulas", len(drafts))
	return nil
}
