package feeds

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RawRow is one vendor row as landed by the fetch jobs, column name to raw
// value. Values arrive as whatever the driver produced; the normalizer's
// tolerant extraction deals with the variety.
type RawRow map[string]interface{}

// RowSource produces the raw rows for one feed.
type RowSource interface {
	Rows(ctx context.Context, feed Feed) ([]RawRow, error)
}

// TableSource reads vendor rows straight from the landed feed tables.
type TableSource struct {
	db *gorm.DB
}

func NewTableSource(db *gorm.DB) *TableSource {
	return &TableSource{db: db}
}

func (t *TableSource) Rows(ctx context.Context, feed Feed) ([]RawRow, error) {
	var rows []map[string]interface{}
	err := t.db.WithContext(ctx).Table(feed.Table).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", feed.Table, err)
	}
	out := make([]RawRow, len(rows))
	for i, r := range rows {
		out[i] = RawRow(r)
	}
	return out, nil
}
