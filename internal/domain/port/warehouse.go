package port

import (
	"context"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
)

type TableRef struct {
	Dataset string
	Table   string
}

func (t TableRef) String() string {
	return t.Dataset + "." + t.Table
}

type Warehouse interface {
	// Append adds rows to the table, creating it or widening its schema as needed.
	Append(ctx context.Context, table TableRef, rows []entity.TableRow) error
}
