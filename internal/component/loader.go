package component

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/metrics"
	"go.uber.org/zap"
)

// TableLoader appends staged records to a warehouse table, tagging every
// row with the video it came from.
type TableLoader struct {
	store     port.ArtifactStore
	warehouse port.Warehouse
	logger    *zap.Logger
}

func NewTableLoader(store port.ArtifactStore, warehouse port.Warehouse, logger *zap.Logger) *TableLoader {
	return &TableLoader{store: store, warehouse: warehouse, logger: logger}
}

// Load reads the artifact stored under key and appends its rows. It returns
// the number of rows written.
func (l *TableLoader) Load(ctx context.Context, table port.TableRef, video entity.VideoReference, key string) (int, error) {
	data, err := ReadArtifact(ctx, l.store, key)
	if err != nil {
		return 0, err
	}
	return l.LoadRows(ctx, table, video, data)
}

// LoadRows appends the JSON array in data. An empty array is a no-op.
func (l *TableLoader) LoadRows(ctx context.Context, table port.TableRef, video entity.VideoReference, data []byte) (int, error) {
	log := l.logger.With(zap.String("video", video.String()), zap.Stringer("table", table))

	rows, err := DecodeRows(data)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		log.Info("no rows to load")
		return 0, nil
	}

	for i := range rows {
		if rows[i] == nil {
			rows[i] = entity.TableRow{}
		}
		rows[i][entity.VideoColumn] = video.String()
	}

	if err := l.warehouse.Append(ctx, table, rows); err != nil {
		return 0, fmt.Errorf("append to %s: %w", table, err)
	}

	metrics.RowsLoadedTotal.WithLabelValues(table.Table).Add(float64(len(rows)))
	log.Info("rows loaded", zap.Int("rows", len(rows)))
	return len(rows), nil
}
