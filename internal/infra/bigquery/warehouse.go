package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	bq "cloud.google.com/go/bigquery"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"go.uber.org/zap"
)

type WarehouseConfig struct {
	ProjectID string
	Location  string
	// Schemas maps table names to the schema their load jobs declare.
	// Tables without an entry are loaded with schema auto-detection.
	Schemas map[string]bq.Schema
}

// Warehouse appends rows through load jobs. Declared schemas keep float
// columns FLOAT even when a batch only carries whole numbers.
type Warehouse struct {
	client  *bq.Client
	schemas map[string]bq.Schema
	logger  *zap.Logger
}

// RecordSchemas infers one schema per table from a prototype record value
// (e.g. entity.ShotRecord{}) and appends the video column. Every field is
// NULLABLE so that rows written by earlier loads stay valid.
func RecordSchemas(records map[string]any) (map[string]bq.Schema, error) {
	schemas := make(map[string]bq.Schema, len(records))
	for table, record := range records {
		schema, err := bq.InferSchema(record)
		if err != nil {
			return nil, fmt.Errorf("infer schema for %s: %w", table, err)
		}
		schema = append(schema, &bq.FieldSchema{Name: entity.VideoColumn, Type: bq.StringFieldType})
		schemas[table] = nullable(schema)
	}
	return schemas, nil
}

func nullable(schema bq.Schema) bq.Schema {
	out := make(bq.Schema, 0, len(schema))
	for _, f := range schema {
		c := *f
		c.Required = false
		if len(c.Schema) > 0 {
			c.Schema = nullable(c.Schema)
		}
		out = append(out, &c)
	}
	return out
}

func NewWarehouse(ctx context.Context, cfg WarehouseConfig, logger *zap.Logger) (*Warehouse, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("bigquery project id is required")
	}
	client, err := bq.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &Warehouse{client: client, schemas: cfg.Schemas, logger: logger}, nil
}

func (w *Warehouse) Append(ctx context.Context, table port.TableRef, rows []entity.TableRow) error {
	data, err := encodeNDJSON(rows)
	if err != nil {
		return err
	}

	loader := w.client.Dataset(table.Dataset).Table(table.Table).LoaderFrom(w.source(table, data))
	loader.CreateDisposition = bq.CreateIfNeeded
	loader.WriteDisposition = bq.WriteAppend
	loader.SchemaUpdateOptions = []string{"ALLOW_FIELD_ADDITION", "ALLOW_FIELD_RELAXATION"}

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("start load job: %w", err)
	}
	w.logger.Debug("load job started", zap.String("job_id", job.ID()), zap.Stringer("table", table))

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for load job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("load job %s: %w", job.ID(), err)
	}

	w.logger.Info("load job completed",
		zap.String("job_id", job.ID()),
		zap.Stringer("table", table),
		zap.Int("rows", len(rows)),
	)
	return nil
}

func (w *Warehouse) source(table port.TableRef, data []byte) *bq.ReaderSource {
	src := bq.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bq.JSON
	if schema, ok := w.schemas[table.Table]; ok {
		src.Schema = schema
	} else {
		src.AutoDetect = true
	}
	return src
}

func (w *Warehouse) Close() error {
	return w.client.Close()
}

// encodeNDJSON writes one JSON object per line, the layout load jobs expect.
func encodeNDJSON(rows []entity.TableRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
