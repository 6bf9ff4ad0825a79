package component

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
)

// EncodeRecords serialises records as a JSON array. An empty or nil slice
// encodes as [] so that consumers always read an array.
func EncodeRecords[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

// DecodeRows reads a staged artifact as generic rows. Numbers are kept as
// json.Number so integers survive unchanged into the warehouse.
func DecodeRows(data []byte) ([]entity.TableRow, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows []entity.TableRow
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func WriteArtifact[T any](ctx context.Context, store port.ArtifactStore, key string, records []T) error {
	data, err := EncodeRecords(records)
	if err != nil {
		return err
	}
	if err := store.PutArtifact(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("put artifact %s: %w", key, err)
	}
	return nil
}

func ReadArtifact(ctx context.Context, store port.ArtifactStore, key string) ([]byte, error) {
	rc, err := store.GetArtifact(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return data, nil
}
