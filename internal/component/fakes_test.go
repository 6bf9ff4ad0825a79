package component

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
)

type fakeAnnotator struct {
	results  []port.AnnotationResult
	err      error
	block    bool
	requests []port.AnnotationRequest
}

func (f *fakeAnnotator) Annotate(ctx context.Context, req port.AnnotationRequest) ([]port.AnnotationResult, error) {
	f.requests = append(f.requests, req)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.results, f.err
}

type fakeProber struct {
	info  *port.ContainerInfo
	err   error
	paths []string
}

func (f *fakeProber) Probe(_ context.Context, path string) (*port.ContainerInfo, error) {
	f.paths = append(f.paths, path)
	return f.info, f.err
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) PutArtifact(_ context.Context, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return nil
}

func (s *memStore) GetArtifact(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type appendCall struct {
	table port.TableRef
	rows  []entity.TableRow
}

type fakeWarehouse struct {
	calls []appendCall
	err   error
}

func (w *fakeWarehouse) Append(_ context.Context, table port.TableRef, rows []entity.TableRow) error {
	if w.err != nil {
		return w.err
	}
	w.calls = append(w.calls, appendCall{table: table, rows: rows})
	return nil
}

func off(sec int64, nanos int32) port.Offset {
	return port.Offset{Seconds: sec, Nanos: nanos}
}

func box() []port.Point {
	return []port.Point{{X: 0.1, Y: 0.2}, {X: 0.4, Y: 0.2}, {X: 0.4, Y: 0.3}, {X: 0.1, Y: 0.3}}
}
