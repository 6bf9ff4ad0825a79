package pipeline

import (
	"context"
	"fmt"

	"github.com/fiapx/fiapx-video-intelligence/internal/component"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"github.com/fiapx/fiapx-video-intelligence/internal/workflow"
)

type Components struct {
	Shots    *component.ShotAnalyzer
	Text     *component.TextAnalyzer
	Metadata *component.MetadataExtractor
	Loader   *component.TableLoader
	Store    port.ArtifactStore
}

// Registry adapts the components to workflow invocations: analyzers stage
// their records under the invocation's output key, the loader reads its
// input key.
func Registry(c Components) workflow.Registry {
	return workflow.Registry{
		ComponentAnalyzeShots:    analyzer(c.Store, c.Shots.Analyze),
		ComponentAnalyzeText:     analyzer(c.Store, c.Text.Analyze),
		ComponentExtractMetadata: analyzer(c.Store, c.Metadata.Extract),
		ComponentLoadBigQuery: workflow.ComponentFunc(func(ctx context.Context, inv workflow.Invocation) error {
			table := port.TableRef{Dataset: inv.Params[paramDataset], Table: inv.Params[paramTable]}
			_, err := c.Loader.Load(ctx, table, entity.VideoReference(inv.Params[paramVideo]), inv.Inputs[artifactIn])
			return err
		}),
	}
}

func analyzer[T any](store port.ArtifactStore, analyze func(context.Context, entity.VideoReference) ([]T, error)) workflow.Component {
	return workflow.ComponentFunc(func(ctx context.Context, inv workflow.Invocation) error {
		records, err := analyze(ctx, entity.VideoReference(inv.Params[paramVideo]))
		if err != nil {
			return err
		}
		key, ok := inv.Outputs[artifactOut]
		if !ok {
			return fmt.Errorf("task %s has no %q output", inv.Task, artifactOut)
		}
		return component.WriteArtifact(ctx, store, key, records)
	})
}
