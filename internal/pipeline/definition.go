// Package pipeline declares the video-intelligence graph and binds its
// components to their implementations.
package pipeline

import (
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/workflow"
)

const (
	Name = "video-intelligence"

	ParamVideos = "videos"
	GroupVideos = "videos"

	ComponentAnalyzeShots    = "analyze-shots"
	ComponentAnalyzeText     = "analyze-text"
	ComponentExtractMetadata = "extract-metadata"
	ComponentLoadBigQuery    = "load-bigquery"

	TableShots    = "shots"
	TableText     = "text"
	TableMetadata = "metadata"

	DefaultDataset = "video_intelligence"

	paramVideo   = "video"
	paramDataset = "dataset_id"
	paramTable   = "table_id"
	artifactIn   = "input"
	artifactOut  = "output"
)

func analyzerSpec(name, description string) workflow.ComponentSpec {
	return workflow.ComponentSpec{
		Name:        name,
		Description: description,
		Params:      []string{paramVideo},
		Outputs:     []string{artifactOut},
	}
}

// Definition builds the graph: for each video, three independent
// analyzer -> loader branches writing to the shots, text and metadata tables
// of dataset.
func Definition(dataset string) (*workflow.Spec, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}

	b := workflow.NewBuilder(Name).
		Component(analyzerSpec(ComponentAnalyzeShots, "Detects camera shot changes.")).
		Component(analyzerSpec(ComponentAnalyzeText, "Detects on-screen text.")).
		Component(analyzerSpec(ComponentExtractMetadata, "Reads container metadata of the first video stream.")).
		Component(workflow.ComponentSpec{
			Name:        ComponentLoadBigQuery,
			Description: "Appends staged records to a BigQuery table.",
			Params:      []string{paramDataset, paramTable, paramVideo},
			Inputs:      []string{artifactIn},
		})

	videos := b.ListParam(ParamVideos)
	loop := b.ParallelFor(GroupVideos, videos)

	branches := []struct {
		analyzer string
		table    string
	}{
		{ComponentAnalyzeShots, TableShots},
		{ComponentAnalyzeText, TableText},
		{ComponentExtractMetadata, TableMetadata},
	}
	for _, br := range branches {
		analyze := loop.Task(br.analyzer, br.analyzer).
			Param(paramVideo, loop.Item())
		loop.Task("load-"+br.table, ComponentLoadBigQuery).
			Param(paramDataset, workflow.Const(dataset)).
			Param(paramTable, workflow.Const(br.table)).
			Param(paramVideo, loop.Item()).
			Input(artifactIn, analyze.Output(artifactOut))
	}

	return b.Build()
}

// TableRecords maps each loader table to the record type staged for it.
func TableRecords() map[string]any {
	return map[string]any{
		TableShots:    entity.ShotRecord{},
		TableText:     entity.TextRecord{},
		TableMetadata: entity.MetadataRecord{},
	}
}

// KindOf classifies a component for per-video state tracking.
func KindOf(component string) entity.TaskKind {
	if component == ComponentLoadBigQuery {
		return entity.TaskKindLoad
	}
	return entity.TaskKindAnalyze
}

// Arguments wraps the video list as executor arguments.
func Arguments(videos []entity.VideoReference) workflow.Arguments {
	items := make([]string, 0, len(videos))
	for _, v := range videos {
		items = append(items, v.String())
	}
	return workflow.Arguments{Lists: map[string][]string{ParamVideos: items}}
}
