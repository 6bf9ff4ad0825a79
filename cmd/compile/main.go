// Command compile writes the pipeline definition as a portable workflow
// document. The format follows the output extension (.json, .yaml, .yml).
package main

import (
	"flag"

	"github.com/fiapx/fiapx-video-intelligence/internal/pipeline"
	"github.com/fiapx/fiapx-video-intelligence/internal/workflow"
	"github.com/fiapx/fiapx-video-intelligence/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	output := flag.String("o", "pipeline.json", "output file")
	dataset := flag.String("dataset", pipeline.DefaultDataset, "BigQuery dataset the loaders write to")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, err := logger.New(*level)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer log.Sync()

	spec, err := pipeline.Definition(*dataset)
	if err != nil {
		log.Fatal("build pipeline definition", zap.Error(err))
	}
	if err := workflow.WriteFile(*output, spec); err != nil {
		log.Fatal("write pipeline", zap.Error(err))
	}

	tasks := 0
	for _, g := range spec.Groups {
		tasks += len(g.Tasks)
	}
	log.Info("pipeline compiled",
		zap.String("path", *output),
		zap.String("format", string(workflow.FormatForPath(*output))),
		zap.Int("components", len(spec.Components)),
		zap.Int("tasks_per_item", tasks),
	)
}
