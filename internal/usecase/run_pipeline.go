package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/domain/port"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/metrics"
	"github.com/fiapx/fiapx-video-intelligence/internal/pipeline"
	"github.com/fiapx/fiapx-video-intelligence/internal/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type RunPipelineUseCase struct {
	repo        port.RunRepository
	registry    workflow.Registry
	spec        *workflow.Spec
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	logger      *zap.Logger
	maxRetry    int
	parallelism int
}

type RunPipelineConfig struct {
	MaxRetries  int
	Parallelism int
}

func NewRunPipelineUseCase(
	repo port.RunRepository,
	registry workflow.Registry,
	spec *workflow.Spec,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	logger *zap.Logger,
	cfg RunPipelineConfig,
) *RunPipelineUseCase {
	return &RunPipelineUseCase{
		repo:        repo,
		registry:    registry,
		spec:        spec,
		publisher:   publisher,
		dlq:         dlq,
		logger:      logger,
		maxRetry:    cfg.MaxRetries,
		parallelism: cfg.Parallelism,
	}
}

// Execute handles one run submission. Branch failures are recorded and
// reported but do not fail the delivery; only bookkeeping errors and
// shutdown are returned so that the submission is redelivered.
func (uc *RunPipelineUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "RunPipelineUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.RunSubmissionMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal run submission", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}
	if msg.RunID == uuid.Nil {
		msg.RunID = uuid.New()
	}

	videos := make([]entity.VideoReference, 0, len(msg.Videos))
	for _, v := range msg.Videos {
		videos = append(videos, entity.VideoReference(v))
	}

	span.SetAttributes(
		attribute.String("run.id", msg.RunID.String()),
		attribute.Int("run.videos", len(videos)),
	)
	log := uc.logger.With(zap.String("run_id", msg.RunID.String()))

	run, err := uc.repo.FindByID(ctx, msg.RunID)
	if err != nil {
		run = entity.NewRun(msg.RunID, uc.spec.Name, videos, uc.maxRetry)
		if err := uc.repo.Create(ctx, run); err != nil {
			log.Error("failed to create run record", zap.Error(err))
			return fmt.Errorf("create run: %w", err)
		}
	}

	if !run.CanRetry() {
		log.Warn("run exhausted attempts, sending to DLQ", zap.Int("attempt", run.Attempt))
		uc.handlePermanentFailure(ctx, run, rawMsg, "max attempts exceeded")
		return nil
	}

	if run.Attempt > 0 {
		metrics.RetryTotal.WithLabelValues(strconv.Itoa(run.Attempt)).Inc()
	}
	run.MarkRunning()
	if err := uc.repo.Update(ctx, run); err != nil {
		log.Error("failed to update run to RUNNING", zap.Error(err))
		return fmt.Errorf("update run: %w", err)
	}

	log.Info("pipeline run started", zap.Int("videos", len(run.Videos)), zap.Int("attempt", run.Attempt))

	obs := &runObserver{uc: uc, run: run, log: log}
	exec := workflow.NewExecutor(uc.registry, workflow.ExecutorConfig{Parallelism: uc.parallelism}, obs, log)

	result, err := exec.Run(ctx, run.ID.String(), uc.spec, pipeline.Arguments(run.Videos))
	if err != nil {
		log.Error("pipeline could not be executed", zap.Error(err))
		uc.handlePermanentFailure(ctx, run, rawMsg, "execute: "+err.Error())
		return nil
	}

	if ctx.Err() != nil {
		run.MarkFailed("interrupted: " + ctx.Err().Error())
		_ = uc.repo.Update(context.WithoutCancel(ctx), run)
		metrics.RunsProcessedTotal.WithLabelValues("interrupted").Inc()
		return ctx.Err()
	}

	failed := result.Count(entity.TaskStatusFailed)
	run.MarkFinished(failed)
	if err := uc.repo.Update(ctx, run); err != nil {
		log.Error("failed to update finished run", zap.Error(err))
		return fmt.Errorf("update run finished: %w", err)
	}

	metrics.RunsProcessedTotal.WithLabelValues(string(run.Status)).Inc()
	log.Info("pipeline run finished",
		zap.String("status", string(run.Status)),
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("succeeded", result.Count(entity.TaskStatusSucceeded)),
		zap.Int("failed", failed),
		zap.Int("skipped", result.Count(entity.TaskStatusSkipped)),
		zap.Duration("elapsed", time.Since(totalTimer)),
	)
	return nil
}

func (uc *RunPipelineUseCase) handlePermanentFailure(ctx context.Context, run *entity.Run, rawMsg []byte, errMsg string) {
	run.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, run)
	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)
	metrics.RunsProcessedTotal.WithLabelValues("dlq").Inc()
}

// runObserver mirrors task transitions into the repository and publishes a
// status message for every finished task.
type runObserver struct {
	uc  *RunPipelineUseCase
	run *entity.Run
	log *zap.Logger
}

func (o *runObserver) task(inv workflow.Invocation, status entity.TaskStatus) *entity.TaskRun {
	return &entity.TaskRun{
		RunID:     o.run.ID,
		Iteration: inv.Iteration,
		Video:     entity.VideoReference(inv.Item),
		Task:      inv.Task,
		Component: inv.Component,
		Kind:      pipeline.KindOf(inv.Component),
		Status:    status,
	}
}

func (o *runObserver) save(ctx context.Context, t *entity.TaskRun) {
	if err := o.uc.repo.SaveTask(context.WithoutCancel(ctx), t); err != nil {
		o.log.Error("failed to save task", zap.String("task", t.Task), zap.Int("iteration", t.Iteration), zap.Error(err))
	}
}

func (o *runObserver) TaskScheduled(ctx context.Context, inv workflow.Invocation) {
	o.save(ctx, o.task(inv, entity.TaskStatusPending))
}

func (o *runObserver) TaskStarted(ctx context.Context, inv workflow.Invocation) {
	t := o.task(inv, entity.TaskStatusRunning)
	now := time.Now().UTC()
	t.StartedAt = &now
	o.save(ctx, t)
}

func (o *runObserver) TaskFinished(ctx context.Context, ev workflow.TaskEvent) {
	ctx = context.WithoutCancel(ctx)

	t := o.task(ev.Invocation, ev.Status)
	if !ev.StartedAt.IsZero() {
		t.StartedAt = &ev.StartedAt
	}
	finished := ev.FinishedAt
	t.FinishedAt = &finished
	if ev.Err != nil {
		t.ErrorMessage = ev.Err.Error()
	}
	o.save(ctx, t)

	state := entity.VideoStatePending
	tasks, err := o.uc.repo.ListTasks(ctx, o.run.ID, ev.Iteration)
	if err != nil {
		o.log.Warn("could not derive video state", zap.Error(err))
	} else {
		state = entity.VideoStateOf(tasks)
	}

	statusMsg := entity.TaskStatusMessage{
		RunID:        o.run.ID,
		Iteration:    ev.Iteration,
		Video:        ev.Item,
		Task:         ev.Task,
		Status:       ev.Status,
		VideoState:   state,
		ErrorMessage: t.ErrorMessage,
		Attempt:      o.run.Attempt,
	}
	data, _ := json.Marshal(statusMsg)
	if err := o.uc.publisher.PublishStatus(ctx, data); err != nil {
		o.log.Error("failed to publish status", zap.Error(err))
	}
}
