package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fiapx/fiapx-video-intelligence/internal/domain/entity"
	"github.com/fiapx/fiapx-video-intelligence/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Invocation is one task instance as seen by its component. Inputs and
// Outputs map artifact names to storage keys.
type Invocation struct {
	RunID     string
	Group     string
	Iteration int
	Item      string
	Task      string
	Component string
	Params    map[string]string
	Inputs    map[string]string
	Outputs   map[string]string
}

type Component interface {
	Execute(ctx context.Context, inv Invocation) error
}

type ComponentFunc func(ctx context.Context, inv Invocation) error

func (f ComponentFunc) Execute(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

type Registry map[string]Component

// TaskEvent is the outcome of one task instance.
type TaskEvent struct {
	Invocation
	Status     entity.TaskStatus
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Observer receives task lifecycle events. Methods are called concurrently
// from the iterations of a run.
type Observer interface {
	TaskScheduled(ctx context.Context, inv Invocation)
	TaskStarted(ctx context.Context, inv Invocation)
	TaskFinished(ctx context.Context, ev TaskEvent)
}

type NopObserver struct{}

func (NopObserver) TaskScheduled(context.Context, Invocation) {}
func (NopObserver) TaskStarted(context.Context, Invocation)   {}
func (NopObserver) TaskFinished(context.Context, TaskEvent)   {}

type Arguments struct {
	Params map[string]string
	Lists  map[string][]string
}

type Result struct {
	Tasks []TaskEvent
}

func (r *Result) Count(status entity.TaskStatus) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

type ExecutorConfig struct {
	// Parallelism bounds the iterations running at once. Zero or less
	// means unbounded.
	Parallelism int
}

type Executor struct {
	registry    Registry
	parallelism int
	observer    Observer
	logger      *zap.Logger
}

func NewExecutor(registry Registry, cfg ExecutorConfig, observer Observer, logger *zap.Logger) *Executor {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Executor{
		registry:    registry,
		parallelism: cfg.Parallelism,
		observer:    observer,
		logger:      logger,
	}
}

// Run executes every group of spec. Task failures are reported in the
// Result, not as an error; the error is reserved for a spec or arguments
// that cannot be executed at all.
func (e *Executor) Run(ctx context.Context, runID string, spec *Spec, args Arguments) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	for _, c := range spec.Components {
		if _, ok := e.registry[c.Name]; !ok {
			return nil, fmt.Errorf("component %q has no implementation", c.Name)
		}
	}
	for _, g := range spec.Groups {
		if _, ok := args.Lists[g.Items]; !ok {
			return nil, fmt.Errorf("missing list argument %q", g.Items)
		}
	}
	for _, p := range spec.Params {
		if p.Type == ParamString {
			if _, ok := args.Params[p.Name]; !ok {
				return nil, fmt.Errorf("missing argument %q", p.Name)
			}
		}
	}

	result := &Result{}
	var mu sync.Mutex

	for _, g := range spec.Groups {
		order, err := topoOrder(g.Tasks)
		if err != nil {
			return nil, err
		}
		items := args.Lists[g.Items]
		log := e.logger.With(zap.String("run_id", runID), zap.String("group", g.Name))
		log.Info("starting repetition group", zap.Int("items", len(items)), zap.Int("parallelism", e.parallelism))

		var sem chan struct{}
		if e.parallelism > 0 {
			sem = make(chan struct{}, e.parallelism)
		}

		var wg sync.WaitGroup
		for i, item := range items {
			it := &iteration{
				exec:  e,
				runID: runID,
				group: g,
				order: order,
				index: i,
				item:  item,
				args:  args,
				log:   log.With(zap.Int("iteration", i), zap.String("item", item)),
			}
			it.schedule(ctx)

			wg.Add(1)
			go func() {
				defer wg.Done()
				events := it.run(ctx, sem)
				mu.Lock()
				result.Tasks = append(result.Tasks, events...)
				mu.Unlock()
			}()
		}
		wg.Wait()
	}

	return result, nil
}

type iteration struct {
	exec  *Executor
	runID string
	group GroupSpec
	order []TaskSpec
	index int
	item  string
	args  Arguments
	log   *zap.Logger
}

func (it *iteration) artifactKey(task, output string) string {
	return fmt.Sprintf("%s/%s/%d/%s/%s.json", it.runID, it.group.Name, it.index, task, output)
}

func (it *iteration) invocation(t TaskSpec) Invocation {
	inv := Invocation{
		RunID:     it.runID,
		Group:     it.group.Name,
		Iteration: it.index,
		Item:      it.item,
		Task:      t.Name,
		Component: t.Component,
		Params:    make(map[string]string, len(t.Params)),
		Inputs:    make(map[string]string, len(t.Inputs)),
		Outputs:   make(map[string]string, len(t.Outputs)),
	}
	for name, v := range t.Params {
		switch {
		case v.Constant != nil:
			inv.Params[name] = *v.Constant
		case v.LoopItem:
			inv.Params[name] = it.item
		default:
			inv.Params[name] = it.args.Params[v.Param]
		}
	}
	for name, edge := range t.Inputs {
		inv.Inputs[name] = it.artifactKey(edge.Task, edge.Output)
	}
	for _, out := range t.Outputs {
		inv.Outputs[out] = it.artifactKey(t.Name, out)
	}
	return inv
}

func (it *iteration) schedule(ctx context.Context) {
	for _, t := range it.order {
		it.exec.observer.TaskScheduled(ctx, it.invocation(t))
	}
}

// run waits for a parallelism slot and executes the body. Tasks are started
// as soon as their producers succeed; a task whose producer did not succeed
// is skipped.
func (it *iteration) run(ctx context.Context, sem chan struct{}) []TaskEvent {
	if sem != nil {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return it.cancelAll(ctx)
		}
	}

	done := make(map[string]chan struct{}, len(it.order))
	for _, t := range it.order {
		done[t.Name] = make(chan struct{})
	}

	var mu sync.Mutex
	status := make(map[string]entity.TaskStatus, len(it.order))
	events := make([]TaskEvent, 0, len(it.order))

	var wg sync.WaitGroup
	for _, t := range it.order {
		wg.Add(1)
		go func(t TaskSpec) {
			defer wg.Done()
			defer close(done[t.Name])

			upstreamOK := true
			for _, p := range producers(t) {
				<-done[p]
				mu.Lock()
				if status[p] != entity.TaskStatusSucceeded {
					upstreamOK = false
				}
				mu.Unlock()
			}

			ev := it.runTask(ctx, t, upstreamOK)

			mu.Lock()
			status[t.Name] = ev.Status
			events = append(events, ev)
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	it.log.Info("iteration finished", zap.Int("tasks", len(events)))
	return events
}

func (it *iteration) runTask(ctx context.Context, t TaskSpec, upstreamOK bool) TaskEvent {
	inv := it.invocation(t)
	ev := TaskEvent{Invocation: inv}
	log := it.log.With(zap.String("task", t.Name))

	switch {
	case !upstreamOK:
		ev.Status = entity.TaskStatusSkipped
		log.Warn("task skipped, upstream did not succeed")
	case ctx.Err() != nil:
		ev.Status = entity.TaskStatusCancelled
		ev.Err = ctx.Err()
		log.Warn("task cancelled before start")
	default:
		ev = it.execute(ctx, inv, log)
	}

	if ev.FinishedAt.IsZero() {
		ev.FinishedAt = time.Now().UTC()
	}
	metrics.TasksTotal.WithLabelValues(t.Component, string(ev.Status)).Inc()
	it.exec.observer.TaskFinished(ctx, ev)
	return ev
}

func (it *iteration) execute(ctx context.Context, inv Invocation, log *zap.Logger) TaskEvent {
	tracer := otel.Tracer("workflow")
	ctx, span := tracer.Start(ctx, inv.Task)
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", inv.RunID),
		attribute.Int("run.iteration", inv.Iteration),
		attribute.String("run.item", inv.Item),
		attribute.String("task.component", inv.Component),
	)

	ev := TaskEvent{Invocation: inv, StartedAt: time.Now().UTC()}
	it.exec.observer.TaskStarted(ctx, inv)
	log.Info("task started")

	metrics.ActiveTasks.Inc()
	err := it.exec.registry[inv.Component].Execute(ctx, inv)
	metrics.ActiveTasks.Dec()

	ev.FinishedAt = time.Now().UTC()
	metrics.TaskDuration.WithLabelValues(inv.Component).Observe(ev.FinishedAt.Sub(ev.StartedAt).Seconds())

	if err != nil {
		ev.Status = entity.TaskStatusFailed
		ev.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("task failed", zap.Error(err))
		return ev
	}

	ev.Status = entity.TaskStatusSucceeded
	log.Info("task succeeded", zap.Duration("elapsed", ev.FinishedAt.Sub(ev.StartedAt)))
	return ev
}

func (it *iteration) cancelAll(ctx context.Context) []TaskEvent {
	events := make([]TaskEvent, 0, len(it.order))
	for _, t := range it.order {
		ev := TaskEvent{
			Invocation: it.invocation(t),
			Status:     entity.TaskStatusCancelled,
			Err:        ctx.Err(),
			FinishedAt: time.Now().UTC(),
		}
		metrics.TasksTotal.WithLabelValues(t.Component, string(ev.Status)).Inc()
		it.exec.observer.TaskFinished(ctx, ev)
		events = append(events, ev)
	}
	it.log.Warn("iteration cancelled before start")
	return events
}
