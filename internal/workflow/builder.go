package workflow

import (
	"errors"
	"fmt"
)

// Builder declares a pipeline graph. Errors are collected and reported by
// Build so that declarations can be chained.
type Builder struct {
	name       string
	params     []ParamDecl
	components []ComponentSpec
	groups     []*Group
	errs       []error
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// ParamRef names a pipeline parameter.
type ParamRef struct {
	name string
	typ  ParamType
}

func (b *Builder) Component(c ComponentSpec) *Builder {
	b.components = append(b.components, c)
	return b
}

func (b *Builder) StringParam(name string) Value {
	b.params = append(b.params, ParamDecl{Name: name, Type: ParamString})
	return Value{Param: name}
}

func (b *Builder) ListParam(name string) ParamRef {
	b.params = append(b.params, ParamDecl{Name: name, Type: ParamList})
	return ParamRef{name: name, typ: ParamList}
}

// ParallelFor opens a repetition group over items.
func (b *Builder) ParallelFor(name string, items ParamRef) *Group {
	if items.typ != ParamList {
		b.errs = append(b.errs, fmt.Errorf("group %q: items must be a LIST parameter", name))
	}
	g := &Group{b: b, name: name, items: items.name}
	b.groups = append(b.groups, g)
	return g
}

// Build assembles and validates the Spec.
func (b *Builder) Build() (*Spec, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, errors.Join(b.errs...))
	}

	s := &Spec{
		SchemaVersion: SchemaVersion,
		Name:          b.name,
		Params:        append([]ParamDecl(nil), b.params...),
		Components:    append([]ComponentSpec(nil), b.components...),
	}
	for _, g := range b.groups {
		gs := GroupSpec{Name: g.name, Items: g.items}
		for _, t := range g.tasks {
			ts := t.spec
			if len(ts.Params) == 0 {
				ts.Params = nil
			}
			if len(ts.Inputs) == 0 {
				ts.Inputs = nil
			}
			if c, ok := s.component(ts.Component); ok {
				ts.Outputs = append([]string(nil), c.Outputs...)
			}
			gs.Tasks = append(gs.Tasks, ts)
		}
		s.Groups = append(s.Groups, gs)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Group is the body template of a repetition group.
type Group struct {
	b     *Builder
	name  string
	items string
	tasks []*Task
}

// Item is the element of the list the current instance runs for.
func (g *Group) Item() Value {
	return Value{LoopItem: true}
}

func (g *Group) Task(name, component string) *Task {
	t := &Task{spec: TaskSpec{
		Name:      name,
		Component: component,
		Params:    map[string]Value{},
		Inputs:    map[string]ArtifactEdge{},
	}}
	g.tasks = append(g.tasks, t)
	return t
}

type Task struct {
	spec TaskSpec
}

// Output refers to an artifact produced by this task.
type Output struct {
	task string
	name string
}

func (t *Task) Param(name string, v Value) *Task {
	t.spec.Params[name] = v
	return t
}

func (t *Task) Input(name string, from Output) *Task {
	t.spec.Inputs[name] = ArtifactEdge{Task: from.task, Output: from.name}
	return t
}

func (t *Task) Output(name string) Output {
	return Output{task: t.spec.Name, name: name}
}
