package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

const SchemaVersion = "1"

type ParamType string

const (
	ParamString ParamType = "STRING"
	ParamList   ParamType = "LIST"
)

type ParamDecl struct {
	Name string    `json:"name"`
	Type ParamType `json:"type"`
}

// Value is the source of a task parameter: a constant, a string pipeline
// parameter, or the item of the enclosing repetition group.
type Value struct {
	Constant *string `json:"constant,omitempty"`
	Param    string  `json:"param,omitempty"`
	LoopItem bool    `json:"loopItem,omitempty"`
}

func Const(s string) Value {
	return Value{Constant: &s}
}

type ArtifactEdge struct {
	Task   string `json:"task"`
	Output string `json:"output"`
}

// ComponentSpec is the interface of a component: the parameters it reads,
// the artifacts it consumes and the artifacts it produces.
type ComponentSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Params      []string `json:"params,omitempty"`
	Inputs      []string `json:"inputs,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
}

type TaskSpec struct {
	Name      string                  `json:"name"`
	Component string                  `json:"component"`
	Params    map[string]Value        `json:"params,omitempty"`
	Inputs    map[string]ArtifactEdge `json:"inputs,omitempty"`
	Outputs   []string                `json:"outputs,omitempty"`
}

// GroupSpec is a repetition group: Tasks are instantiated once per element
// of the LIST parameter named by Items.
type GroupSpec struct {
	Name  string     `json:"name"`
	Items string     `json:"items"`
	Tasks []TaskSpec `json:"tasks"`
}

type Spec struct {
	SchemaVersion string          `json:"schemaVersion"`
	Name          string          `json:"name"`
	Params        []ParamDecl     `json:"params"`
	Components    []ComponentSpec `json:"components"`
	Groups        []GroupSpec     `json:"groups"`
}

var ErrInvalidSpec = errors.New("invalid workflow spec")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}

func (s *Spec) component(name string) (ComponentSpec, bool) {
	for _, c := range s.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentSpec{}, false
}

func (s *Spec) param(name string) (ParamDecl, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamDecl{}, false
}

// Validate checks names, parameter bindings, artifact edges and acyclicity.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return invalid("pipeline name is empty")
	}

	seen := map[string]bool{}
	for _, p := range s.Params {
		if p.Name == "" || seen[p.Name] {
			return invalid("parameter %q is empty or duplicated", p.Name)
		}
		if p.Type != ParamString && p.Type != ParamList {
			return invalid("parameter %q has unknown type %q", p.Name, p.Type)
		}
		seen[p.Name] = true
	}

	seen = map[string]bool{}
	for _, c := range s.Components {
		if c.Name == "" || seen[c.Name] {
			return invalid("component %q is empty or duplicated", c.Name)
		}
		seen[c.Name] = true
	}

	groups := map[string]bool{}
	for _, g := range s.Groups {
		if g.Name == "" || groups[g.Name] {
			return invalid("group %q is empty or duplicated", g.Name)
		}
		groups[g.Name] = true

		items, ok := s.param(g.Items)
		if !ok || items.Type != ParamList {
			return invalid("group %q iterates over %q, which is not a LIST parameter", g.Name, g.Items)
		}
		if err := s.validateTasks(g); err != nil {
			return err
		}
	}
	return nil
}

func (s *Spec) validateTasks(g GroupSpec) error {
	tasks := map[string]TaskSpec{}
	for _, t := range g.Tasks {
		if t.Name == "" {
			return invalid("group %q has a task without name", g.Name)
		}
		if _, dup := tasks[t.Name]; dup {
			return invalid("group %q: duplicate task %q", g.Name, t.Name)
		}
		tasks[t.Name] = t
	}

	for _, t := range g.Tasks {
		c, ok := s.component(t.Component)
		if !ok {
			return invalid("task %q uses unknown component %q", t.Name, t.Component)
		}
		for _, name := range c.Params {
			v, ok := t.Params[name]
			if !ok {
				return invalid("task %q: parameter %q is not bound", t.Name, name)
			}
			if err := s.validateValue(t.Name, name, v); err != nil {
				return err
			}
		}
		for _, name := range c.Inputs {
			edge, ok := t.Inputs[name]
			if !ok {
				return invalid("task %q: input %q is not connected", t.Name, name)
			}
			producer, ok := tasks[edge.Task]
			if !ok {
				return invalid("task %q: input %q comes from unknown task %q", t.Name, name, edge.Task)
			}
			if !contains(producer.Outputs, edge.Output) {
				return invalid("task %q: task %q has no output %q", t.Name, edge.Task, edge.Output)
			}
		}
		if len(t.Params) != len(c.Params) || len(t.Inputs) != len(c.Inputs) {
			return invalid("task %q binds parameters or inputs that component %q does not declare", t.Name, c.Name)
		}
	}

	if _, err := topoOrder(g.Tasks); err != nil {
		return err
	}
	return nil
}

func (s *Spec) validateValue(task, name string, v Value) error {
	sources := 0
	if v.Constant != nil {
		sources++
	}
	if v.Param != "" {
		sources++
		p, ok := s.param(v.Param)
		if !ok || p.Type != ParamString {
			return invalid("task %q: parameter %q refers to %q, which is not a STRING parameter", task, name, v.Param)
		}
	}
	if v.LoopItem {
		sources++
	}
	if sources != 1 {
		return invalid("task %q: parameter %q must have exactly one source", task, name)
	}
	return nil
}

// topoOrder sorts tasks so that every producer precedes its consumers.
// Ties keep declaration order.
func topoOrder(tasks []TaskSpec) ([]TaskSpec, error) {
	indegree := make(map[string]int, len(tasks))
	consumers := make(map[string][]string, len(tasks))
	byName := make(map[string]TaskSpec, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t
		indegree[t.Name] += 0
		for _, p := range producers(t) {
			indegree[t.Name]++
			consumers[p] = append(consumers[p], t.Name)
		}
	}

	ordered := make([]TaskSpec, 0, len(tasks))
	placed := make(map[string]bool, len(tasks))
	for len(ordered) < len(tasks) {
		progress := false
		for _, t := range tasks {
			if placed[t.Name] || indegree[t.Name] > 0 {
				continue
			}
			placed[t.Name] = true
			ordered = append(ordered, byName[t.Name])
			for _, c := range consumers[t.Name] {
				indegree[c]--
			}
			progress = true
		}
		if !progress {
			return nil, invalid("task graph has a cycle")
		}
	}
	return ordered, nil
}

// producers lists the distinct tasks t reads artifacts from.
func producers(t TaskSpec) []string {
	var names []string
	for _, edge := range t.Inputs {
		if !contains(names, edge.Task) {
			names = append(names, edge.Task)
		}
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func Encode(s *Spec, format Format) ([]byte, error) {
	if format == FormatYAML {
		data, err := yaml.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode yaml spec: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json spec: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a compiled spec.
func Decode(data []byte, format Format) (*Spec, error) {
	var s Spec
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s spec: %w", format, err)
	}
	if s.SchemaVersion != SchemaVersion {
		return nil, invalid("unsupported schema version %q", s.SchemaVersion)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func WriteFile(path string, s *Spec) error {
	data, err := Encode(s, FormatForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write spec: %w", err)
	}
	return nil
}

func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	return Decode(data, FormatForPath(path))
}
