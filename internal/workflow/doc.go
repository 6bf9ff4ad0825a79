// Package workflow builds, compiles and executes pipeline graphs.
//
// A pipeline is declared with a Builder: component interfaces, pipeline
// parameters and repetition groups (ParallelFor) whose body is a template of
// tasks wired together by named artifact edges. Build validates the graph
// and returns a Spec, the portable description that can be written to JSON
// or YAML and loaded back by an Executor.
//
// The Executor instantiates every group body once per item of its list
// parameter. Iterations run concurrently up to the configured parallelism;
// within an iteration a task starts as soon as all of its producers have
// succeeded. A failed task skips its consumers and nothing else.
package workflow
