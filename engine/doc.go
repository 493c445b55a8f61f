// Package engine contains the two dispute processing engines.
//
// PipelineEngine runs a fixed eight stage workflow: plan, retrieve, fork
// into three parallel analysis lanes, synthesize, generate, act, critique
// and finalize. The stage order never varies; the model enriches each stage
// but does not steer the control flow.
//
// AssistantEngine instead hands control to the model: it opens a
// function-calling conversation over the capability catalog and lets the
// model decide which analyses to perform and which actions to take, bounded
// by a configurable number of conversation turns.
//
// Both engines translate every runtime failure into a reviewable error
// response; an error return is reserved for invalid requests.
package engine
