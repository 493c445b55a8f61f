// Package core provides the foundational domain types shared by the
// disputeflow engines and services. It defines:
//
//   - DisputeRequest / DisputeResponse (the immutable input and final output)
//   - AgentStep, LaneResult and FunctionCall execution records
//   - Status, category and lane-status enumerations
//   - The temporary-credit and eligibility business rules
//   - A per-run model call budget
//
// The package intentionally keeps implementation concerns (repositories,
// backends, engine orchestration) out of scope so that every other package
// can depend on it without cycles.
package core
