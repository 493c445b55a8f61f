// Package model defines the provider-neutral language model abstraction used
// by the disputeflow engines. It normalizes requests, responses and tool
// calls across vendors and ships a scripted in-memory client for tests.
package model
