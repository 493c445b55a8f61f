// Package repository provides read-only access to the reference data the
// dispute engines consult: transaction history, past disputes, merchant risk
// profiles, payment network rules and dispute policies. The in-memory
// implementation loads every table from CSV once and serves all queries from
// the loaded snapshot.
package repository
