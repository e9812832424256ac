// Package raffle implements the number raffle used by the book club portal.
//
// The package has three parts:
//   - Pool: the fixed set of ticket numbers 1..N and their current status
//   - Ledger: every reservation ever made, most recent first
//   - Workflow: the state machine that mutates Pool and Ledger together
//
// STATE MACHINE:
//
// A reservation starts Pending and moves exactly once, either to Approved or
// to Rejected. Both are terminal. Approving or rejecting a reservation that
// is already terminal is a no-op.
//
//	ticket:      Free --reserve--> Pending --approve--> Sold
//	                                  |
//	                                  +----reject-----> Free
//
// OWNERSHIP:
//
// The Workflow is the only writer. Pool and Ledger mutators are unexported
// and every read the Workflow hands out is a copy. A snapshot is written to
// the Persister after every applied transition; a failed write is reported
// as a PersistenceError but the in-memory transition stands.
//
// CONSISTENCY:
//
// Every Pending or Sold ticket points at exactly one reservation that lists
// its number and whose status agrees with it (Pending/Pending,
// Sold/Approved). A Free ticket carries no ownership fields and no live
// reservation claims it. Verify checks this for any Snapshot.
package raffle
