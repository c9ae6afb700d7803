// Package store defines the persistence interfaces for simulations,
// questions, completion progress and experience points. Implementations
// live in internal/platform/postgres. Every store can be rebound to a
// transaction with WithTx so services can group several writes under
// one commit.
package store
