// Package service contains the application use cases. It orchestrates the
// domain rules and the repositories defined in internal/store.
//
// Every write that touches a simulation's expenses goes through one of
// the paths here and is checked against the simulation's income before
// anything is persisted:
//
//   - SimulationService edits single fields and expenses, and accepts
//     nested submissions of a simulation with all its expenses.
//   - ImportService imports batches of candidates with per-item results.
//   - GenerationService runs AI generation jobs through the import path.
//   - GameplayService grades learner submissions and never persists
//     anything but progress, which goes through the ProgressGate.
//
// Services receive their dependencies through constructor injection and
// open transactions with store.Transactor. Errors callers inspect (store
// sentinels, validation errors, budget violations) are passed through;
// unexpected failures are wrapped in a ServiceError.
package service
