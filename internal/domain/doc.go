// Package domain defines the core entities of the learning platform:
// budget simulations and their expenses, quiz questions, completion
// progress, and the closed enumerations (category, difficulty, question
// type) shared by all of them.
//
// Entities expose NewX constructors that assign identifiers and
// timestamps, and a Validate method that performs structural checks.
// Cross-entity business rules, such as the relationship between a
// simulation's income and its essential expenses, live in the budget
// subpackage.
package domain
