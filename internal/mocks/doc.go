// Package mocks holds test doubles shared by the handler and command
// tests. Collaborators with a single method get function-field mocks;
// the service interfaces use testify/mock so tests can assert on the
// arguments a handler passed through.
package mocks
