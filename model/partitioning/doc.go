// Package partitioning defines partitioning methods, their method specific
// requests and the layout a request resolves to against a storage model.
//
// Requests form a closed set: every Method has exactly one request type and
// Build handles each of them explicitly.
package partitioning
