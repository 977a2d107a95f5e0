// Package idgen wraps the UUID generator so that it can be stubbed in tests.
// Handles built from these values must be treated as opaque strings: they are
// only meaningful to the registry or runner that minted them.
package idgen
