// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of interfaces used throughout the application,
// facilitating consistent and DRY testing across the codebase. Instead of defining
// inline mocks in individual test files, these standardized mock implementations
// can be reused.
//
// The store and cache mocks keep data in memory and mirror the semantics of
// the Postgres and Redis implementations (owner scoping, filter operators,
// NULLS LAST due dates, id tiebreaks, trailing-wildcard invalidation), so
// service and handler tests can exercise real behavior. Function fields
// override individual methods for error injection.
//
// Usage:
//
// Import the mocks package in your test file and create the required mock:
//
//	import "github.com/phrazzld/task-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    users := mocks.NewMockUserStore()
//	    tokens := &mocks.MockJWTService{Token: "mocked-token", Lifetime: time.Hour}
//
//	    // Use the mock in your test...
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Document any helper methods or special functionality
//  4. Update existing tests to use the centralized mock implementation
package mocks
