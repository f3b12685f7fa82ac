// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// It also defines the typed task query (filters, sort, pagination) that
// the service layer builds from client input and every TaskStore
// implementation must honor identically.
package store
