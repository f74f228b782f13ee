// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying document store from the
// application's core logic, so services depend only on the operations
// they need and can be tested against mocks.
package store
