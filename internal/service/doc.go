// Package service contains the application use cases: account registration
// and login, candidate management with e-mail verification, and report
// requests.
//
// Services receive their stores, token service and job enqueuer through
// constructor injection and never depend on a concrete database or broker.
// Expected failures are returned as the sentinel errors in errors.go; the API
// layer maps them to HTTP status codes with errors.Is.
package service
