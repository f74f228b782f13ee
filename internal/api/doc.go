// Package api contains the HTTP handlers for accounts, candidates and
// reports. Handlers decode and validate requests, call the service layer and
// translate its errors into status codes and safe messages.
package api
