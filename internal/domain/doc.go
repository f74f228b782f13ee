// Package domain holds users, candidates and the validation rules that apply
// to them regardless of storage or transport.
package domain
