// Package config loads settings for the API server and the worker from a
// config file and CANDIDATE_-prefixed environment variables, and validates
// them before either process starts.
package config
