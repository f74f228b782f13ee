// Package logger configures log/slog for both processes and carries
// request- and job-scoped loggers through context.Context.
package logger
