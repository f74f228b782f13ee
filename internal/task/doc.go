// Package task manages background job queuing, processing, and lifecycle.
// Jobs are published to a durable Redis stream by the API process and
// consumed by a separate worker process, so e-mail delivery and report
// generation never block HTTP request handling. Failed jobs are retried on
// a fixed, configurable policy and dead-lettered once it is exhausted.
package task
