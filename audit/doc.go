// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package audit records who did what. Storage of the trail lives outside this
// service; LogSink emits structured log records and Async keeps slow sinks off
// the request path.
package audit
