// Package cache implements the two-tier result cache: a durable Redis
// primary and a bounded in-process LRU fallback engaged while the primary
// is unreachable. Primary failures are never surfaced to callers; a failed
// read is observed as a miss.
package cache
