// Package redis wraps the go-redis client used as the primary result cache
// tier and instruments it with Prometheus metrics.
package redis
