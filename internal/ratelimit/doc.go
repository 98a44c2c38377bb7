// Package ratelimit enforces per-(client, endpoint) request quotas with
// fixed-window counters. Fixed windows trade burst-smoothing precision for
// O(1) bookkeeping: up to 2x the limit can pass across a window boundary,
// which is accepted behavior.
package ratelimit
