// Package middleware provides HTTP middleware for the metrics server run by
// imagedb watch: request logging and request counting.
package middleware
