// Package engine runs periodic maintenance against a database session.
//
// Each iteration increments a counter, runs an optional integrity scan and
// commits the session's pending writes. The loop is either running or
// stopped; Stop is cooperative and waits for the current iteration.
//
// A [Manager] restarts engines and hands the counter from each stopped
// engine to its successor. The counter lives only in memory.
package engine
