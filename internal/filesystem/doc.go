// Package filesystem wraps the stat and directory reads used during
// ingestion and scans with retries for NFS stale file handle (ESTALE)
// errors, which image folders on network mounts produce after server-side
// changes. Every other error is returned on the first attempt.
package filesystem
