/*
Package workers sizes worker pools from GOMAXPROCS so that container CPU
limits are respected.

Checksum computation during folder ingestion decodes every image, which is
CPU-bound:

	limit := workers.ForCPU(8)

Stat-heavy work such as integrity scans can use more workers than CPUs:

	limit := workers.ForIO(16)

Operators can pin the count with the IMAGEDB_WORKERS environment variable.
The override is still capped by the limit passed by the caller.
*/
package workers
