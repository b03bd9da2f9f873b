package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{"create_dataset", "insert_record", "select_by_id",
		"select_by_name", "select_all", "begin_transaction", "commit", "rollback"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, status := range []string{"success", "error", "empty"} {
		DBCommitsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"get_record", "get_records"} {
		CacheHits.WithLabelValues(op)
		CacheMisses.WithLabelValues(op)
	}

	IngestFilesTotal.WithLabelValues("success")
	IngestFilesTotal.WithLabelValues("error")

	EngineErrorsTotal.WithLabelValues("scan")
	EngineErrorsTotal.WithLabelValues("commit")

	for _, op := range []string{"stat", "readdir"} {
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
