// Package catalog stores image records in dataset tables.
//
// A dataset is a table with a fixed schema:
//
//	image_id   auto-assigned integer key
//	filepath   absolute path of the file
//	filename   last path segment
//	chksum     optional MD5 of the decoded pixels
//
// Dataset names are restricted to SQL identifiers of at most 63 characters
// and are quoted when used; every value is passed as a bound parameter.
//
// Reads may be served from a [querycache.Cache]. Any write to a dataset
// drops that dataset's cached reads, so a read after a write in the same
// process sees the write.
//
// Writes join the session's pending transaction and become durable when the
// owner of the session commits it.
package catalog
