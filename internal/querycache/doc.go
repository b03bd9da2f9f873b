// Package querycache holds read results keyed by the shape of the query
// that produced them.
//
// The cache is advisory: it only saves round trips for identical reads in
// one process. Keys follow one schema, (operation, dataset, id, name), and
// any write to a dataset invalidates all of that dataset's keys. [Cache] is
// the seam where a shared cache can replace the in-process [Map].
package querycache
