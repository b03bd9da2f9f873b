// Package mediatypes classifies files by extension.
//
// It is dependency-free so that the catalog and checksum code can share it
// without import cycles.
//
//	if mediatypes.IsImage(path) {
//	    // recognized image extension
//	}
//	if mediatypes.CanDecode(path) {
//	    // pixels can be decoded in-process
//	}
package mediatypes
