// Package media computes content checksums of image files.
//
// A checksum here is the MD5 digest of the decoded pixel buffer, not of the
// bytes on disk. Supported formats are those registered with the image
// package: JPEG, PNG, GIF, BMP, TIFF and WebP.
package media
