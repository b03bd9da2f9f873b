package mediatypes

import (
	"path/filepath"
	"strings"
)

// ImageExtensions maps file extensions to whether they are recognized image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// DecodableExtensions lists the image formats whose pixels can be decoded
// in-process for checksumming. Vector and HEIF formats are recognized as
// images but cannot be hashed.
var DecodableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// MimeTypes maps image extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
}

// Ext returns the lowercased extension of path including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsImage reports whether path has a recognized image extension.
func IsImage(path string) bool {
	return ImageExtensions[Ext(path)]
}

// CanDecode reports whether the pixels of path can be decoded for checksumming.
func CanDecode(path string) bool {
	return DecodableExtensions[Ext(path)]
}

// GetMimeType returns the MIME type for path, or "application/octet-stream"
// if the extension is not a recognized image.
func GetMimeType(path string) string {
	if mime, ok := MimeTypes[Ext(path)]; ok {
		return mime
	}
	return "application/octet-stream"
}
