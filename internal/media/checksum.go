package media

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"imagedb/internal/logging"
	"imagedb/internal/metrics"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// ErrDecode is returned when a file cannot be decoded as an image.
var ErrDecode = errors.New("image decode failed")

// PixelChecksum returns the hex MD5 digest of the decoded pixel buffer of
// the image at path.
//
// The image is normalized to non-premultiplied RGBA before hashing, so the
// digest depends only on pixel values: the same picture saved as PNG and as
// BMP hashes the same, while re-encoding with a lossy codec does not. EXIF
// orientation is ignored; the stored pixel order is hashed as-is.
func PixelChecksum(path string) (string, error) {
	start := time.Now()
	defer func() { metrics.ChecksumDuration.Observe(time.Since(start).Seconds()) }()

	img, err := decode(path)
	if err != nil {
		return "", err
	}

	sum := pixelDigest(img)
	logging.Debug("Pixel checksum for %s: %s", path, sum)
	return sum, nil
}

// pixelDigest hashes the NRGBA pixel rows of img.
func pixelDigest(img image.Image) string {
	nrgba := imaging.Clone(img)
	h := md5.New() //nolint:gosec // see PixelChecksum
	_, _ = h.Write(nrgba.Pix)
	return hex.EncodeToString(h.Sum(nil))
}

func decode(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDecode, path)
	}

	img, err := imaging.Open(path)
	if err != nil {
		logging.Debug("imaging.Open failed for %s: %v", path, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}
