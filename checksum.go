package pdfresample

import (
	"crypto/md5" //nolint:gosec // Checksums identify content, they are not a security measure.
	"encoding/hex"
	"errors"
	"fmt"
)

// Checksum returns the lowercase hex MD5 digest of the decoded image stream.
func Checksum(img *Image) (string, error) {
	if img == nil {
		return "", errors.New("checksum of nil image")
	}

	content, err := img.Content()
	if err != nil {
		return "", fmt.Errorf("checksum of %s: %w", img.Name, err)
	}

	sum := md5.Sum(content) //nolint:gosec

	return hex.EncodeToString(sum[:]), nil
}
