// Package checksum computes the source content fingerprint stored in
// destination files. The fingerprint covers the full source bytes plus
// the encoder-options string, so changing either forces a re-transcode.
package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DigestLen is the length of the hex fingerprint kept in tags.
// A truncated sha256 is plenty for change detection.
const DigestLen = 16

const bufferSize = 32 * 1024

// Source computes the fingerprint of the file at path combined with
// the encoder-options string
func Source(ctx context.Context, path, encoderOptions string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source for checksum: %w", err)
	}
	defer f.Close()

	sum, err := Reader(ctx, f, encoderOptions)
	if err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return sum, nil
}

// Reader computes the fingerprint from an io.Reader plus the
// encoder-options string. Split out for testing without files.
func Reader(ctx context.Context, r io.Reader, encoderOptions string) (string, error) {
	h := sha256.New()
	buf := make([]byte, bufferSize)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			if _, hashErr := h.Write(buf[:n]); hashErr != nil {
				return "", fmt.Errorf("hash write error: %w", hashErr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	if _, err := io.WriteString(h, encoderOptions); err != nil {
		return "", fmt.Errorf("hash write error: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil))[:DigestLen], nil
}
