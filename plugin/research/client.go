package research

import (
	"fmt"
	"io"
)

// maxResponseBytes caps how much of a provider response is read into memory.
const maxResponseBytes = 8 << 20

// copyBounded copies r into w up to maxResponseBytes, failing when the
// response is larger than that.
func copyBounded(w io.Writer, r io.Reader) (int64, error) {
	n, err := io.Copy(w, io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return n, err
	}
	if n > maxResponseBytes {
		return n, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return n, nil
}
