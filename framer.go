package httpd

import (
	"fmt"
	"io"
)

// Request terminators, as the last four bytes read packed big-endian.
const (
	crlfcrlf = 0x0d0a0d0a
	lfcrlfcr = 0x0a0d0a0d
)

// ReadRequest reads from r one byte per call until the last four bytes are CR LF CR LF or
// LF CR LF CR, and returns everything read including the terminator.
//
// Nothing past the terminator is consumed. End of stream ends the request as well and is not
// reported as an error; any other read error is returned along with the bytes read so far.
func ReadRequest(r io.Reader) ([]byte, error) {
	var (
		buf  []byte
		one  [1]byte
		last uint32
	)
	for {
		n, err := r.Read(one[:])
		if n == 1 {
			buf = append(buf, one[0])
			last = last<<8 | uint32(one[0])
			if len(buf) >= 4 && (last == crlfcrlf || last == lfcrlfcr) {
				return buf, nil
			}
		}
		switch {
		case err == io.EOF:
			return buf, nil
		case err != nil:
			return buf, fmt.Errorf("read request: %w", err)
		case n == 0:
			return buf, nil
		}
	}
}
