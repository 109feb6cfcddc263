package httpd

import (
	"io"
	"os"

	"github.com/raphaelreyna/ez-httpd/internal/wire"
)

// chunkSize is the read size used when streaming files.
const chunkSize = 128

// ServeStatic sends a 200 status line and contentType, then the bytes of the file at path.
//
// The file is opened before anything is written, so an open failure leaves w untouched.
func ServeStatic(w io.Writer, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ConnError{Op: "open", Err: err}
	}
	defer f.Close()

	if err := wire.SendHeaders(w, wire.StatusOK, contentType); err != nil {
		return &ConnError{Op: "write", Err: err}
	}

	buf := make([]byte, chunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return &ConnError{Op: "write", Err: err}
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return &ConnError{Op: "read file", Err: rerr}
		}
	}
}
