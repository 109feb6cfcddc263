package httpd

import "strings"

// Request is the request line of a framed request.
// An empty field means the token was absent.
type Request struct {
	Method string
	Path   string
	Proto  string
}

// ParseRequest extracts the request line from raw and splits it on spaces.
//
// Line terminators before the first line are skipped, runs of spaces count as one separator and
// tokens past the third are dropped. Token content is not validated.
func ParseRequest(raw []byte) Request {
	line := strings.TrimLeft(string(raw), "\r\n")
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' })

	var req Request
	for i, f := range fields {
		switch i {
		case 0:
			req.Method = f
		case 1:
			req.Path = f
		case 2:
			req.Proto = f
		}
	}
	return req
}

// Malformed reports whether any of the three tokens is missing.
func (r Request) Malformed() bool {
	return r.Method == "" || r.Path == "" || r.Proto == ""
}
