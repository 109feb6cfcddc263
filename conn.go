package httpd

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/raphaelreyna/ez-httpd/internal/wire"
)

// countingWriter remembers how much reached the connection, so a failed worker knows whether a
// status line can still be sent.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// ServeConn answers the single request on c and closes it. Once ctx is done, reads and writes on c
// fail immediately and a running script is killed.
func (s *Server) ServeConn(ctx context.Context, c net.Conn) {
	start := time.Now()
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { c.SetDeadline(time.Now()) })
	defer stop()

	cw := &countingWriter{w: c}
	req, code, err := s.handle(ctx, c, cw)

	if err != nil && cw.n == 0 && code == 0 {
		// Nothing reached the client yet: it still gets an answer.
		if werr := wire.SendRejection(cw, wire.InternalServerError); werr == nil {
			code = http.StatusInternalServerError
		}
	}

	s.Stats.Finished(code)
	if err != nil {
		s.Stats.Failed()
		s.Logger.Error().
			Err(err).
			Str("remote", c.RemoteAddr().String()).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("connection failed")
	}

	s.Logger.Info().
		Str("remote", c.RemoteAddr().String()).
		Str("method", req.Method).
		Str("path", req.Path).
		Str("proto", req.Proto).
		Int("status", code).
		Int64("bytes", cw.n).
		Dur("took", time.Since(start)).
		Msg("request")
}

// handle runs one request through framing, parsing, resolution and a responder.
// It returns the status put on the wire, 0 if none was.
func (s *Server) handle(ctx context.Context, r io.Reader, w io.Writer) (Request, int, error) {
	raw, err := ReadRequest(r)
	if err != nil {
		return Request{}, 0, &ConnError{Op: "read", Err: err}
	}

	req := ParseRequest(raw)
	if req.Malformed() {
		code, err := s.reject(w, wire.BadRequest)
		return req, code, err
	}
	if req.Method != http.MethodGet {
		code, err := s.reject(w, wire.NotImplemented)
		return req, code, err
	}

	res := s.resolver().Resolve(req.Path)
	s.Logger.Debug().
		Str("path", req.Path).
		Stringer("kind", res.Kind).
		Str("file", res.Name).
		Msg("resolved")

	switch res.Kind {
	case Static:
		if err := ServeStatic(w, res.Name, res.ContentType); err != nil {
			var cerr *ConnError
			if errors.As(err, &cerr) && cerr.Op == "open" {
				return req, 0, err
			}
			return req, http.StatusOK, err
		}
		return req, http.StatusOK, nil
	case Dynamic:
		code, err := s.cgi().ServeScript(ctx, w, res.Name, res.Query)
		if err != nil {
			return req, code, &ConnError{Op: "cgi", Err: err}
		}
		return req, code, nil
	case Missing:
		code, err := s.reject(w, wire.NotFound)
		return req, code, err
	default:
		// Forbidden, and existing files of a type this server does not serve.
		code, err := s.reject(w, wire.Forbidden)
		return req, code, err
	}
}

func (s *Server) reject(w io.Writer, r wire.Rejection) (int, error) {
	code := wire.StatusCode(r.Status)
	if err := wire.SendRejection(w, r); err != nil {
		return code, &ConnError{Op: "write", Err: err}
	}
	return code, nil
}
