package cgi

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/raphaelreyna/ez-httpd/internal/wire"
)

// OutputHandler writes the response for the captured output of a finished script run and
// reports the status code it put on the wire.
//
// The script is expected to print its own header block (Content-type and a blank line) as CGI
// programs do; no handler adds one.
type OutputHandler func(w io.Writer, h *Handler, output []byte) (int, error)

// EZOutputHandler sends the entire output of the script without scanning it.
// Always responds with a 200 status code, whatever the script claims.
var EZOutputHandler OutputHandler = func(w io.Writer, h *Handler, output []byte) (int, error) {
	if err := wire.SendHeader(w, wire.StatusOK); err != nil {
		return 0, err
	}
	if _, err := w.Write(output); err != nil {
		return http.StatusOK, fmt.Errorf("cgi: copy: %w", err)
	}
	return http.StatusOK, nil
}

// StatusOutputHandler scans the script's header block for a "Status:" line and uses it for the
// status line. The Status line itself is dropped; every other header line and the body are relayed
// unchanged. Without a usable Status line it behaves like EZOutputHandler.
var StatusOutputHandler OutputHandler = func(w io.Writer, h *Handler, output []byte) (int, error) {
	code, reason, rest := scanStatus(h, output)
	if code == 0 {
		return EZOutputHandler(w, h, output)
	}

	if err := wire.SendHeader(w, wire.StatusLine(code, reason)); err != nil {
		return 0, err
	}
	if _, err := w.Write(rest); err != nil {
		return code, fmt.Errorf("cgi: copy: %w", err)
	}
	return code, nil
}

// scanStatus looks through the header block of output, stopping at the first blank or non-header
// line. It returns the Status code and reason, and output with the Status line removed.
func scanStatus(h *Handler, output []byte) (int, string, []byte) {
	br := bufio.NewReader(bytes.NewReader(output))
	offset := 0
	for {
		line, err := br.ReadSlice('\n')
		if len(line) == 0 || err == bufio.ErrBufferFull {
			return 0, "", output
		}
		start := offset
		offset += len(line)

		text := strings.TrimRight(string(line), "\r\n")
		if text == "" {
			return 0, "", output
		}
		parts := strings.SplitN(text, ":", 2)
		if len(parts) < 2 {
			return 0, "", output
		}
		if strings.TrimSpace(parts[0]) != "Status" {
			if err != nil {
				return 0, "", output
			}
			continue
		}

		v := strings.TrimSpace(parts[1])
		if len(v) < 3 {
			h.Logger.Warn().Str("status", v).Msg("cgi: bogus status (short)")
			return 0, "", output
		}
		code, convErr := strconv.Atoi(v[0:3])
		if convErr != nil || code < 100 || code > 999 {
			h.Logger.Warn().Str("status", v).Msg("cgi: bogus status")
			return 0, "", output
		}

		rest := make([]byte, 0, len(output)-len(line))
		rest = append(rest, output[:start]...)
		rest = append(rest, output[offset:]...)
		return code, strings.TrimSpace(v[3:]), rest
	}
}
