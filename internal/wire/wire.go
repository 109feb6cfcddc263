// Package wire writes the HTTP/1.0 response framing used by ez-httpd.
//
// The framing is byte-for-byte the one older clients of this server expect: a status line ending
// in a space and a single LF, followed by one Content-type line and a blank line.
package wire

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Status lines.
const (
	StatusOK                  = "HTTP/1.0 200 OK \n"
	StatusBadRequest          = "HTTP/1.0 400 Bad Request \n"
	StatusForbidden           = "HTTP/1.0 403 Forbidden \n"
	StatusNotFound            = "HTTP/1.0 404 Not Found \n"
	StatusInternalServerError = "HTTP/1.0 500 Internal Server Error \n"
	StatusNotImplemented      = "HTTP/1.0 501 Not Implemented \n"
)

// Content-type header lines, each followed by the blank line that ends the header block.
const (
	ContentTypeHTML = "Content-type: text/html \n\n"
	ContentTypeJPEG = "Content-type: image/jpeg \n\n"
	ContentTypePNG  = "Content-type: image/png \n\n"
	ContentTypeGIF  = "Content-type: image/gif \n\n"
)

// StatusLine formats a status line for an arbitrary code.
// An empty reason falls back to the standard reason phrase.
func StatusLine(code int, reason string) string {
	if reason == "" {
		reason = http.StatusText(code)
	}
	return fmt.Sprintf("HTTP/1.0 %03d %s \n", code, reason)
}

// StatusCode extracts the numeric code from a status line, or 0 if it has none.
func StatusCode(line string) int {
	var proto string
	var code int
	if _, err := fmt.Sscanf(line, "%s %d", &proto, &code); err != nil {
		return 0
	}
	return code
}

// SendHeader writes text verbatim. An empty text writes nothing.
func SendHeader(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("wire: send: %w", err)
	}
	return nil
}

// SendHeaders writes a status line followed by a content-type line.
func SendHeaders(w io.Writer, status, contentType string) error {
	if err := SendHeader(w, status); err != nil {
		return err
	}
	return SendHeader(w, contentType)
}

// Rejection is a non-2xx response carrying a small HTML page.
type Rejection struct {
	Status  string
	Title   string
	Message string
}

var (
	BadRequest = Rejection{
		Status:  StatusBadRequest,
		Title:   "400 Bad Request",
		Message: "The request sent didn't have the correct syntax.",
	}
	Forbidden = Rejection{
		Status:  StatusForbidden,
		Title:   "403 Forbidden",
		Message: "Not allowed to access the resource and authorization will not help.",
	}
	NotFound = Rejection{
		Status:  StatusNotFound,
		Title:   "404 Not Found",
		Message: "The requested file was not found.",
	}
	InternalServerError = Rejection{
		Status:  StatusInternalServerError,
		Title:   "500 Internal Server Error",
		Message: "The server failed to produce the requested resource.",
	}
	NotImplemented = Rejection{
		Status:  StatusNotImplemented,
		Title:   "501 Not Implemented",
		Message: "The requested method is not implemented.",
	}
)

// Page renders the HTML document sent with the rejection.
func (r Rejection) Page() string {
	var b strings.Builder
	b.WriteString("<html><body><title>")
	b.WriteString(r.Title)
	b.WriteString("</title><h1>")
	b.WriteString(r.Title)
	b.WriteString("</h1><p>")
	b.WriteString(r.Message)
	b.WriteString("</p></body></html>")
	return b.String()
}

// SendRejection writes the rejection's status line, an HTML content-type and its page.
func SendRejection(w io.Writer, r Rejection) error {
	if err := SendHeaders(w, r.Status, ContentTypeHTML); err != nil {
		return err
	}
	return SendHeader(w, r.Page())
}
