package server

import (
	"bytes"
	"net/http"
)

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	buffer     bytes.Buffer
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write keeps at most maxAuditBody bytes of the response for the audit entry.
func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if room := maxAuditBody + 1 - w.buffer.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.buffer.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriterWrapper) GetStatusCode() int {
	return w.statusCode
}

func (w *responseWriterWrapper) GetBody() []byte {
	return w.buffer.Bytes()
}
