package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer records a response so a handler's outcome can be
// inspected before anything reaches the client.
type ResponseBuffer interface {
	http.ResponseWriter
	Status() int
	Body() []byte
	Flush(w http.ResponseWriter) error
}

type responseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() ResponseBuffer {
	return &responseBuffer{header: http.Header{}}
}

// Status is 200 when the handler wrote a body without a status, and 0
// when it wrote nothing at all.
func (resp *responseBuffer) Status() int {
	if resp.status == 0 && resp.body.Len() > 0 {
		return http.StatusOK
	}
	return resp.status
}

func (resp *responseBuffer) Header() http.Header {
	return resp.header
}

func (resp *responseBuffer) Body() []byte {
	return resp.body.Bytes()
}

func (resp *responseBuffer) Write(body []byte) (int, error) {
	return resp.body.Write(body)
}

func (resp *responseBuffer) WriteHeader(statusCode int) {
	if resp.status == 0 {
		resp.status = statusCode
	}
}

// Flush copies the recorded response to w.
func (resp *responseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range resp.header {
		header[key] = value
	}
	if status := resp.Status(); status != 0 {
		w.WriteHeader(status)
	}
	_, err := w.Write(resp.body.Bytes())
	return err
}
