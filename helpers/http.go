package helpers

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
)

// MockHTTP is http.RoundTripper for tests.
// Remembers every request with body read in advance.
type MockHTTP struct {
	Fun    func(*http.Request) (*http.Response, error)
	Header []byte
	Body   []byte
	Err    error

	mu       sync.Mutex
	requests []MockRequest
}

type MockRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func (m *MockHTTP) RoundTrip(req *http.Request) (*http.Response, error) {
	mr := MockRequest{Method: req.Method, URL: req.URL.String(), Header: req.Header.Clone()}
	if req.Body != nil {
		b, err := ioutil.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		mr.Body = b
		req.Body = ioutil.NopCloser(bytes.NewReader(b))
	}
	m.mu.Lock()
	m.requests = append(m.requests, mr)
	m.mu.Unlock()

	if m.Fun != nil {
		return m.Fun(req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	header := m.Header
	if header == nil {
		header = []byte("HTTP/1.0 200 OK\r\n\r\n")
	}
	rb := make([]byte, 0, len(header)+len(m.Body))
	rb = append(rb, header...)
	rb = append(rb, m.Body...)
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(rb)), req)
}

func (m *MockHTTP) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := make([]MockRequest, len(m.requests))
	copy(rs, m.requests)
	return rs
}

// MockStatus returns raw response header with given status code.
func MockStatus(code int) []byte {
	return []byte(fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Length: 0\r\n\r\n", code, http.StatusText(code)))
}
