package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockBucket is an in-memory stand-in for one S3 bucket. Several stores
// created from the same MockBucket share its objects.
type MockBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMockBucket returns an empty bucket.
func NewMockBucket() *MockBucket {
	return &MockBucket{objects: make(map[string][]byte)}
}

// Objects returns a copy of the stored object keys and bodies.
func (m *MockBucket) Objects() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// NewMockForTests returns a Store backed by an in-memory fake HTTP transport
// over bucket. Only GET, PUT and DELETE of single objects are implemented.
func NewMockForTests(bucket *MockBucket, prefix string) *Store {
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(defaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: bucket}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return &Store{client: client, bucket: "mock-bucket", prefix: prefix}
}

// RoundTrip serves path-style object requests: /<bucket>/<key>.
func (m *MockBucket) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch req.Method {
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.objects[key] = body
		return respond(http.StatusOK, nil, http.Header{"ETag": {"\"etag\""}}), nil
	case http.MethodGet:
		body, ok := m.objects[key]
		if !ok {
			return notFound(), nil
		}
		return respond(http.StatusOK, body, http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"application/json"},
			"ETag":           {"\"etag\""},
		}), nil
	case http.MethodDelete:
		delete(m.objects, key)
		return respond(http.StatusNoContent, nil, http.Header{}), nil
	}
	return respond(http.StatusNotImplemented, nil, http.Header{}), nil
}

func respond(status int, body []byte, header http.Header) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header, ContentLength: int64(len(body))}
}

func notFound() *http.Response {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
	return respond(http.StatusNotFound, body, http.Header{"Content-Type": {"application/xml"}})
}

// decodeChunked strips aws-chunked framing from a single-chunk payload:
// <hex size>[;ext]\r\n<body>\r\n0\r\n[trailers]\r\n
func decodeChunked(b []byte) ([]byte, bool) {
	head, rest, ok := bytes.Cut(b, []byte("\r\n"))
	if !ok {
		return nil, false
	}
	sizeHex, _, _ := bytes.Cut(head, []byte(";"))
	sz, err := parseHex(string(sizeHex))
	if err != nil || sz > int64(len(rest)) {
		return nil, false
	}
	if sz == 0 {
		return []byte{}, true
	}
	body := rest[:sz]
	tail := rest[sz:]
	if !bytes.HasPrefix(tail, []byte("\r\n0")) {
		return nil, false
	}
	return body, true
}

func parseHex(h string) (int64, error) {
	if h == "" {
		return 0, fmt.Errorf("empty hex")
	}
	var v int64
	for _, c := range h {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v += int64(c - '0')
		case c >= 'a' && c <= 'f':
			v += int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v += int64(c-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex")
		}
	}
	return v, nil
}
