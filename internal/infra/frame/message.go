// Package frame decodes the cross-document messages posted by the gateway's embedded
// payment frame. The frame asks the host page to expand around the 3-D Secure step,
// to shrink back afterwards, and reports the transaction result.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Resize values of the resize_iframe message.
const (
	ResizeExpand = "expand"
	ResizeShrink = "shrink"
)

var (
	ErrForeignOrigin = errors.New("message origin is not the gateway")
	ErrEmptyMessage  = errors.New("message carries no known instruction")
)

// Message is one postMessage payload. A single payload may carry both fields.
type Message struct {
	ResizeIframe      string `json:"resize_iframe,omitempty"`
	TransactionResult string `json:"transaction_result,omitempty"`
}

// Expand reports whether the host should enlarge the frame.
func (m Message) Expand() bool { return m.ResizeIframe == ResizeExpand }

// Shrink reports whether the host should restore the frame's original size.
func (m Message) Shrink() bool { return m.ResizeIframe == ResizeShrink }

// Decode validates origin against gatewayOrigin and parses data. The transaction result
// it reports is informational only: the signed callback remains the source of truth.
func Decode(origin string, data []byte, gatewayOrigin string) (Message, error) {
	if !SameOrigin(origin, gatewayOrigin) {
		return Message{}, fmt.Errorf("%w: %q", ErrForeignOrigin, origin)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode frame message: %w", err)
	}
	switch m.ResizeIframe {
	case "", ResizeExpand, ResizeShrink:
	default:
		return Message{}, fmt.Errorf("decode frame message: unknown resize_iframe %q", m.ResizeIframe)
	}
	if m.ResizeIframe == "" && m.TransactionResult == "" {
		return Message{}, ErrEmptyMessage
	}
	return m, nil
}

// SameOrigin compares scheme, host and port exactly, the way browsers report
// MessageEvent.origin. Paths and a default port are ignored on the configured side.
func SameOrigin(got, want string) bool {
	o, ok := Origin(want)
	return ok && got != "" && got == o
}

// Origin renders a configured URL as the origin string a browser would report.
func Origin(raw string) (string, bool) {
	w, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || w.Scheme == "" || w.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(w.Scheme)
	host := strings.ToLower(w.Host)
	if port := w.Port(); port != "" && port == defaultPorts[scheme] {
		host = strings.TrimSuffix(host, ":"+port)
	}
	return scheme + "://" + host, true
}

// Browsers omit these from MessageEvent.origin.
var defaultPorts = map[string]string{"http": "80", "https": "443"}
