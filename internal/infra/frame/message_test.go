//go:build !integration

package frame

import (
	"errors"
	"testing"
)

const gateway = "https://igw-demo.every-pay.com"

func TestDecode(t *testing.T) {
	t.Run("expand from the gateway", func(t *testing.T) {
		m, err := Decode(gateway, []byte(`{"resize_iframe":"expand"}`), gateway)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !m.Expand() || m.Shrink() {
			t.Errorf("expected expand, got %+v", m)
		}
	})

	t.Run("shrink with a result", func(t *testing.T) {
		m, err := Decode(gateway, []byte(`{"resize_iframe":"shrink","transaction_result":"completed"}`), gateway+"/path")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !m.Shrink() || m.TransactionResult != "completed" {
			t.Errorf("unexpected message %+v", m)
		}
	})

	t.Run("configured default port matches the browser origin", func(t *testing.T) {
		if _, err := Decode(gateway, []byte(`{"resize_iframe":"shrink"}`), gateway+":443"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
	})

	t.Run("foreign origin is ignored", func(t *testing.T) {
		_, err := Decode("https://evil.example", []byte(`{"resize_iframe":"expand"}`), gateway)
		if !errors.Is(err, ErrForeignOrigin) {
			t.Fatalf("expected ErrForeignOrigin, but got %v", err)
		}
	})

	t.Run("unknown resize value", func(t *testing.T) {
		if _, err := Decode(gateway, []byte(`{"resize_iframe":"fullscreen"}`), gateway); err == nil {
			t.Fatal("expected an error for an unknown resize value")
		}
	})

	t.Run("empty message", func(t *testing.T) {
		_, err := Decode(gateway, []byte(`{"other":1}`), gateway)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, but got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := Decode(gateway, []byte(`expand`), gateway); err == nil {
			t.Fatal("expected a decode error")
		}
	})
}

func TestSameOrigin(t *testing.T) {
	cases := []struct {
		got, want string
		ok        bool
	}{
		{"https://igw-demo.every-pay.com", "https://igw-demo.every-pay.com", true},
		{"https://igw-demo.every-pay.com", "https://IGW-demo.every-pay.com/lp", true},
		{"http://igw-demo.every-pay.com", "https://igw-demo.every-pay.com", false},
		{"https://igw-demo.every-pay.com:8443", "https://igw-demo.every-pay.com", false},
		{"https://igw-demo.every-pay.com", "https://igw-demo.every-pay.com:443", true},
		{"http://localhost", "http://localhost:80/", true},
		{"https://igw-demo.every-pay.com:8443", "https://igw-demo.every-pay.com:8443", true},
		{"https://igw-demo.every-pay.com", "https://igw-demo.every-pay.com:80", false},
		{"https://igw-demo.every-pay.com.evil", "https://igw-demo.every-pay.com", false},
		{"", "https://igw-demo.every-pay.com", false},
		{"https://a", "not a url", false},
	}
	for _, tc := range cases {
		if got := SameOrigin(tc.got, tc.want); got != tc.ok {
			t.Errorf("SameOrigin(%q, %q): expected %v, but got %v", tc.got, tc.want, tc.ok, got)
		}
	}
}

func TestOrigin(t *testing.T) {
	cases := map[string]string{
		"https://IGW-demo.every-pay.com:443/lp": "https://igw-demo.every-pay.com",
		"http://localhost:8080":                 "http://localhost:8080",
	}
	for raw, want := range cases {
		if got, ok := Origin(raw); !ok || got != want {
			t.Errorf("Origin(%q): expected %q, but got %q (ok=%v)", raw, want, got, ok)
		}
	}
	if _, ok := Origin("igw-demo.every-pay.com"); ok {
		t.Error("expected a bare host to be rejected")
	}
}
