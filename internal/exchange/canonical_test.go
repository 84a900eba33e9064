//go:build !integration

package exchange

import (
	"math/rand"
	"testing"

	"everypay-integration/internal/domain/model"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name   string
		fields model.Fields
		want   string
	}{
		{"empty", model.Fields{}, ""},
		{"single", model.Fields{"a": "1"}, "a=1"},
		{"sorted by byte order", model.Fields{"b": "2", "B": "3", "a": "1"}, "B=3&a=1&b=2"},
		{"empty value kept", model.Fields{"x": "", "y": "v"}, "x=&y=v"},
		{"no escaping", model.Fields{"q": "a&b=c", "url": "https://x/?y=1"}, "q=a&b=c&url=https://x/?y=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Canonicalize(tc.fields); got != tc.want {
				t.Errorf("expected %q, but got %q", tc.want, got)
			}
		})
	}
}

func TestSign_OrderIndependent(t *testing.T) {
	keys := []string{"amount", "api_username", "nonce", "order_reference", "timestamp", "account_id", "email"}
	secret := []byte("s3cr3t")

	ref := model.Fields{}
	for _, k := range keys {
		ref[k] = k + "-value"
	}
	want := Sign(secret, ref)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		f := model.Fields{}
		for _, j := range rng.Perm(len(keys)) {
			f[keys[j]] = keys[j] + "-value"
		}
		if got := Sign(secret, f); got != want {
			t.Fatalf("insertion order %d changed the signature: %s != %s", i, got, want)
		}
	}
	if len(want) != 40 {
		t.Errorf("expected 40 hex chars, but got %d", len(want))
	}
}

func TestSignaturesEqual(t *testing.T) {
	if !signaturesEqual("abc", "abc") {
		t.Error("expected equal signatures to match")
	}
	if signaturesEqual("abc", "abd") || signaturesEqual("abc", "") || signaturesEqual("abc", "ABC") {
		t.Error("expected differing signatures to mismatch")
	}
}

func TestFixedSubset(t *testing.T) {
	full := model.Fields{
		model.FieldAPIUsername:       "shop1",
		model.FieldNonce:             "n",
		model.FieldOrderReference:    "o",
		model.FieldPaymentState:      "settled",
		model.FieldTimestamp:         "1",
		model.FieldTransactionResult: model.ResultCompleted,
		model.FieldAccountID:         "acc",
		model.FieldAmount:            "1.00",
		model.FieldPaymentReference:  "p",
		model.FieldCardLastFour:      "4242",
	}

	t.Run("completed adds the payment fields", func(t *testing.T) {
		got := fixedSubset(full)
		if len(got) != 9 {
			t.Fatalf("expected 9 fields, but got %d: %v", len(got), got.Keys())
		}
		if got.Has(model.FieldCardLastFour) {
			t.Error("card digits are not part of the fixed subset")
		}
	})

	t.Run("cancelled signs the common fields only", func(t *testing.T) {
		f := full.Clone()
		f[model.FieldTransactionResult] = model.ResultCancelled
		got := fixedSubset(f)
		if len(got) != len(commonResponseFields) || got.Has(model.FieldAmount) {
			t.Errorf("unexpected subset %v", got.Keys())
		}
	})

	t.Run("errors take precedence over warnings", func(t *testing.T) {
		f := full.Clone()
		f[model.FieldTransactionResult] = model.ResultFailed
		f[model.FieldProcessingErrors] = "e"
		f[model.FieldProcessingWarning] = "w"
		got := fixedSubset(f)
		if !got.Has(model.FieldProcessingErrors) || got.Has(model.FieldProcessingWarning) {
			t.Errorf("unexpected subset %v", got.Keys())
		}

		delete(f, model.FieldProcessingErrors)
		got = fixedSubset(f)
		if !got.Has(model.FieldProcessingWarning) {
			t.Errorf("expected warnings to be signed, got %v", got.Keys())
		}
	})

	t.Run("missing common fields sign as empty", func(t *testing.T) {
		got := fixedSubset(model.Fields{model.FieldTransactionResult: "pending"})
		if v, ok := got[model.FieldNonce]; !ok || v != "" {
			t.Errorf("expected empty nonce entry, got %q (present=%v)", v, ok)
		}
	})
}

func TestManifestSubset(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		if _, ok := manifestSubset(model.Fields{"a": "1"}); ok {
			t.Error("expected no subset without hmac_fields")
		}
		if _, ok := manifestSubset(model.Fields{model.FieldHMACFields: ""}); ok {
			t.Error("expected no subset for an empty manifest")
		}
	})

	t.Run("skips empty names", func(t *testing.T) {
		got, ok := manifestSubset(model.Fields{model.FieldHMACFields: "a,,b,", "a": "1"})
		if !ok {
			t.Fatal("expected a subset")
		}
		if Canonicalize(got) != "a=1&b=&hmac_fields=a,,b," {
			t.Errorf("unexpected canonical form %q", Canonicalize(got))
		}
	})
}

func TestBuildManifest(t *testing.T) {
	f := model.Fields{"b": "", "a": "", model.FieldHMACFields: "stale"}
	if got := VersionManifest.buildManifest(f); got != "a,b" {
		t.Errorf("v2: expected %q, but got %q", "a,b", got)
	}
	if got := VersionSortedManifest.buildManifest(f); got != "a,b,hmac_fields" {
		t.Errorf("v3: expected %q, but got %q", "a,b,hmac_fields", got)
	}
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"1", VersionFixedSubset, false},
		{"v2", VersionManifest, false},
		{" 3 ", VersionSortedManifest, false},
		{"0", 0, true},
		{"4", 0, true},
		{"3abc", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseVersion(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseVersion(%q): unexpected error state %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseVersion(%q): expected %v, but got %v", tc.in, tc.want, got)
		}
	}
}
