//go:build !integration

package usecase_test

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/exchange"
)

// --- Mock SignedExchange

type MockExchange struct {
	BuildFunc  func(fields model.Fields, locale string, manifest bool) model.Fields
	DecodeFunc func(ctx context.Context, fields model.Fields) (model.Outcome, error)

	LastFields   model.Fields
	LastLocale   string
	LastManifest bool
}

func (m *MockExchange) BuildRequest(fields model.Fields, locale string, manifest bool) model.Fields {
	m.LastFields, m.LastLocale, m.LastManifest = fields, locale, manifest
	if m.BuildFunc != nil {
		return m.BuildFunc(fields, locale, manifest)
	}
	out := fields.Clone()
	out[model.FieldNonce] = "mock-nonce"
	out[model.FieldLocale] = locale
	return out
}

func (m *MockExchange) Decode(ctx context.Context, fields model.Fields) (model.Outcome, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(ctx, fields)
	}
	return model.Outcome{}, nil
}

func (m *MockExchange) Version() exchange.Version { return exchange.VersionSortedManifest }

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
