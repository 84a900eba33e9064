// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"everypay-integration/internal/domain"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/exchange"
	"everypay-integration/internal/infra/logging"
	"everypay-integration/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// SignedExchange is the signing core as seen by the use case.
type SignedExchange interface {
	BuildRequest(fields model.Fields, locale string, includeFieldManifest bool) model.Fields
	Decode(ctx context.Context, fields model.Fields) (model.Outcome, error)
	Version() exchange.Version
}

type PaymentUseCase interface {
	// Checkout signs an authorisation request for order. Unset merchant fields are
	// taken from the configured defaults.
	Checkout(ctx context.Context, order model.Order, locale string) (model.Fields, error)
	// HandleCallback authenticates a gateway callback or browser return and decodes it.
	HandleCallback(ctx context.Context, fields model.Fields) (model.Outcome, error)
}

// CheckoutDefaults fill the merchant-level fields of every outbound request.
type CheckoutDefaults struct {
	AccountID       string
	CallbackURL     string
	CustomerURL     string
	Locale          string
	IncludeManifest bool
}

type paymentUC struct {
	exch     SignedExchange
	defaults CheckoutDefaults
	log      *zerolog.Logger
	dev      bool
}

func NewPaymentUseCase(exch SignedExchange, defaults CheckoutDefaults, logger *zerolog.Logger, dev bool) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{exch: exch, defaults: defaults, log: &l, dev: dev}
}

func (u *paymentUC) Checkout(ctx context.Context, order model.Order, locale string) (model.Fields, error) {
	if order.OrderReference == "" {
		return nil, domain.ErrInvalidArgument
	}
	if order.AccountID == "" {
		order.AccountID = u.defaults.AccountID
	}
	if order.CallbackURL == "" {
		order.CallbackURL = u.defaults.CallbackURL
	}
	if order.CustomerURL == "" {
		order.CustomerURL = u.defaults.CustomerURL
	}
	if locale == "" {
		locale = u.defaults.Locale
	}

	fields := u.exch.BuildRequest(order.Fields(), locale, u.defaults.IncludeManifest)
	metrics.IncCheckout(u.exch.Version().String(), u.defaults.IncludeManifest)

	logging.With(ctx, u.log).Info().
		Str("order_reference", order.OrderReference).
		Str("amount", order.Amount).
		Str("email", logging.Redact(order.Email, u.dev)).
		Str("nonce", logging.Redact(fields[model.FieldNonce], u.dev)).
		Msg("checkout request signed")
	return fields, nil
}

func (u *paymentUC) HandleCallback(ctx context.Context, fields model.Fields) (model.Outcome, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.HandleCallback")()
	start := time.Now()
	l := logging.With(ctx, u.log).With().
		Str("order_reference", fields[model.FieldOrderReference]).
		Str("transaction_result", fields[model.FieldTransactionResult]).
		Logger()

	out, err := u.exch.Decode(ctx, fields)
	if err != nil {
		kind := domain.KindOf(err)
		metrics.ObserveVerifyFail(start, kind.String())
		var de *domain.Error
		if errors.As(err, &de) {
			l.Warn().Str("reason", kind.String()).Str("field", de.Field).Err(err).Msg("gateway payload rejected")
		} else {
			l.Error().Err(err).Msg("gateway payload verification failed")
		}
		return model.Outcome{}, err
	}

	metrics.ObserveVerifyOK(start)
	metrics.IncPayment(out.Status.String())
	l.Info().
		Int("status", int(out.Status)).
		Str("payment_reference", out.PaymentReference).
		Str("payment_state", out.PaymentState).
		Msg("gateway payload verified")
	return out, nil
}
