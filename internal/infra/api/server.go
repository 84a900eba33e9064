package api

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"everypay-integration/internal/domain"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/infra/frame"
	"everypay-integration/internal/infra/logging"
	"everypay-integration/internal/usecase"
)

// Options describe the public surface of the payment endpoints.
type Options struct {
	CallbackPath   string // must match the path of gateway.callback_url
	ReturnPath     string // must match the path of gateway.customer_url
	PaymentURL     string // gateway form action
	GatewayOrigin  string // origin of the embedded payment frame
	RequestTimeout time.Duration
	RateLimit      int // per client per minute on the checkout routes, 0 = off

	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP override the peer address.
	TrustProxyHeaders bool
}

// Server wires the gateway callback, browser return and checkout routes to PaymentUseCase.
type Server struct {
	payUC   usecase.PaymentUseCase
	opts    Options
	limiter Limiter
	keyFn   func(clientIP, route string) string
	log     *zerolog.Logger
}

// NewServer constructs the HTTP layer. limiter may be nil.
func NewServer(payUC usecase.PaymentUseCase, opts Options, limiter Limiter, keyFn func(clientIP, route string) string, logger *zerolog.Logger) *Server {
	if opts.CallbackPath == "" {
		opts.CallbackPath = "/api/v1/payment/callback"
	}
	if opts.ReturnPath == "" {
		opts.ReturnPath = "/payment/return"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if keyFn == nil {
		keyFn = func(ip, route string) string { return "rate_limit:" + ip + ":" + route }
	}
	return &Server{payUC: payUC, opts: opts, limiter: limiter, keyFn: keyFn, log: logger}
}

// Routes returns the router with all middleware attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	if s.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.opts.RequestTimeout))

	r.Post(s.opts.CallbackPath, s.handleCallback)
	r.Get(s.opts.ReturnPath, s.handleReturn)

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.limiter, "checkout", s.opts.RateLimit, s.keyFn, s.log))
		r.Post("/api/v1/checkout", s.handleCheckoutJSON)
		r.Get("/checkout/{orderReference}", s.handleCheckoutPage)
		r.Post("/api/v1/frame/events", s.handleFrameEvent)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// handleCallback receives the gateway's server-to-server notification.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := logging.WithOrderReference(r.Context(), fields[model.FieldOrderReference])

	out, err := s.payUC.HandleCallback(ctx, fields)
	if err != nil {
		writeError(w, statusFor(err), reasonFor(err))
		return
	}
	writeJSON(w, http.StatusOK, callbackResponse{
		Status:            int(out.Status),
		StatusName:        out.Status.String(),
		OrderReference:    out.OrderReference,
		PaymentReference:  out.PaymentReference,
		TransactionResult: out.TransactionResult,
	})
}

// handleReturn renders the page the customer lands on after the gateway redirects back.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(r)
	if err != nil {
		s.renderResult(w, http.StatusBadRequest, false, "malformed return parameters")
		return
	}
	ctx := logging.WithOrderReference(r.Context(), fields[model.FieldOrderReference])

	out, err := s.payUC.HandleCallback(ctx, fields)
	if err != nil {
		s.renderResult(w, statusFor(err), false, "we could not confirm this payment: "+reasonFor(err))
		return
	}
	switch out.Status {
	case model.StatusSuccess:
		s.renderResult(w, http.StatusOK, true, "payment received for order "+out.OrderReference)
	case model.StatusCancelled:
		s.renderResult(w, http.StatusOK, false, "payment was cancelled for order "+out.OrderReference)
	default:
		s.renderResult(w, http.StatusOK, false, "payment failed for order "+out.OrderReference)
	}
}

type checkoutRequest struct {
	model.Order
	Locale string `json:"locale"`
}

type checkoutResponse struct {
	Action string       `json:"action"`
	Method string       `json:"method"`
	Fields model.Fields `json:"fields"`
}

type callbackResponse struct {
	Status            int    `json:"status"`
	StatusName        string `json:"status_name"`
	OrderReference    string `json:"order_reference"`
	PaymentReference  string `json:"payment_reference,omitempty"`
	TransactionResult string `json:"transaction_result"`
}

func (s *Server) handleCheckoutJSON(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserIP == "" {
		req.UserIP = clientIP(r)
	}
	fields, err := s.payUC.Checkout(r.Context(), req.Order, req.Locale)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Action: s.opts.PaymentURL, Method: http.MethodPost, Fields: fields})
}

// handleCheckoutPage renders a form that posts the signed request into the embedded frame.
func (s *Server) handleCheckoutPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order := model.Order{
		OrderReference: chi.URLParam(r, "orderReference"),
		Amount:         q.Get("amount"),
		Email:          q.Get("email"),
		UserIP:         clientIP(r),
	}
	fields, err := s.payUC.Checkout(r.Context(), order, q.Get("locale"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	type field struct{ Name, Value string }
	data := struct {
		Action string
		Origin string
		Fields []field
	}{Action: s.opts.PaymentURL, Origin: s.opts.GatewayOrigin}
	if o, ok := frame.Origin(s.opts.GatewayOrigin); ok {
		data.Origin = o
	}
	for _, k := range fields.Keys() {
		data.Fields = append(data.Fields, field{Name: k, Value: fields[k]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := checkoutPage.Execute(w, data); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("render checkout page")
	}
}

type frameEvent struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// handleFrameEvent records a message the checkout page received from the payment frame.
// The page relays what it accepted; the origin is checked again here.
func (s *Server) handleFrameEvent(w http.ResponseWriter, r *http.Request) {
	var ev frameEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	data := []byte(ev.Data)
	// postMessage payloads arrive as JSON encoded strings
	var inner string
	if json.Unmarshal(ev.Data, &inner) == nil {
		data = []byte(inner)
	}
	msg, err := frame.Decode(ev.Origin, data, s.opts.GatewayOrigin)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, frame.ErrForeignOrigin) {
			code = http.StatusForbidden
		}
		writeError(w, code, err.Error())
		return
	}
	logging.With(r.Context(), s.log).Debug().
		Str("resize_iframe", msg.ResizeIframe).
		Str("transaction_result", msg.TransactionResult).
		Msg("payment frame event")
	w.WriteHeader(http.StatusNoContent)
}

// formFields flattens query and form values. A repeated name is rejected: the signed
// field set allows one value per key.
func formFields(r *http.Request) (model.Fields, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return flatten(r.Form)
}

func flatten(values url.Values) (model.Fields, error) {
	fields := make(model.Fields, len(values))
	for k, vs := range values {
		if len(vs) != 1 {
			return nil, errors.New("duplicate field " + k)
		}
		fields[k] = vs[0]
	}
	return fields, nil
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindReplay:
		return http.StatusConflict
	case domain.KindStaleness, domain.KindSignatureMismatch, domain.KindUnknownResult:
		return http.StatusBadRequest
	}
	if errors.Is(err, domain.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func reasonFor(err error) string {
	if k := domain.KindOf(err); k != domain.KindUnknown {
		return k.String()
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment {{if .OK}}Success{{else}}Result{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}Payment Successful{{else}}Payment Not Completed{{end}}</h2>
  <p>{{.Msg}}</p>
</div>
</body>
</html>`))

func (s *Server) renderResult(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = resultPage.Execute(w, struct {
		OK  bool
		Msg string
	}{OK: ok, Msg: msg})
}

// The listener mirrors frame.Decode: messages from any other origin are ignored.
var checkoutPage = template.Must(template.New("checkout").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>Payment</title>
<style>
#iframe-payment-container{border:0;min-width:460px;min-height:325px}
#iframe-payment-container iframe{border:0;width:460px;height:325px}
</style>
</head>
<body>
<div id="iframe-payment-container"><iframe name="payment-frame"></iframe></div>
<form id="payment-form" method="POST" action="{{.Action}}" target="payment-frame">
{{range .Fields}}<input type="hidden" name="{{.Name}}" value="{{.Value}}" />
{{end}}</form>
<script>
(function () {
  var gatewayOrigin = {{.Origin}};
  var frame = document.querySelector('#iframe-payment-container iframe');
  var initial = {width: frame.style.width, height: frame.style.height, position: frame.style.position};
  window.addEventListener('message', function (event) {
    if (event.origin !== gatewayOrigin) { return; }
    var msg;
    try { msg = JSON.parse(event.data); } catch (e) { return; }
    if (msg.resize_iframe === 'expand') {
      var wide = window.innerWidth >= 960;
      frame.style.position = 'absolute';
      frame.style.zIndex = 9999;
      frame.style.width = (wide ? 960 : window.innerWidth) + 'px';
      frame.style.height = (wide ? 640 : window.innerHeight) + 'px';
    } else if (msg.resize_iframe === 'shrink') {
      frame.style.width = initial.width;
      frame.style.height = initial.height;
      frame.style.position = initial.position;
    }
    if (msg.transaction_result) {
      document.title = 'Payment ' + msg.transaction_result;
    }
    if (navigator.sendBeacon) {
      navigator.sendBeacon('/api/v1/frame/events', JSON.stringify({origin: event.origin, data: event.data}));
    }
  }, false);
  document.getElementById('payment-form').submit();
})();
</script>
</body>
</html>`))
