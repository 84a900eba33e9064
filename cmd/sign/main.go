// Command sign prints a signed authorisation request as JSON. It is meant for
// checking an integration against the gateway's test environment by hand.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"everypay-integration/internal/config"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/exchange"
	"everypay-integration/internal/infra/adapters/nonce"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	orderRef := flag.String("order", "", "order reference (required)")
	amount := flag.String("amount", "", "amount, e.g. 10.00 (required)")
	email := flag.String("email", "", "customer email")
	userIP := flag.String("ip", "127.0.0.1", "customer ip address")
	locale := flag.String("locale", "", "payment page locale (defaults to gateway.locale)")
	flag.Parse()

	if *orderRef == "" || *amount == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cred, err := model.NewCredential(cfg.Gateway.APIUsername, []byte(cfg.Gateway.APISecret))
	if err != nil {
		log.Fatalf("credential: %v", err)
	}
	// Only BuildRequest is used here, so no replay guard is needed.
	exch, err := exchange.New(cred,
		exchange.WithVersion(cfg.Gateway.Version),
		exchange.WithNonceStore(nonce.AcceptAll{}),
	)
	if err != nil {
		log.Fatalf("exchange: %v", err)
	}

	order := model.Order{
		AccountID:      cfg.Gateway.AccountID,
		Amount:         *amount,
		CallbackURL:    cfg.Gateway.CallbackURL,
		CustomerURL:    cfg.Gateway.CustomerURL,
		Email:          *email,
		OrderReference: *orderRef,
		UserIP:         *userIP,
	}
	if *locale == "" {
		*locale = cfg.Gateway.Locale
	}
	fields := exch.BuildRequest(order.Fields(), *locale, cfg.Gateway.IncludeManifest)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Action string       `json:"action"`
		Fields model.Fields `json:"fields"`
	}{cfg.Gateway.PaymentURL, fields}); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
