package model

// Field names of the gateway wire protocol.
const (
	FieldAccountID         = "account_id"
	FieldAmount            = "amount"
	FieldAPIUsername       = "api_username"
	FieldBillingAddress    = "billing_address"
	FieldBillingCity       = "billing_city"
	FieldBillingCountry    = "billing_country"
	FieldBillingPostcode   = "billing_postcode"
	FieldCallbackURL       = "callback_url"
	FieldCardLastFour      = "cc_last_four_digits"
	FieldCustomerURL       = "customer_url"
	FieldDeliveryAddress   = "delivery_address"
	FieldDeliveryCity      = "delivery_city"
	FieldDeliveryCountry   = "delivery_country"
	FieldDeliveryPostcode  = "delivery_postcode"
	FieldEmail             = "email"
	FieldHMAC              = "hmac"
	FieldHMACFields        = "hmac_fields"
	FieldLocale            = "locale"
	FieldNonce             = "nonce"
	FieldOrderReference    = "order_reference"
	FieldPaymentReference  = "payment_reference"
	FieldPaymentState      = "payment_state"
	FieldProcessingErrors  = "processing_errors"
	FieldProcessingWarning = "processing_warnings"
	FieldTimestamp         = "timestamp"
	FieldTransactionResult = "transaction_result"
	FieldTransactionType   = "transaction_type"
	FieldUserIP            = "user_ip"
)

// TransactionTypeAuthorisation is the only transaction type this integration submits.
const TransactionTypeAuthorisation = "authorisation"

// Address is a street-level postal address as the gateway expects it.
type Address struct {
	Street   string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country"` // 2 letter code
	Postcode string `json:"postcode"`
}

// Order describes the payment request a merchant submits. Shape validation against the
// gateway contract is the caller's concern; Fields only renders what is set.
type Order struct {
	AccountID      string  `json:"account_id"`
	Amount         string  `json:"amount"`
	Billing        Address `json:"billing"`
	Delivery       Address `json:"delivery"`
	CallbackURL    string  `json:"callback_url"`
	CustomerURL    string  `json:"customer_url"`
	Email          string  `json:"email"`
	OrderReference string  `json:"order_reference"`
	UserIP         string  `json:"user_ip"`
}

// Fields renders the order into its wire field set. Unset values are omitted.
func (o Order) Fields() Fields {
	f := Fields{}
	set := func(k, v string) {
		if v != "" {
			f[k] = v
		}
	}
	set(FieldAccountID, o.AccountID)
	set(FieldAmount, o.Amount)
	set(FieldBillingAddress, o.Billing.Street)
	set(FieldBillingCity, o.Billing.City)
	set(FieldBillingCountry, o.Billing.Country)
	set(FieldBillingPostcode, o.Billing.Postcode)
	set(FieldCallbackURL, o.CallbackURL)
	set(FieldCustomerURL, o.CustomerURL)
	set(FieldDeliveryAddress, o.Delivery.Street)
	set(FieldDeliveryCity, o.Delivery.City)
	set(FieldDeliveryCountry, o.Delivery.Country)
	set(FieldDeliveryPostcode, o.Delivery.Postcode)
	set(FieldEmail, o.Email)
	set(FieldOrderReference, o.OrderReference)
	set(FieldUserIP, o.UserIP)
	return f
}

// Outcome is the decoded content of a verified gateway callback.
type Outcome struct {
	Status             StatusCode
	TransactionResult  string
	OrderReference     string
	PaymentReference   string
	PaymentState       string
	AccountID          string
	Amount             string
	CardLastFour       string
	ProcessingErrors   string
	ProcessingWarnings string
	Nonce              string
}

// OutcomeFromFields copies the known response fields. It does not verify anything.
func OutcomeFromFields(status StatusCode, f Fields) Outcome {
	return Outcome{
		Status:             status,
		TransactionResult:  f[FieldTransactionResult],
		OrderReference:     f[FieldOrderReference],
		PaymentReference:   f[FieldPaymentReference],
		PaymentState:       f[FieldPaymentState],
		AccountID:          f[FieldAccountID],
		Amount:             f[FieldAmount],
		CardLastFour:       f[FieldCardLastFour],
		ProcessingErrors:   f[FieldProcessingErrors],
		ProcessingWarnings: f[FieldProcessingWarning],
		Nonce:              f[FieldNonce],
	}
}
