// Package payment wraps the Midtrans client behind the narrow surface
// the order workflows need: creating a Snap checkout session and
// fetching the authoritative status of a transaction.  Payload
// authenticity is the gateway's concern — notification handling never
// trusts the posted body for status fields, only for the order
// reference used in the status lookup.
package payment

import (
	"errors"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// Gateway transaction statuses the reconciliation workflow maps onto
// order payment states.  Values are defined by the Midtrans API.
const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusCancel     = "cancel"
	StatusExpire     = "expire"
	StatusPending    = "pending"

	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

// TransactionStatus is the subset of the gateway's status response the
// reconciliation workflow depends on.
type TransactionStatus struct {
	OrderRef          string // our order_ref, echoed back by the gateway
	TransactionID     string // gateway-assigned transaction identifier
	TransactionStatus string // one of the Status* values (or something newer)
	FraudStatus       string // accept / challenge / deny, only set for captures
}

// StatusSource fetches the authoritative status of a transaction.  The
// notification handler depends on this interface rather than the
// concrete client so tests can substitute canned statuses.
type StatusSource interface {
	Status(orderRef string) (TransactionStatus, error)
}

// CheckoutCreator opens a hosted checkout session for an order.
type CheckoutCreator interface {
	CreateCheckout(req CheckoutRequest) (CheckoutSession, error)
}

// CheckoutRequest carries everything needed to open a Snap session for
// a pending order.
type CheckoutRequest struct {
	OrderRef      string
	GrossCents    int64
	ItemID        string
	ItemName      string
	CustomerName  string
	CustomerEmail string
}

// CheckoutSession is the client-facing result of a Snap transaction:
// the token embedded by the frontend and the hosted redirect URL.
type CheckoutSession struct {
	Token       string
	RedirectURL string
}

// Gateway is the production Midtrans-backed implementation.
type Gateway struct {
	snap snap.Client
	core coreapi.Client
}

// NewGateway builds a Gateway from the server key.  The sandbox
// environment is used unless production is set.
func NewGateway(serverKey string, production bool) *Gateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &Gateway{}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g
}

// CreateCheckout opens a Snap session for the given order.
func (g *Gateway) CreateCheckout(req CheckoutRequest) (CheckoutSession, error) {
	resp, err := g.snap.CreateTransaction(&snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderRef,
			GrossAmt: req.GrossCents,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.ItemID,
			Name:  req.ItemName,
			Price: req.GrossCents,
			Qty:   1,
		}},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
	})
	if err != nil {
		return CheckoutSession{}, err
	}
	if resp == nil || resp.Token == "" {
		return CheckoutSession{}, errors.New("gateway returned empty checkout session")
	}
	return CheckoutSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// Status looks the transaction up by order reference.  Calling the
// gateway rather than trusting the notification body doubles as the
// authenticity check for callbacks.
func (g *Gateway) Status(orderRef string) (TransactionStatus, error) {
	resp, err := g.core.CheckTransaction(orderRef)
	if err != nil {
		return TransactionStatus{}, err
	}
	if resp == nil {
		return TransactionStatus{}, errors.New("gateway returned empty status")
	}
	return TransactionStatus{
		OrderRef:          resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
	}, nil
}
