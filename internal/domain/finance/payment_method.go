package finance

import (
	"strings"

	"github.com/retailops/backend/internal/domain/shared"
)

// MethodKind is the persisted name of a payment method
type MethodKind string

const (
	MethodCash         MethodKind = "CASH"
	MethodCard         MethodKind = "CARD"
	MethodUPI          MethodKind = "UPI"
	MethodBankTransfer MethodKind = "BANK_TRANSFER"
	MethodGiftCard     MethodKind = "GIFT_CARD"
)

// String returns the string representation of MethodKind
func (k MethodKind) String() string {
	return string(k)
}

// PaymentMethod is the closed set of ways an invoice can be paid.
// Only the variants in this file implement it.
type PaymentMethod interface {
	paymentMethod()
	Kind() MethodKind
}

// Cash is a cash payment
type Cash struct{}

// Card is a debit or credit card payment
type Card struct{}

// UPI is a unified payments interface transfer
type UPI struct{}

// BankTransfer is a direct bank transfer
type BankTransfer struct{}

// GiftCard redeems balance from a gift card held by the invoice owner
type GiftCard struct {
	Code string
}

func (Cash) paymentMethod()         {}
func (Card) paymentMethod()         {}
func (UPI) paymentMethod()          {}
func (BankTransfer) paymentMethod() {}
func (GiftCard) paymentMethod()     {}

func (Cash) Kind() MethodKind         { return MethodCash }
func (Card) Kind() MethodKind         { return MethodCard }
func (UPI) Kind() MethodKind          { return MethodUPI }
func (BankTransfer) Kind() MethodKind { return MethodBankTransfer }
func (GiftCard) Kind() MethodKind     { return MethodGiftCard }

// ParsePaymentMethod builds a PaymentMethod from its request name. The gift
// card code is required for GIFT_CARD and ignored otherwise.
func ParsePaymentMethod(name, giftCardCode string) (PaymentMethod, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "CASH":
		return Cash{}, nil
	case "CARD", "CREDIT_CARD", "DEBIT_CARD":
		return Card{}, nil
	case "UPI":
		return UPI{}, nil
	case "BANK_TRANSFER", "BANK":
		return BankTransfer{}, nil
	case "GIFT_CARD", "GIFTCARD":
		code := NormalizeGiftCardCode(giftCardCode)
		if code == "" {
			return nil, shared.NewValidationError("giftCardCode is required for gift card payments")
		}
		return GiftCard{Code: code}, nil
	}
	return nil, shared.NewValidationError("unsupported payment method %q", name)
}
