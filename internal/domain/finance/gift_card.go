package finance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// NormalizeGiftCardCode trims and uppercases a card code
func NormalizeGiftCardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GiftCardAccount is a prepaid balance redeemable against the owner's
// invoices. Balance never goes negative.
type GiftCardAccount struct {
	shared.BaseAggregateRoot
	OwnerKind      shared.OwnerKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_gift_card_owner_code,priority:1" json:"ownerKind"`
	OwnerID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_gift_card_owner_code,priority:2" json:"ownerId"`
	Code           string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_gift_card_owner_code,priority:3" json:"code"`
	Balance        decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"balance"`
	InitialBalance decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"initialBalance"`
}

// TableName returns the table name for GORM
func (GiftCardAccount) TableName() string {
	return "gift_cards"
}

// NewGiftCardAccount issues a card with an opening balance
func NewGiftCardAccount(owner shared.OwnerKey, code string, balance decimal.Decimal) (*GiftCardAccount, error) {
	code = NormalizeGiftCardCode(code)
	if code == "" {
		return nil, shared.NewValidationError("code is required")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("code cannot exceed 50 characters")
	}
	if balance.IsNegative() {
		return nil, shared.NewValidationError("balance cannot be negative")
	}
	if err := checkScale("balance", balance); err != nil {
		return nil, err
	}
	if !owner.Kind.IsValid() || owner.ID == uuid.Nil {
		return nil, shared.NewValidationError("invalid owner %s", owner)
	}
	return &GiftCardAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         owner.Kind,
		OwnerID:           owner.ID,
		Code:              code,
		Balance:           balance,
		InitialBalance:    balance,
	}, nil
}

// CanCover reports whether the balance covers amount
func (g *GiftCardAccount) CanCover(amount decimal.Decimal) bool {
	return g.Balance.GreaterThanOrEqual(amount)
}
