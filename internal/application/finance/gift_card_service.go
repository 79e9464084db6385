package finance

import (
	"context"

	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GiftCardService issues gift cards and looks them up
type GiftCardService struct {
	cards finance.GiftCardRepository
}

// NewGiftCardService creates a new GiftCardService
func NewGiftCardService(cards finance.GiftCardRepository) *GiftCardService {
	return &GiftCardService{cards: cards}
}

// Issue creates a card for the caller. Codes are unique per owner.
func (s *GiftCardService) Issue(ctx context.Context, p shared.Principal, code string, balance decimal.Decimal) (*finance.GiftCardAccount, error) {
	if p.Role == nil {
		return nil, shared.ErrUnauthorized
	}
	card, err := finance.NewGiftCardAccount(p.Owner(), code, balance)
	if err != nil {
		return nil, err
	}
	exists, err := s.cards.ExistsByCode(ctx, p.Owner(), card.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "gift card "+card.Code+" already exists")
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Get returns one of the caller's cards by code
func (s *GiftCardService) Get(ctx context.Context, p shared.Principal, code string) (*finance.GiftCardAccount, error) {
	if p.Role == nil {
		return nil, shared.ErrUnauthorized
	}
	return s.cards.FindByCode(ctx, p.Owner(), finance.NormalizeGiftCardCode(code))
}
