package marketplace

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	entity "ballstore.GO/model/entity"
)

// Mock is the in-process fake used when MARKETPLACE_MODE=mock (the
// default in development) and by tests. It fabricates a handful of order
// lines over real in-stock manual products and accepts every token and
// stock push without touching the network.
type Mock struct {
	db       *gorm.DB
	platform string
}

func NewMock(db *gorm.DB, platform string) *Mock {
	return &Mock{db: db, platform: platform}
}

func (m *Mock) AuthURL(state string) (string, error) {
	return "https://marketplace.invalid/oauth/authorize?state=" + state, nil
}

func (m *Mock) ExchangeToken(_ context.Context, code string, _ Identifiers) (TokenSet, error) {
	return TokenSet{
		AccessToken:  "mock-access-" + code,
		RefreshToken: "mock-refresh-" + code,
		ExpireAt:     now() + 14400,
	}, nil
}

func (m *Mock) RefreshToken(_ context.Context, refreshToken string, _ Identifiers) (TokenSet, error) {
	return TokenSet{
		AccessToken:  fmt.Sprintf("mock-access-%d", time.Now().UnixNano()),
		RefreshToken: refreshToken,
		ExpireAt:     now() + 14400,
	}, nil
}

// SearchOrders picks up to three sellable products with stock and turns
// them into one-or-two piece order lines, mimicking a quiet sales window.
func (m *Mock) SearchOrders(_ context.Context, _ string, _ Identifiers, from, to int64) ([]OrderLine, error) {
	var products []entity.Product
	err := m.db.Where("is_deleted = ? AND stock > 0 AND ball_id IS NULL", false).
		Limit(10).Find(&products).Error
	if err != nil {
		return nil, err
	}

	var lines []OrderLine
	for i, p := range products {
		if i >= 3 {
			break
		}
		qty := 1 + rand.Intn(2)
		if qty > p.Stock {
			qty = p.Stock
		}
		if qty <= 0 {
			continue
		}
		occurred := from
		if to > from {
			occurred = from + rand.Int63n(to-from)
		}
		lines = append(lines, OrderLine{
			OrderID:    fmt.Sprintf("MOCK-%d-%d", time.Now().Unix(), p.ID),
			SKU:        fmt.Sprintf("%d", p.ID),
			Qty:        qty,
			UnitPrice:  p.DefaultUnitPrice(),
			OccurredAt: occurred,
		})
	}
	return lines, nil
}

func (m *Mock) PushStock(_ context.Context, _ string, _ Identifiers, _ []StockItem) error {
	return nil
}
