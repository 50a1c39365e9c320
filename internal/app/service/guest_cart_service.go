package service

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/pkg/logger"
)

const guestPersistTimeout = 2 * time.Second

// GuestCartPersister stores anonymous carts between process restarts.
type GuestCartPersister interface {
	Save(ctx context.Context, guestID string, items []model.CartLineItem) error
	Load(ctx context.Context, guestID string) ([]model.CartLineItem, error)
	Delete(ctx context.Context, guestID string) error
}

// GuestCart is a purely local cart keyed by sku. It never talks to the cart
// service and none of its mutations can fail.
type GuestCart struct {
	mu sync.RWMutex
	// persistMu is held from mutation through save so saves land in
	// mutation order. Readers only take mu.
	persistMu sync.Mutex
	guestID   string
	items     []model.CartLineItem
	persister GuestCartPersister
}

// NewGuestCart creates an empty guest cart. persister may be nil.
func NewGuestCart(guestID string, persister GuestCartPersister) *GuestCart {
	return &GuestCart{guestID: guestID, persister: persister}
}

func (g *GuestCart) GuestID() string {
	return g.guestID
}

// Restore loads a previously persisted cart, replacing the current contents.
func (g *GuestCart) Restore(ctx context.Context) {
	if g.persister == nil {
		return
	}

	items, err := g.persister.Load(ctx, g.guestID)
	if err != nil {
		logger.Warn("Failed to restore guest cart", map[string]interface{}{
			"guest_id": g.guestID,
			"error":    err.Error(),
		})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = g.items[:0]
	for _, it := range items {
		if it.SKU != "" && it.Quantity >= 1 {
			it.ItemID = ""
			g.items = append(g.items, it)
		}
	}
}

func (g *GuestCart) Items() []model.CartLineItem {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return model.CloneItems(g.items)
}

func (g *GuestCart) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	count := 0
	for _, it := range g.items {
		count += it.Quantity
	}
	return count
}

func (g *GuestCart) Total() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total float64
	for _, it := range g.items {
		total += it.Subtotal()
	}
	return total
}

// AddItem adds quantity of product; an existing row for the sku accumulates.
// Non-positive quantities are ignored.
func (g *GuestCart) AddItem(product model.Product, quantity int) {
	if product.SKU == "" || quantity < 1 {
		return
	}

	g.mutate(func() {
		if i := g.indexOf(product.SKU); i >= 0 {
			g.items[i].Quantity += quantity
			return
		}
		g.items = append(g.items, model.CartLineItem{
			SKU:         product.SKU,
			Quantity:    quantity,
			UnitPrice:   product.Price,
			Name:        product.Name,
			Image:       product.Image,
			Description: product.Description,
		})
	})
}

func (g *GuestCart) RemoveItem(sku string) {
	g.mutate(func() {
		if i := g.indexOf(sku); i >= 0 {
			g.items = append(g.items[:i:i], g.items[i+1:]...)
		}
	})
}

// UpdateQuantity sets an absolute quantity; below one removes the row.
func (g *GuestCart) UpdateQuantity(sku string, quantity int) {
	g.mutate(func() {
		i := g.indexOf(sku)
		if i < 0 {
			return
		}
		if quantity < 1 {
			g.items = append(g.items[:i:i], g.items[i+1:]...)
			return
		}
		g.items[i].Quantity = quantity
	})
}

func (g *GuestCart) ClearCart() {
	g.mutate(func() {
		g.items = nil
	})
}

func (g *GuestCart) mutate(fn func()) {
	g.persistMu.Lock()
	defer g.persistMu.Unlock()

	g.mu.Lock()
	fn()
	items := model.CloneItems(g.items)
	g.mu.Unlock()

	g.persist(items)
}

func (g *GuestCart) persist(items []model.CartLineItem) {
	if g.persister == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), guestPersistTimeout)
	defer cancel()

	var err error
	if len(items) == 0 {
		err = g.persister.Delete(ctx, g.guestID)
	} else {
		err = g.persister.Save(ctx, g.guestID, items)
	}
	if err != nil {
		logger.Warn("Failed to persist guest cart", map[string]interface{}{
			"guest_id": g.guestID,
			"error":    err.Error(),
		})
	}
}

func (g *GuestCart) indexOf(sku string) int {
	for i, it := range g.items {
		if it.SKU == sku {
			return i
		}
	}
	return -1
}
