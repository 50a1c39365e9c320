package service

import (
	"sync"

	"github.com/ikkim/storefront-bff/internal/app/model"
)

// CartReader is the read-only face of a cart handed to views and controllers.
type CartReader interface {
	Items() []model.CartLineItem
	Count() int
	Total() float64
}

// LineItemPatch describes an optimistic change to one row.
type LineItemPatch struct {
	Quantity *int
	// Row is appended when the item id is not present yet.
	Row *model.CartLineItem
}

// CartSnapshot is an immutable copy of the rows taken before an optimistic
// mutation. It exists only for rollback.
type CartSnapshot struct {
	items      []model.CartLineItem
	generation uint64
}

// Items returns a copy of the captured rows.
func (s CartSnapshot) Items() []model.CartLineItem {
	return model.CloneItems(s.items)
}

// CartStore is the in-memory cart of one session. It performs no I/O and
// none of its operations fail; only CartReconciler holds a *CartStore.
type CartStore struct {
	mu    sync.RWMutex
	items []model.CartLineItem

	// generation advances on every reset. Writes carrying an older
	// generation belong to a previous user and are dropped.
	generation uint64
	loaded     bool

	// sku/variant -> item id, rebuilt whenever the row set is replaced.
	itemIDByVariant map[string]string
	itemIDsBySKU    map[string][]string
}

func NewCartStore() *CartStore {
	s := &CartStore{}
	s.reindex()
	return s
}

func (s *CartStore) Items() []model.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneItems(s.items)
}

// Count is the sum of quantities.
func (s *CartStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

// Total is the sum of line subtotals.
func (s *CartStore) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// Find returns the row with itemID.
func (s *CartStore) Find(itemID string) (model.CartLineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(itemID); i >= 0 {
		return s.items[i], true
	}
	return model.CartLineItem{}, false
}

// ItemIDFor correlates a product (and optional variant) with the server's
// item id. With no variant given, a sku held by exactly one row matches.
func (s *CartStore) ItemIDFor(sku, size, color string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.itemIDByVariant[model.VariantKey(sku, size, color)]; ok {
		return id, true
	}
	if size == "" && color == "" {
		if ids := s.itemIDsBySKU[sku]; len(ids) == 1 {
			return ids[0], true
		}
	}
	return "", false
}

// ReplaceAll swaps in the server's cart wholesale. Rows with a quantity
// below one are dropped.
func (s *CartStore) ReplaceAll(items []model.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(items)
}

// ReplaceAllAt is ReplaceAll for a cart fetched while generation was
// current. It reports false and changes nothing after an intervening reset.
func (s *CartStore) ReplaceAllAt(generation uint64, items []model.CartLineItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.replaceLocked(items)
	return true
}

func (s *CartStore) replaceLocked(items []model.CartLineItem) {
	next := make([]model.CartLineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity >= 1 {
			next = append(next, it)
		}
	}
	s.items = next
	s.loaded = true
	s.reindex()
}

func (s *CartStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Loaded reports whether a server cart was applied since the last reset.
func (s *CartStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// UpsertByItemID applies patch to the row with itemID, or appends patch.Row
// when the row is absent. A resulting quantity below one removes the row.
// It reports whether the store changed.
func (s *CartStore) UpsertByItemID(itemID string, patch LineItemPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(itemID)
	if i < 0 {
		if patch.Row == nil {
			return false
		}
		row := *patch.Row
		row.ItemID = itemID
		if patch.Quantity != nil {
			row.Quantity = *patch.Quantity
		}
		if row.Quantity < 1 {
			return false
		}
		s.items = append(s.items, row)
		s.reindex()
		return true
	}

	if patch.Quantity == nil {
		return false
	}
	if *patch.Quantity < 1 {
		s.removeAt(i)
		return true
	}
	s.items[i].Quantity = *patch.Quantity
	return true
}

// RemoveByItemID drops the row with itemID, reporting whether it existed.
func (s *CartStore) RemoveByItemID(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(itemID)
	if i < 0 {
		return false
	}
	s.removeAt(i)
	return true
}

// Snapshot captures the current rows for rollback.
func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CartSnapshot{items: model.CloneItems(s.items), generation: s.generation}
}

// Restore puts back exactly the rows of snapshot, order included. A snapshot
// taken before a reset is not restored.
func (s *CartStore) Restore(snapshot CartSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshot.generation != s.generation {
		return false
	}
	s.items = model.CloneItems(snapshot.items)
	s.reindex()
	return true
}

func (s *CartStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.items = nil
	s.loaded = false
	s.reindex()
}

func (s *CartStore) indexOf(itemID string) int {
	if itemID == "" {
		return -1
	}
	for i, it := range s.items {
		if it.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (s *CartStore) removeAt(i int) {
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.reindex()
}

func (s *CartStore) reindex() {
	s.itemIDByVariant = make(map[string]string, len(s.items))
	s.itemIDsBySKU = make(map[string][]string, len(s.items))
	for _, it := range s.items {
		if it.ItemID == "" {
			continue
		}
		s.itemIDByVariant[it.VariantKey()] = it.ItemID
		s.itemIDsBySKU[it.SKU] = append(s.itemIDsBySKU[it.SKU], it.ItemID)
	}
}
