package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
	"github.com/ikkim/storefront-bff/pkg/logger"
)

// RemoteCart is the cart of record. *cartapi.Client satisfies it.
type RemoteCart interface {
	FetchCart(ctx context.Context) cartapi.Result[cartapi.Cart]
	AddItem(ctx context.Context, sku string, quantity int, size, color string) cartapi.Result[struct{}]
	RemoveItem(ctx context.Context, itemID string) cartapi.Result[struct{}]
	UpdateQuantity(ctx context.Context, itemID string, quantity int) cartapi.Result[struct{}]
	ClearCart(ctx context.Context) cartapi.Result[struct{}]
}

type ReconcileState string

const (
	StateIdle              ReconcileState = "IDLE"
	StateOptimisticApplied ReconcileState = "OPTIMISTIC_APPLIED"
	StateRemotePending     ReconcileState = "REMOTE_PENDING"
	StateResyncing         ReconcileState = "RESYNCING"
	StateRolledBack        ReconcileState = "ROLLED_BACK"
)

type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeError    OutcomeStatus = "error"
	OutcomeRedirect OutcomeStatus = "redirect"
	// OutcomeStale means the remote mutation succeeded but the follow-up
	// read did not, so the cart shows the optimistic result.
	OutcomeStale OutcomeStatus = "stale"
)

const (
	OpAdd     = "add_item"
	OpRemove  = "remove_item"
	OpUpdate  = "update_quantity"
	OpClear   = "clear_cart"
	OpRefresh = "refresh"
	OpLoad    = "initial_load"
)

const (
	msgLoginRequired = "Please log in to use your cart."
	msgNetwork       = "We couldn't reach the cart service. Please try again."
	msgServer        = "The cart service could not complete the request."
	msgUnknown       = "Something went wrong while updating your cart."
)

// MutationOutcome is all a caller ever learns about a cart operation.
type MutationOutcome struct {
	Status     OutcomeStatus     `json:"status"`
	Operation  string            `json:"operation"`
	Kind       cartapi.ErrorKind `json:"kind,omitempty"`
	Message    string            `json:"message,omitempty"`
	RedirectTo string            `json:"redirect,omitempty"`
	StatusCode int               `json:"-"` // upstream HTTP status, if any
}

// Succeeded reports whether the remote side accepted the operation.
func (o MutationOutcome) Succeeded() bool {
	return o.Status == OutcomeOK || o.Status == OutcomeStale
}

type NotificationType string

const (
	NotificationCartError     NotificationType = "cart_error"
	NotificationLoginRequired NotificationType = "login_required"
)

// Notification is the single user-visible message produced by a failed mutation.
type Notification struct {
	Type       NotificationType  `json:"type"`
	SessionID  string            `json:"session_id"`
	Operation  string            `json:"operation"`
	Kind       cartapi.ErrorKind `json:"kind"`
	Message    string            `json:"message"`
	RedirectTo string            `json:"redirect,omitempty"`
	At         time.Time         `json:"at"`
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// ReconcilerConfig identifies the owning session and where redirects go.
type ReconcilerConfig struct {
	SessionID string
	LoginPath string
}

// CartReconciler keeps one session's CartStore consistent with the remote
// cart. It is the only writer of that store.
type CartReconciler struct {
	remote   RemoteCart
	store    *CartStore
	notifier Notifier
	config   ReconcilerConfig

	// lane serializes mutations from snapshot until resync or rollback.
	lane   sync.Mutex
	flight singleflight.Group

	resyncCallers atomic.Int32

	stateMu sync.Mutex
	state   ReconcileState
}

func NewCartReconciler(remote RemoteCart, notifier Notifier, config ReconcilerConfig) *CartReconciler {
	if config.LoginPath == "" {
		config.LoginPath = "/login"
	}
	return &CartReconciler{
		remote:   remote,
		store:    NewCartStore(),
		notifier: notifier,
		config:   config,
		state:    StateIdle,
	}
}

// Cart returns a read-only view of the local cart.
func (r *CartReconciler) Cart() CartReader {
	return readOnlyCart{store: r.store}
}

func (r *CartReconciler) State() ReconcileState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

// Initialized reports whether a resync has completed since creation or Reset.
func (r *CartReconciler) Initialized() bool {
	return r.store.Loaded()
}

// ResolveItemID maps ref to a server item id. ref may already be an item id;
// otherwise it is treated as a sku and looked up in the correlation table.
func (r *CartReconciler) ResolveItemID(ref, size, color string) (string, bool) {
	if _, ok := r.store.Find(ref); ok {
		return ref, true
	}
	return r.store.ItemIDFor(ref, size, color)
}

// AddItem submits an add without an optimistic row, since the server has not
// assigned an item id yet.
func (r *CartReconciler) AddItem(ctx context.Context, product model.Product, quantity int, size, color string) MutationOutcome {
	switch {
	case product.SKU == "":
		return r.rejected(OpAdd, "product sku is required")
	case quantity < 1:
		return r.rejected(OpAdd, "quantity must be at least 1")
	case !product.OffersSize(size):
		return r.rejected(OpAdd, "selected size is not available for this product")
	case !product.OffersColor(color):
		return r.rejected(OpAdd, "selected color is not available for this product")
	}

	r.lane.Lock()
	defer r.lane.Unlock()

	work := context.WithoutCancel(ctx)
	r.transition(OpAdd, StateRemotePending)
	res := r.remote.AddItem(work, product.SKU, quantity, size, color)
	if !res.OK {
		r.transition(OpAdd, StateIdle)
		return r.failed(OpAdd, res.Kind, res.Message, res.StatusCode)
	}
	return r.afterRemoteSuccess(work, OpAdd)
}

func (r *CartReconciler) RemoveItemByID(ctx context.Context, itemID string) MutationOutcome {
	r.lane.Lock()
	defer r.lane.Unlock()
	return r.removeLocked(context.WithoutCancel(ctx), itemID)
}

// UpdateQuantityByID sets an absolute quantity. Quantities below one become
// a remove and never reach the remote update endpoint.
func (r *CartReconciler) UpdateQuantityByID(ctx context.Context, itemID string, quantity int) MutationOutcome {
	r.lane.Lock()
	defer r.lane.Unlock()

	work := context.WithoutCancel(ctx)
	if quantity < 1 {
		return r.removeLocked(work, itemID)
	}
	return r.updateLocked(work, itemID, quantity)
}

// AdjustQuantityByID applies delta to the current quantity, reading it inside
// the mutation lane so rapid increments compose.
func (r *CartReconciler) AdjustQuantityByID(ctx context.Context, itemID string, delta int) MutationOutcome {
	r.lane.Lock()
	defer r.lane.Unlock()

	work := context.WithoutCancel(ctx)
	row, ok := r.store.Find(itemID)
	if !ok {
		return r.rejected(OpUpdate, "cart item not found")
	}
	target := row.Quantity + delta
	if target < 1 {
		return r.removeLocked(work, itemID)
	}
	return r.updateLocked(work, itemID, target)
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (r *CartReconciler) Clear(ctx context.Context) MutationOutcome {
	r.lane.Lock()
	defer r.lane.Unlock()
	return r.clearLocked(context.WithoutCancel(ctx))
}

// ClearOrdered takes ordered rows out of the cart after checkout. When the
// cart still holds exactly those rows it is cleared in one call. Otherwise
// only the ordered quantities are removed and anything added since stays.
func (r *CartReconciler) ClearOrdered(ctx context.Context, ordered []model.CartLineItem) MutationOutcome {
	r.lane.Lock()
	defer r.lane.Unlock()

	work := context.WithoutCancel(ctx)
	orderedQty := make(map[string]int, len(ordered))
	for _, it := range ordered {
		orderedQty[it.ItemID] += it.Quantity
	}

	current := r.store.Items()
	exact := len(current) == len(orderedQty)
	for _, it := range current {
		if orderedQty[it.ItemID] != it.Quantity {
			exact = false
			break
		}
	}
	if exact {
		return r.clearLocked(work)
	}

	logger.Info("Cart changed during checkout, removing ordered rows only", map[string]interface{}{
		"session_id": r.config.SessionID,
		"ordered":    len(orderedQty),
		"current":    len(current),
	})

	result := MutationOutcome{Status: OutcomeOK, Operation: OpClear}
	for _, it := range current {
		qty, ok := orderedQty[it.ItemID]
		if !ok {
			continue
		}

		var out MutationOutcome
		if left := it.Quantity - qty; left >= 1 {
			out = r.updateLocked(work, it.ItemID, left)
		} else {
			out = r.removeLocked(work, it.ItemID)
		}
		if !out.Succeeded() {
			return out
		}
		if out.Status == OutcomeStale {
			result = out
		}
	}
	return result
}

func (r *CartReconciler) clearLocked(work context.Context) MutationOutcome {
	snapshot := r.store.Snapshot()
	for _, it := range snapshot.items {
		r.store.RemoveByItemID(it.ItemID)
	}
	r.transition(OpClear, StateOptimisticApplied)

	r.transition(OpClear, StateRemotePending)
	res := r.remote.ClearCart(work)
	if !res.OK {
		return r.rollback(OpClear, snapshot, res.Kind, res.Message, res.StatusCode)
	}
	return r.afterRemoteSuccess(work, OpClear)
}

// Refresh re-reads the remote cart. Concurrent callers share one fetch.
func (r *CartReconciler) Refresh(ctx context.Context) MutationOutcome {
	return r.coalescedResync(context.WithoutCancel(ctx), OpRefresh)
}

// EnsureLoaded performs the initial load once per engine lifetime; later
// calls return immediately.
func (r *CartReconciler) EnsureLoaded(ctx context.Context) MutationOutcome {
	if r.store.Loaded() {
		return MutationOutcome{Status: OutcomeOK, Operation: OpLoad}
	}
	return r.coalescedResync(context.WithoutCancel(ctx), OpLoad)
}

// Reset forgets everything local. Used when the authenticated user changes
// or logs out. It does not wait for an in-flight operation; whatever that
// operation fetches or rolls back to afterwards is discarded.
func (r *CartReconciler) Reset() {
	r.store.reset()
	r.flight.Forget("resync")
	logger.Debug("Cart reset", map[string]interface{}{
		"session_id": r.config.SessionID,
	})
}

func (r *CartReconciler) removeLocked(ctx context.Context, itemID string) MutationOutcome {
	snapshot := r.store.Snapshot()
	if !r.store.RemoveByItemID(itemID) {
		return r.rejected(OpRemove, "cart item not found")
	}
	r.transition(OpRemove, StateOptimisticApplied)

	r.transition(OpRemove, StateRemotePending)
	res := r.remote.RemoveItem(ctx, itemID)
	if !res.OK {
		return r.rollback(OpRemove, snapshot, res.Kind, res.Message, res.StatusCode)
	}
	return r.afterRemoteSuccess(ctx, OpRemove)
}

func (r *CartReconciler) updateLocked(ctx context.Context, itemID string, quantity int) MutationOutcome {
	snapshot := r.store.Snapshot()
	if !r.store.UpsertByItemID(itemID, LineItemPatch{Quantity: &quantity}) {
		return r.rejected(OpUpdate, "cart item not found")
	}
	r.transition(OpUpdate, StateOptimisticApplied)

	r.transition(OpUpdate, StateRemotePending)
	res := r.remote.UpdateQuantity(ctx, itemID, quantity)
	if !res.OK {
		return r.rollback(OpUpdate, snapshot, res.Kind, res.Message, res.StatusCode)
	}
	return r.afterRemoteSuccess(ctx, OpUpdate)
}

func (r *CartReconciler) rollback(op string, snapshot CartSnapshot, kind cartapi.ErrorKind, message string, status int) MutationOutcome {
	if !r.store.Restore(snapshot) {
		logger.Debug("Skipping rollback of a cart reset mid-operation", map[string]interface{}{
			"session_id": r.config.SessionID,
			"operation":  op,
		})
	}
	r.transition(op, StateRolledBack)
	defer r.transition(op, StateIdle)
	return r.failed(op, kind, message, status)
}

// afterRemoteSuccess resyncs under the lane the caller already holds.
func (r *CartReconciler) afterRemoteSuccess(ctx context.Context, op string) MutationOutcome {
	r.transition(op, StateResyncing)
	defer r.transition(op, StateIdle)

	res := r.resync(ctx, op)
	if res.OK {
		return MutationOutcome{Status: OutcomeOK, Operation: op}
	}

	out := r.failed(op, res.Kind, res.Message, res.StatusCode)
	if out.Status == OutcomeError {
		out.Status = OutcomeStale
	}
	return out
}

func (r *CartReconciler) coalescedResync(ctx context.Context, op string) MutationOutcome {
	r.resyncCallers.Add(1)
	defer r.resyncCallers.Add(-1)

	v, _, shared := r.flight.Do("resync", func() (interface{}, error) {
		r.lane.Lock()
		defer r.lane.Unlock()

		r.transition(op, StateResyncing)
		defer r.transition(op, StateIdle)
		return r.resync(ctx, op), nil
	})
	if shared {
		logger.Debug("Cart resync coalesced", map[string]interface{}{
			"session_id": r.config.SessionID,
			"operation":  op,
		})
	}

	res := v.(cartapi.Result[cartapi.Cart])
	if res.OK {
		return MutationOutcome{Status: OutcomeOK, Operation: op}
	}
	return r.outcomeFor(op, res.Kind, res.Message, res.StatusCode)
}

func (r *CartReconciler) resync(ctx context.Context, op string) cartapi.Result[cartapi.Cart] {
	generation := r.store.Generation()
	res := r.remote.FetchCart(ctx)
	if !res.OK {
		logger.Warn("Cart resync failed", map[string]interface{}{
			"session_id": r.config.SessionID,
			"operation":  op,
			"kind":       res.Kind,
			"message":    res.Message,
		})
		return res
	}

	if !r.store.ReplaceAllAt(generation, res.Data.Items) {
		logger.Info("Discarding cart fetched before reset", map[string]interface{}{
			"session_id": r.config.SessionID,
			"operation":  op,
		})
		return res
	}

	if res.Data.Total > 0 && math.Abs(res.Data.Total-r.store.Total()) > 0.005 {
		logger.Warn("Server cart total differs from computed total", map[string]interface{}{
			"session_id":   r.config.SessionID,
			"server_total": res.Data.Total,
			"local_total":  r.store.Total(),
		})
	}
	return res
}

func (r *CartReconciler) rejected(op, message string) MutationOutcome {
	return r.failed(op, cartapi.KindValidation, message, 0)
}

// failed builds the outcome for a failed operation and emits its single
// notification.
func (r *CartReconciler) failed(op string, kind cartapi.ErrorKind, message string, status int) MutationOutcome {
	out := r.outcomeFor(op, kind, message, status)

	n := Notification{
		Type:      NotificationCartError,
		SessionID: r.config.SessionID,
		Operation: op,
		Kind:      kind,
		Message:   out.Message,
		At:        time.Now(),
	}
	if out.Status == OutcomeRedirect {
		n.Type = NotificationLoginRequired
		n.RedirectTo = out.RedirectTo
	}
	if r.notifier != nil {
		r.notifier.Notify(n)
	}

	logger.Info("Cart operation failed", map[string]interface{}{
		"session_id": r.config.SessionID,
		"operation":  op,
		"kind":       kind,
		"status":     status,
	})
	return out
}

func (r *CartReconciler) outcomeFor(op string, kind cartapi.ErrorKind, message string, status int) MutationOutcome {
	if kind == cartapi.KindUnauthorized {
		return MutationOutcome{
			Status:     OutcomeRedirect,
			Operation:  op,
			Kind:       kind,
			Message:    msgLoginRequired,
			RedirectTo: r.config.LoginPath,
			StatusCode: status,
		}
	}
	return MutationOutcome{
		Status:     OutcomeError,
		Operation:  op,
		Kind:       kind,
		Message:    userMessage(kind, message),
		StatusCode: status,
	}
}

func userMessage(kind cartapi.ErrorKind, message string) string {
	switch kind {
	case cartapi.KindNetwork:
		return msgNetwork
	case cartapi.KindServer:
		if message == "" {
			return msgServer
		}
		return message
	case cartapi.KindValidation:
		return message
	default:
		return msgUnknown
	}
}

func (r *CartReconciler) transition(op string, next ReconcileState) {
	r.stateMu.Lock()
	prev := r.state
	r.state = next
	r.stateMu.Unlock()

	logger.Debug("Cart state transition", map[string]interface{}{
		"session_id": r.config.SessionID,
		"operation":  op,
		"from":       prev,
		"to":         next,
	})
}

type readOnlyCart struct {
	store *CartStore
}

func (c readOnlyCart) Items() []model.CartLineItem { return c.store.Items() }
func (c readOnlyCart) Count() int                  { return c.store.Count() }
func (c readOnlyCart) Total() float64              { return c.store.Total() }
