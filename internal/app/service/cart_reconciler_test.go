package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
)

func setupReconcilerTest(t *testing.T, items ...model.CartLineItem) (*CartReconciler, *fakeRemote, *recordingNotifier) {
	t.Helper()
	remote := newFakeRemote(items...)
	notifier := &recordingNotifier{}
	r := NewCartReconciler(remote, notifier, ReconcilerConfig{SessionID: "s-test", LoginPath: "/login"})

	if len(items) > 0 {
		out := r.EnsureLoaded(context.Background())
		require.Equal(t, OutcomeOK, out.Status)
	}
	return r, remote, notifier
}

func TestReconciler_RollbackOnFailure(t *testing.T) {
	ops := map[string]func(r *CartReconciler) MutationOutcome{
		"remove": func(r *CartReconciler) MutationOutcome {
			return r.RemoveItemByID(context.Background(), "i2")
		},
		"update": func(r *CartReconciler) MutationOutcome {
			return r.UpdateQuantityByID(context.Background(), "i1", 5)
		},
	}

	for op, run := range ops {
		for _, kind := range []cartapi.ErrorKind{cartapi.KindServer, cartapi.KindNetwork} {
			t.Run(op+"/"+string(kind), func(t *testing.T) {
				r, remote, notifier := setupReconcilerTest(t,
					line("i1", "S1", 2, 10),
					line("i2", "S2", 1, 30),
					line("i3", "S3", 4, 5),
				)
				before := r.Cart().Items()
				remote.failOn(op, kind, "out of stock")

				out := run(r)

				assert.Equal(t, OutcomeError, out.Status)
				assert.Equal(t, kind, out.Kind)
				assert.Equal(t, before, r.Cart().Items())
				assert.Equal(t, StateIdle, r.State())
				assert.Len(t, notifier.all(), 1)
			})
		}
	}
}

func TestReconciler_ServerMessageIsVerbatim(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))
	remote.failOn("update", cartapi.KindServer, "Only 1 left in stock")

	out := r.UpdateQuantityByID(context.Background(), "i1", 3)

	assert.Equal(t, "Only 1 left in stock", out.Message)
	assert.Equal(t, 409, out.StatusCode)
}

func TestReconciler_ResyncReplacesNotMerges(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10), line("i2", "S2", 1, 30))

	// Another device changed the cart behind this session's back.
	remote.setServerItems(line("i1", "S1", 2, 12), line("i9", "S9", 1, 99))

	out := r.UpdateQuantityByID(context.Background(), "i1", 4)
	require.Equal(t, OutcomeOK, out.Status)

	assert.Equal(t, remote.serverItems(), r.Cart().Items())
	assert.Equal(t, 4*12.0+99, r.Cart().Total())
}

func TestReconciler_QuantityFloorRoutesToRemove(t *testing.T) {
	for _, qty := range []int{0, -1} {
		r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10), line("i2", "S2", 1, 30))

		out := r.UpdateQuantityByID(context.Background(), "i1", qty)

		assert.Equal(t, OutcomeOK, out.Status)
		assert.Equal(t, OpRemove, out.Operation)
		assert.Equal(t, 0, remote.callCount("update"))
		assert.Equal(t, 1, remote.callCount("remove"))
		_, found := r.store.Find("i1")
		assert.False(t, found)
	}
}

func TestReconciler_AdjustBelowOneRemoves(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 1, 10))

	out := r.AdjustQuantityByID(context.Background(), "i1", -1)

	assert.Equal(t, OutcomeOK, out.Status)
	assert.Equal(t, 0, remote.callCount("update"))
	assert.Equal(t, 0, r.Cart().Count())
}

func TestReconciler_SingleFlightRefresh(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))
	fetchesBefore := remote.callCount("fetch")

	gate := make(chan struct{})
	entered := make(chan struct{}, 2)
	remote.mu.Lock()
	remote.fetchGate, remote.fetchEntered = gate, entered
	remote.mu.Unlock()

	var wg sync.WaitGroup
	outcomes := make([]MutationOutcome, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0] = r.Refresh(context.Background())
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[1] = r.Refresh(context.Background())
	}()
	require.Eventually(t, func() bool { return r.resyncCallers.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	close(gate)
	wg.Wait()

	assert.Equal(t, fetchesBefore+1, remote.callCount("fetch"))
	assert.Equal(t, OutcomeOK, outcomes[0].Status)
	assert.Equal(t, OutcomeOK, outcomes[1].Status)
}

func TestReconciler_EnsureLoadedOnce(t *testing.T) {
	remote := newFakeRemote(line("i1", "S1", 2, 10))
	r := NewCartReconciler(remote, nil, ReconcilerConfig{SessionID: "s"})
	assert.False(t, r.Initialized())

	for i := 0; i < 3; i++ {
		assert.Equal(t, OutcomeOK, r.EnsureLoaded(context.Background()).Status)
	}

	assert.Equal(t, 1, remote.callCount("fetch"))
	assert.True(t, r.Initialized())
	assert.Equal(t, 2, r.Cart().Count())
}

func TestReconciler_EnsureLoadedRetriesAfterFailure(t *testing.T) {
	remote := newFakeRemote(line("i1", "S1", 2, 10))
	remote.failOn("fetch", cartapi.KindNetwork, "")
	r := NewCartReconciler(remote, nil, ReconcilerConfig{SessionID: "s"})

	out := r.EnsureLoaded(context.Background())
	assert.Equal(t, OutcomeError, out.Status)
	assert.False(t, r.Initialized())

	remote.heal("fetch")
	assert.Equal(t, OutcomeOK, r.EnsureLoaded(context.Background()).Status)
	assert.Equal(t, 2, remote.callCount("fetch"))
}

func TestReconciler_ClearIsIdempotent(t *testing.T) {
	r, _, notifier := setupReconcilerTest(t, line("i1", "S1", 2, 10))

	first := r.Clear(context.Background())
	second := r.Clear(context.Background())

	assert.Equal(t, OutcomeOK, first.Status)
	assert.Equal(t, OutcomeOK, second.Status)
	assert.Equal(t, 0, r.Cart().Count())
	assert.Empty(t, notifier.all())
}

func TestReconciler_ClearRollsBack(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10), line("i2", "S2", 1, 30))
	before := r.Cart().Items()
	remote.failOn("clear", cartapi.KindNetwork, "")

	out := r.Clear(context.Background())

	assert.Equal(t, OutcomeError, out.Status)
	assert.Equal(t, before, r.Cart().Items())
}

// Scenario A
func TestReconciler_NetworkFailureRevertsQuantity(t *testing.T) {
	r, remote, notifier := setupReconcilerTest(t, line("i1", "S1", 2, 10))
	remote.failOn("update", cartapi.KindNetwork, "dial tcp: connection refused")

	out := r.UpdateQuantityByID(context.Background(), "i1", 3)

	row, ok := r.store.Find("i1")
	require.True(t, ok)
	assert.Equal(t, 2, row.Quantity)
	assert.Equal(t, cartapi.KindNetwork, out.Kind)
	assert.Equal(t, msgNetwork, out.Message)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, NotificationCartError, sent[0].Type)
	assert.Equal(t, cartapi.KindNetwork, sent[0].Kind)
}

// Scenario B
func TestReconciler_UnauthorizedAddRedirects(t *testing.T) {
	r, remote, notifier := setupReconcilerTest(t)
	remote.failOn("add", cartapi.KindUnauthorized, "login required")

	out := r.AddItem(context.Background(), model.Product{SKU: "S2", Price: 20}, 1, "", "")

	assert.Equal(t, OutcomeRedirect, out.Status)
	assert.Equal(t, "/login", out.RedirectTo)
	assert.Empty(t, r.Cart().Items())
	assert.Equal(t, 0, remote.callCount("fetch"))

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, NotificationLoginRequired, sent[0].Type)
	assert.Equal(t, "/login", sent[0].RedirectTo)
}

// Scenario C
func TestReconciler_RemoveThenResync(t *testing.T) {
	i1 := line("i1", "S1", 3, 10)
	r, _, _ := setupReconcilerTest(t, i1, line("i2", "S2", 1, 30))

	out := r.RemoveItemByID(context.Background(), "i2")

	require.Equal(t, OutcomeOK, out.Status)
	assert.Equal(t, []model.CartLineItem{i1}, r.Cart().Items())
	assert.Equal(t, i1.Quantity, r.Cart().Count())
}

func TestReconciler_AddItemResyncsWithServerID(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t)
	remote.catalog["S5"] = model.Product{SKU: "S5", Name: "Wool coat", Price: 150}

	out := r.AddItem(context.Background(), remote.catalog["S5"], 2, "", "")
	require.Equal(t, OutcomeOK, out.Status)

	id, ok := r.ResolveItemID("S5", "", "")
	require.True(t, ok)
	row, _ := r.store.Find(id)
	assert.Equal(t, 2, row.Quantity)
	assert.Equal(t, 300.0, r.Cart().Total())

	// Repeated adds are merged by the server, not locally.
	r.AddItem(context.Background(), remote.catalog["S5"], 1, "", "")
	assert.Equal(t, 2, remote.callCount("add"))
	assert.Len(t, r.Cart().Items(), 1)
	assert.Equal(t, 3, r.Cart().Count())
}

func TestReconciler_AddItemValidation(t *testing.T) {
	r, remote, notifier := setupReconcilerTest(t)
	product := model.Product{SKU: "S1", Sizes: []string{"S", "M"}, Colors: []string{"black"}}

	tests := []struct {
		name  string
		qty   int
		size  string
		color string
	}{
		{"zero quantity", 0, "", ""},
		{"unknown size", 1, "XXL", ""},
		{"unknown color", 1, "M", "pink"},
	}
	for _, tt := range tests {
		out := r.AddItem(context.Background(), product, tt.qty, tt.size, tt.color)
		assert.Equal(t, cartapi.KindValidation, out.Kind, tt.name)
	}

	assert.Equal(t, 0, remote.callCount("add"))
	assert.Len(t, notifier.all(), len(tests))
}

func TestReconciler_AddItemServerFailureLeavesStore(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))
	before := r.Cart().Items()
	remote.failOn("add", cartapi.KindServer, "sold out")

	out := r.AddItem(context.Background(), model.Product{SKU: "S7"}, 1, "", "")

	assert.Equal(t, OutcomeError, out.Status)
	assert.Equal(t, "sold out", out.Message)
	assert.Equal(t, before, r.Cart().Items())
}

func TestReconciler_UnknownItemNeverCallsRemote(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))

	assert.Equal(t, cartapi.KindValidation, r.RemoveItemByID(context.Background(), "nope").Kind)
	assert.Equal(t, cartapi.KindValidation, r.UpdateQuantityByID(context.Background(), "nope", 2).Kind)
	assert.Equal(t, cartapi.KindValidation, r.AdjustQuantityByID(context.Background(), "nope", 1).Kind)

	assert.Equal(t, 0, remote.callCount("remove"))
	assert.Equal(t, 0, remote.callCount("update"))
}

func TestReconciler_ResyncFailureKeepsOptimisticState(t *testing.T) {
	r, remote, notifier := setupReconcilerTest(t, line("i1", "S1", 2, 10))
	remote.failOn("fetch", cartapi.KindNetwork, "")

	out := r.UpdateQuantityByID(context.Background(), "i1", 5)

	assert.Equal(t, OutcomeStale, out.Status)
	assert.True(t, out.Succeeded())
	row, _ := r.store.Find("i1")
	assert.Equal(t, 5, row.Quantity)
	assert.Len(t, notifier.all(), 1)
}

func TestReconciler_RedirectOnUnauthorizedRollsBack(t *testing.T) {
	r, remote, notifier := setupReconcilerTest(t, line("i1", "S1", 2, 10))
	before := r.Cart().Items()
	remote.failOn("remove", cartapi.KindUnauthorized, "token expired")

	out := r.RemoveItemByID(context.Background(), "i1")

	assert.Equal(t, OutcomeRedirect, out.Status)
	assert.Equal(t, before, r.Cart().Items())
	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, NotificationLoginRequired, sent[0].Type)
}

func TestReconciler_SerializedAdjustmentsCompose(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 1, 10))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AdjustQuantityByID(context.Background(), "i1", 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, remote.serverItems()[0].Quantity)
	assert.Equal(t, remote.serverItems(), r.Cart().Items())
}

func TestReconciler_CancelledCallerDoesNotAbort(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := r.UpdateQuantityByID(ctx, "i1", 4)

	assert.Equal(t, OutcomeOK, out.Status)
	assert.Equal(t, 4, remote.serverItems()[0].Quantity)
}

func TestReconciler_ResetForgetsCart(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))

	r.Reset()

	assert.Empty(t, r.Cart().Items())
	assert.False(t, r.Initialized())

	r.EnsureLoaded(context.Background())
	assert.Equal(t, 2, remote.callCount("fetch"))
	assert.Equal(t, 2, r.Cart().Count())
}

func TestReconciler_ResetDiscardsInFlightFetch(t *testing.T) {
	r, remote, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	remote.mu.Lock()
	remote.fetchGate, remote.fetchEntered = gate, entered
	remote.mu.Unlock()

	done := make(chan MutationOutcome, 1)
	go func() { done <- r.Refresh(context.Background()) }()
	<-entered

	// Reset must not wait for the fetch holding the lane.
	r.Reset()
	assert.False(t, r.Initialized())
	assert.Equal(t, 0, r.Cart().Count())

	close(gate)
	<-done
	assert.False(t, r.Initialized())
	assert.Empty(t, r.Cart().Items())

	remote.mu.Lock()
	remote.fetchGate, remote.fetchEntered = nil, nil
	remote.mu.Unlock()
	remote.setServerItems(line("i9", "S9", 1, 30))

	out := r.EnsureLoaded(context.Background())
	assert.Equal(t, OutcomeOK, out.Status)
	assert.Equal(t, []string{"i9"}, itemIDs(r.Cart().Items()))
}

func TestReconciler_ResetSkipsStaleRollback(t *testing.T) {
	r, remote, notifier := setupReconcilerTest(t, line("i1", "S1", 2, 10), line("i2", "S2", 1, 5))
	remote.failOn("remove", cartapi.KindNetwork, "connection reset")

	snapshot := r.store.Snapshot()
	r.Reset()
	assert.False(t, r.store.Restore(snapshot))

	out := r.RemoveItemByID(context.Background(), "i1")
	assert.Equal(t, cartapi.KindValidation, out.Kind)
	assert.Empty(t, r.Cart().Items())
	assert.Zero(t, remote.callCount("remove"))
	assert.Len(t, notifier.all(), 1)
}

func TestReconciler_CartIsReadOnly(t *testing.T) {
	r, _, _ := setupReconcilerTest(t, line("i1", "S1", 2, 10))

	_, isStore := r.Cart().(*CartStore)
	assert.False(t, isStore)

	items := r.Cart().Items()
	items[0].Quantity = 99
	assert.Equal(t, 2, r.Cart().Count())
}

func itemIDs(items []model.CartLineItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID)
	}
	return ids
}
