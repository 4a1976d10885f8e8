package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shoplane/storefront-core/pkg/types"
	"github.com/shopspring/decimal"
)

// fakeRemote is an in-memory remote cart service with per-session carts,
// injectable failures, and concurrency accounting.
type fakeRemote struct {
	mu          sync.Mutex
	products    map[string]types.CartItem
	carts       map[string][]types.CartItem
	nextErr     error
	callCounts  map[string]int
	inFlight    int
	maxInFlight int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		products:   map[string]types.CartItem{},
		carts:      map[string][]types.CartItem{},
		callCounts: map[string]int{},
	}
}

func (f *fakeRemote) setProduct(id, name, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id] = types.CartItem{ProductID: id, Name: name, UnitPrice: decimal.RequireFromString(price)}
}

func (f *fakeRemote) seedCart(sessionID string, quantities map[string]int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []types.CartItem
	for productID, qty := range quantities {
		line := f.products[productID]
		line.Quantity = qty
		items = append(items, line)
	}
	f.carts[sessionID] = items
}

func (f *fakeRemote) failNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextErr = err
}

func (f *fakeRemote) calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCounts[method]
}

func (f *fakeRemote) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *fakeRemote) cartQuantity(sessionID, productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.carts[sessionID] {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (f *fakeRemote) begin(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCounts[method]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	if f.nextErr != nil {
		err := f.nextErr
		f.nextErr = nil
		f.inFlight--
		return err
	}
	return nil
}

func (f *fakeRemote) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
}

func (f *fakeRemote) snapshot(sessionID string) *types.Cart {
	items := make([]types.CartItem, len(f.carts[sessionID]))
	copy(items, f.carts[sessionID])
	cart := types.Cart{Items: items, Currency: "USD"}.Recalculate()
	return &cart
}

func (f *fakeRemote) GetCart(_ context.Context, sessionID string) (*types.Cart, error) {
	if err := f.begin("GetCart"); err != nil {
		return nil, err
	}
	defer f.end()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(sessionID), nil
}

func (f *fakeRemote) AddItem(_ context.Context, sessionID, productID string, quantity int) (*types.Cart, error) {
	if err := f.begin("AddItem"); err != nil {
		return nil, err
	}
	defer f.end()
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("unknown product %s", productID)
	}
	items := f.carts[sessionID]
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		product.Quantity = quantity
		items = append(items, product)
	}
	f.carts[sessionID] = items
	return f.snapshot(sessionID), nil
}

func (f *fakeRemote) UpdateItem(_ context.Context, sessionID, productID string, quantity int) (*types.Cart, error) {
	if err := f.begin("UpdateItem"); err != nil {
		return nil, err
	}
	defer f.end()
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.carts[sessionID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			break
		}
	}
	f.carts[sessionID] = items
	return f.snapshot(sessionID), nil
}

func (f *fakeRemote) RemoveItem(_ context.Context, sessionID, productID string) (*types.Cart, error) {
	if err := f.begin("RemoveItem"); err != nil {
		return nil, err
	}
	defer f.end()
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.carts[sessionID]
	for i := range items {
		if items[i].ProductID == productID {
			items = append(items[:i], items[i+1:]...)
			break
		}
	}
	f.carts[sessionID] = items
	return f.snapshot(sessionID), nil
}

func (f *fakeRemote) ClearCart(_ context.Context, sessionID string) (*types.Cart, error) {
	if err := f.begin("ClearCart"); err != nil {
		return nil, err
	}
	defer f.end()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[sessionID] = nil
	return f.snapshot(sessionID), nil
}

func (f *fakeRemote) MergeGuestCart(_ context.Context, sessionID string, items []types.CartItem) (*types.Cart, error) {
	if err := f.begin("MergeGuestCart"); err != nil {
		return nil, err
	}
	defer f.end()
	f.mu.Lock()
	defer f.mu.Unlock()

	merged := make([]types.CartItem, len(items))
	copy(merged, items)
	for i := range merged {
		if product, ok := f.products[merged[i].ProductID]; ok {
			merged[i].Name = product.Name
			merged[i].UnitPrice = product.UnitPrice
		}
	}
	f.carts[sessionID] = merged
	return f.snapshot(sessionID), nil
}
