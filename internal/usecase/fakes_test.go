package usecase

import (
	"context"
	"sort"
	"time"

	domain "github.com/minshop/order-api/internal/entity"
)

// memStore backs CartStore, OrderRepo and SettlementStore with maps.
// Settlement methods mimic the transactional store: every guard is
// checked before any mutation, so a failed call leaves no partial state.
type memStore struct {
	seq       int64
	orders    map[string]*domain.Order
	stock     map[int64]int
	cart      map[int64]domain.CartLine
	cartOwner map[int64]int64

	finalizeErr error // injected storage failure
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[string]*domain.Order{},
		stock:     map[int64]int{},
		cart:      map[int64]domain.CartLine{},
		cartOwner: map[int64]int64{},
	}
}

func (m *memStore) addCartLine(userSeq int64, l domain.CartLine) {
	l.LineTotal = l.UnitPrice * int64(l.Quantity)
	m.cart[l.CartSeq] = l
	m.cartOwner[l.CartSeq] = userSeq
}

func (m *memStore) SelectedLines(_ context.Context, userSeq int64, cartSeqs []int64) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for _, seq := range cartSeqs {
		l, ok := m.cart[seq]
		if !ok || m.cartOwner[seq] != userSeq {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CartSeq > out[j].CartSeq })
	return out, nil
}

func (m *memStore) CreateWithLines(_ context.Context, o *domain.Order) error {
	m.seq++
	o.Seq = m.seq
	o.CreatedAt = time.Now().UTC()
	for i := range o.Lines {
		m.seq++
		o.Lines[i].Seq = m.seq
	}
	cp := cloneOrder(o)
	m.orders[o.OrderNumber] = &cp
	return nil
}

func (m *memStore) GetByNumber(_ context.Context, userSeq int64, orderNumber string) (*domain.Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok || o.UserSeq != userSeq {
		return nil, ErrOrderNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (m *memStore) GetPaidDetail(_ context.Context, userSeq int64, orderNumber string) (*domain.Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok || o.UserSeq != userSeq || o.Status != domain.StatusPaid {
		return nil, ErrOrderNotFound
	}
	cp := cloneOrder(o)
	sort.Slice(cp.Lines, func(i, j int) bool { return cp.Lines[i].Seq > cp.Lines[j].Seq })
	return &cp, nil
}

func (m *memStore) FinalizePaid(_ context.Context, p FinalizePaidParams) error {
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	o, ok := m.orders[p.OrderNumber]
	if !ok || o.UserSeq != p.UserSeq || o.Status != domain.StatusPending {
		return ErrInvalidState
	}
	for _, l := range p.Lines {
		if m.stock[l.ProductSeq] < l.Quantity {
			return ErrInsufficientStock
		}
	}
	for _, l := range p.Lines {
		m.stock[l.ProductSeq] -= l.Quantity
	}
	for _, seq := range p.CartSeqs {
		if m.cartOwner[seq] == p.UserSeq {
			delete(m.cart, seq)
			delete(m.cartOwner, seq)
		}
	}
	paidAt := p.PaidAt
	o.Status = domain.StatusPaid
	o.PGProvider = p.PGProvider
	o.PaymentKey = p.PaymentKey
	o.PaidAt = &paidAt
	return nil
}

func (m *memStore) MarkFailed(_ context.Context, userSeq int64, orderNumber string) error {
	return m.flip(userSeq, orderNumber, domain.StatusPending, domain.StatusFailed, nil)
}

func (m *memStore) CancelPending(_ context.Context, userSeq int64, orderNumber string) error {
	return m.flip(userSeq, orderNumber, domain.StatusPending, domain.StatusCanceled, nil)
}

func (m *memStore) CancelPaid(_ context.Context, userSeq int64, orderNumber string, restock []domain.OrderLine) error {
	return m.flip(userSeq, orderNumber, domain.StatusPaid, domain.StatusCanceled, restock)
}

func (m *memStore) flip(userSeq int64, orderNumber string, from, to domain.Status, restock []domain.OrderLine) error {
	o, ok := m.orders[orderNumber]
	if !ok || o.UserSeq != userSeq || o.Status != from {
		return ErrInvalidState
	}
	for _, l := range restock {
		m.stock[l.ProductSeq] += l.Quantity
	}
	o.Status = to
	return nil
}

func cloneOrder(o *domain.Order) domain.Order {
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return cp
}

// fakePG scripts gateway responses and counts calls.
type fakePG struct {
	confirmRes   PaymentResult
	confirmErr   error
	confirmCalls int

	cancelRes   PaymentResult
	cancelErr   error
	cancelCalls int

	lastReason string
}

func (f *fakePG) Confirm(_ context.Context, _, _ string, _ int64) (PaymentResult, error) {
	f.confirmCalls++
	return f.confirmRes, f.confirmErr
}

func (f *fakePG) Cancel(_ context.Context, _, reason string) (PaymentResult, error) {
	f.cancelCalls++
	f.lastReason = reason
	return f.cancelRes, f.cancelErr
}

type fakeIdem struct {
	locks map[string]bool
	saved map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: map[string]bool{}, saved: map[string]string{}}
}

func (f *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if f.locks[k] {
		return false, nil
	}
	f.locks[k] = true
	return true, nil
}

func (f *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	f.saved[scope+":"+key] = value
	return nil
}

func (f *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := f.saved[scope+":"+key]
	return v, ok, nil
}

type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]string{}} }

func (f *fakeCache) SetStatus(_ context.Context, orderNumber, status string) error {
	f.entries[orderNumber] = status
	return nil
}

func (f *fakeCache) GetStatus(_ context.Context, orderNumber string) (string, bool, error) {
	v, ok := f.entries[orderNumber]
	return v, ok, nil
}

type fakeEvents struct {
	published []CreatedMsg
}

func (f *fakeEvents) PublishCreated(_ context.Context, msg CreatedMsg) error {
	f.published = append(f.published, msg)
	return nil
}
