// Package memstore is an in-memory ledger for use case tests. It implements every repository
// and database.TxManager; a failed transaction restores the snapshot taken when it began, and
// the unique and check constraints of the PostgreSQL schema are enforced the same way.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-catalog-service/internal/apperror"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/google/uuid"
)

type pairKey struct {
	productID string
	storeID   string
}

type state struct {
	products    map[string]model.Product
	stores      map[string]model.Store
	assignments map[pairKey]model.StoreAssignment
	inventory   map[string]model.Inventory
	history     []model.InventoryHistory
	activity    []model.ActivityLog
}

func (s *state) clone() state {
	c := state{
		products:    make(map[string]model.Product, len(s.products)),
		stores:      make(map[string]model.Store, len(s.stores)),
		assignments: make(map[pairKey]model.StoreAssignment, len(s.assignments)),
		inventory:   make(map[string]model.Inventory, len(s.inventory)),
		history:     append([]model.InventoryHistory(nil), s.history...),
		activity:    append([]model.ActivityLog(nil), s.activity...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.stores {
		c.stores[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	return c
}

type txKey struct{}

type Store struct {
	txMu     sync.Mutex
	mu       sync.RWMutex
	state    state
	failures map[string]error
	commits  int
}

func New() *Store {
	return &Store{
		state: state{
			products:    map[string]model.Product{},
			stores:      map[string]model.Store{},
			assignments: map[pairKey]model.StoreAssignment{},
			inventory:   map[string]model.Inventory{},
		},
		failures: map[string]error{},
	}
}

func (m *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snapshot)
			panic(p)
		}
		if err != nil {
			m.restore(snapshot)
			return
		}
		m.mu.Lock()
		m.commits++
		m.mu.Unlock()
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func (m *Store) restore(s state) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// FailOn makes the named operation (e.g. "activity.Create") return err until cleared.
func (m *Store) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *Store) fail(op string) error {
	return m.failures[op]
}

// Commits counts successfully committed top-level transactions.
func (m *Store) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

func (m *Store) AddStore(name string) model.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	s := model.Store{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Code:      strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		Name:      name,
		IsActive:  true,
	}
	m.state.stores[s.ID] = s
	return s
}

func (m *Store) ProductRows() []model.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Product, 0, len(m.state.products))
	for _, p := range m.state.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Store) AssignmentRows() []model.StoreAssignment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.StoreAssignment, 0, len(m.state.assignments))
	for _, a := range m.state.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].StoreID < out[j].StoreID
	})
	return out
}

func (m *Store) InventoryRows() []model.Inventory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Inventory, 0, len(m.state.inventory))
	for _, inv := range m.state.inventory {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Store) HistoryRows() []model.InventoryHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.InventoryHistory(nil), m.state.history...)
}

func (m *Store) ActivityRows() []model.ActivityLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ActivityLog(nil), m.state.activity...)
}

// ActivityByAction returns the activity entries recorded for action.
func (m *Store) ActivityByAction(action string) []model.ActivityLog {
	var out []model.ActivityLog
	for _, a := range m.ActivityRows() {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

func (m *Store) Products() *ProductRepo { return &ProductRepo{m: m} }
func (m *Store) Stores() *StoreRepo { return &StoreRepo{m: m} }
func (m *Store) Assignments() *AssignmentRepo { return &AssignmentRepo{m: m} }
func (m *Store) Inventory() *InventoryRepo { return &InventoryRepo{m: m} }
func (m *Store) Activity() *ActivityRepo { return &ActivityRepo{m: m} }

func conflict(msg string) error {
	return apperror.New(apperror.KindConflict, "%s", msg)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func page[T any](items []T, pageNum, size int) []T {
	if size <= 0 {
		return items
	}
	start := (max(pageNum, 1) - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}
