// Package memory is an in-process implementation of every stock repository.
// A transaction holds the store-wide mutex and restores a snapshot of the
// state when it fails, which gives the same all-or-nothing behaviour as the
// Postgres backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/uow"
)

type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	records      map[model.StockKey]*model.InventoryRecord
	movements    []model.InventoryMovement
	reservations []model.Reservation

	transfers     map[string]*model.TransferHeader
	transferLines map[string][]model.TransferLine

	opnames     map[string]*model.OpnameHeader
	opnameLines map[string][]model.OpnameLine

	receipts     map[string]*model.GoodReceiveHeader
	receiptItems map[string][]model.GoodReceiveItem

	locations   map[string]map[string]bool
	products    map[string]bool
	conversions map[[2]string]decimal.Decimal
}

func New() *Store {
	return &Store{state: &state{
		records:       make(map[model.StockKey]*model.InventoryRecord),
		transfers:     make(map[string]*model.TransferHeader),
		transferLines: make(map[string][]model.TransferLine),
		opnames:       make(map[string]*model.OpnameHeader),
		opnameLines:   make(map[string][]model.OpnameLine),
		receipts:      make(map[string]*model.GoodReceiveHeader),
		receiptItems:  make(map[string][]model.GoodReceiveItem),
		locations:     make(map[string]map[string]bool),
		products:      make(map[string]bool),
		conversions:   make(map[[2]string]decimal.Decimal),
	}}
}

func (s *state) clone() *state {
	c := &state{
		records:       make(map[model.StockKey]*model.InventoryRecord, len(s.records)),
		movements:     append([]model.InventoryMovement(nil), s.movements...),
		reservations:  append([]model.Reservation(nil), s.reservations...),
		transfers:     make(map[string]*model.TransferHeader, len(s.transfers)),
		transferLines: make(map[string][]model.TransferLine, len(s.transferLines)),
		opnames:       make(map[string]*model.OpnameHeader, len(s.opnames)),
		opnameLines:   make(map[string][]model.OpnameLine, len(s.opnameLines)),
		receipts:      make(map[string]*model.GoodReceiveHeader, len(s.receipts)),
		receiptItems:  make(map[string][]model.GoodReceiveItem, len(s.receiptItems)),
		locations:     make(map[string]map[string]bool, len(s.locations)),
		products:      make(map[string]bool, len(s.products)),
		conversions:   make(map[[2]string]decimal.Decimal, len(s.conversions)),
	}
	for k, v := range s.records {
		rec := *v
		c.records[k] = &rec
	}
	for k, v := range s.transfers {
		h := *v
		c.transfers[k] = &h
	}
	for k, v := range s.transferLines {
		c.transferLines[k] = append([]model.TransferLine(nil), v...)
	}
	for k, v := range s.opnames {
		h := *v
		c.opnames[k] = &h
	}
	for k, v := range s.opnameLines {
		c.opnameLines[k] = append([]model.OpnameLine(nil), v...)
	}
	for k, v := range s.receipts {
		h := *v
		c.receipts[k] = &h
	}
	for k, v := range s.receiptItems {
		c.receiptItems[k] = append([]model.GoodReceiveItem(nil), v...)
	}
	for k, v := range s.locations {
		slocs := make(map[string]bool, len(v))
		for sl := range v {
			slocs[sl] = true
		}
		c.locations[k] = slocs
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.conversions {
		c.conversions[k] = v
	}
	return c
}

type txKey struct{}

var _ uow.Transactor = (*Store)(nil)

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.state.clone()
	txCtx, hooks := uow.WithHooks(context.WithValue(ctx, txKey{}, true))
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				s.state = snapshot
				s.mu.Unlock()
				panic(p)
			}
		}()
		return fn(txCtx)
	}()
	if err != nil {
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	hooks.Run(ctx)
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// do runs fn against the state, taking the mutex unless ctx already owns it
// through an open transaction.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Seeding helpers for master data.

func (s *Store) AddLocation(locationID string, storageLocationIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slocs, ok := s.state.locations[locationID]
	if !ok {
		slocs = make(map[string]bool)
		s.state.locations[locationID] = slocs
	}
	for _, sl := range storageLocationIDs {
		slocs[sl] = true
	}
}

func (s *Store) AddProduct(productIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range productIDs {
		s.state.products[id] = true
	}
}

func (s *Store) AddConversion(fromUOM, toUOM string, factor decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.conversions[[2]string{fromUOM, toUOM}] = factor
}

// Repository views sharing the store's state.

func (s *Store) Ledger() *LedgerRepository            { return &LedgerRepository{s: s} }
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s: s} }
func (s *Store) Transfers() *TransferRepository       { return &TransferRepository{s: s} }
func (s *Store) Opnames() *OpnameRepository           { return &OpnameRepository{s: s} }
func (s *Store) Receipts() *ReceiveRepository         { return &ReceiveRepository{s: s} }
func (s *Store) MasterData() *MasterDataRepository    { return &MasterDataRepository{s: s} }

// page returns the slice bounds of a 1-based page; pageSize 0 means all.
func page(total, pageNum, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, total
	}
	if pageNum < 1 {
		pageNum = 1
	}
	start := (pageNum - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
