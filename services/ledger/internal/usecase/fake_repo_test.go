package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errCheckViolation = errors.New("check constraint violated: available_balance >= 0")

// fakeLedgerRepo is an in-memory ledger store. Lock* calls take per-row
// mutexes held until the surrounding InTx returns, and a failed InTx replays
// its undo log, mirroring FOR UPDATE plus rollback.
type fakeLedgerRepo struct {
	mu           sync.Mutex
	creators     map[string]*entity.Creator
	transactions map[string]*entity.Transaction
	seq          int

	lockMu   sync.Mutex
	rowLocks map[string]*sync.Mutex

	// failure injection
	failAdjust error
	txCalls    int
}

var _ persistent.LedgerRepository = (*fakeLedgerRepo)(nil)

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		creators:     make(map[string]*entity.Creator),
		transactions: make(map[string]*entity.Transaction),
		rowLocks:     make(map[string]*sync.Mutex),
	}
}

func (r *fakeLedgerRepo) addCreator(id string, available, earnings string) *entity.Creator {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &entity.Creator{
		ID:               id,
		Username:         id,
		TotalEarnings:    decimal.RequireFromString(earnings),
		AvailableBalance: decimal.RequireFromString(available),
		CreatedAt:        time.Now(),
	}
	r.creators[id] = c
	return c
}

func (r *fakeLedgerRepo) creator(id string) entity.Creator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.creators[id]
}

func (r *fakeLedgerRepo) transactionCount(creatorID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.transactions {
		if t.CreatorID == creatorID {
			n++
		}
	}
	return n
}

func (r *fakeLedgerRepo) rowLock(key string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	l, ok := r.rowLocks[key]
	if !ok {
		l = &sync.Mutex{}
		r.rowLocks[key] = l
	}
	return l
}

func (r *fakeLedgerRepo) GetCreator(ctx context.Context, id string) (*entity.Creator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creators[id]
	if !ok {
		return nil, entity.ErrCreatorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeLedgerRepo) GetCreatorByUsername(ctx context.Context, username string) (*entity.Creator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.creators {
		if c.Username == username {
			cp := *c
			return &cp, nil
		}
	}
	return nil, entity.ErrCreatorNotFound
}

func (r *fakeLedgerRepo) CreateCreator(ctx context.Context, creator *entity.Creator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.creators {
		if c.Username == creator.Username {
			return entity.ErrCreatorExists
		}
	}
	creator.ID = uuid.New().String()
	creator.CreatedAt = time.Now()
	cp := *creator
	r.creators[creator.ID] = &cp
	return nil
}

func (r *fakeLedgerRepo) ListCreatorIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.creators))
	for id := range r.creators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeLedgerRepo) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, entity.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeLedgerRepo) GetTransactionByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.byReference(reference); t != nil {
		cp := *t
		return &cp, nil
	}
	return nil, entity.ErrTransactionNotFound
}

func (r *fakeLedgerRepo) FindByIdempotencyKey(ctx context.Context, creatorID, key string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transactions {
		if t.CreatorID == creatorID && t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) ListTransactions(ctx context.Context, creatorID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.transactions {
		if t.CreatorID != creatorID ||
			(filter.Type != "" && t.Type != filter.Type) ||
			(filter.Status != "" && t.Status != filter.Status) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	return page(out, limit, offset), total, nil
}

func (r *fakeLedgerRepo) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.transactions {
		if t.Type == entity.TransactionTypeWithdrawal && t.Status == entity.TransactionStatusPending {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *fakeLedgerRepo) InsertTransaction(ctx context.Context, tx *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(tx, nil)
}

func (r *fakeLedgerRepo) SetAuthorizationURL(ctx context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transactions[id]; ok {
		t.AuthorizationURL = url
	}
	return nil
}

func (r *fakeLedgerRepo) DeletePendingTransaction(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transactions[id]; ok && t.Status == entity.TransactionStatusPending {
		delete(r.transactions, id)
	}
	return nil
}

func (r *fakeLedgerRepo) InTx(ctx context.Context, fn func(tx persistent.LedgerTx) error) error {
	r.mu.Lock()
	r.txCalls++
	r.mu.Unlock()

	ftx := &fakeTx{repo: r}
	err := fn(ftx)
	if err != nil {
		r.mu.Lock()
		for i := len(ftx.undo) - 1; i >= 0; i-- {
			ftx.undo[i]()
		}
		r.mu.Unlock()
	}
	for i := len(ftx.held) - 1; i >= 0; i-- {
		ftx.held[i].Unlock()
	}
	return err
}

func (r *fakeLedgerRepo) byReference(reference string) *entity.Transaction {
	for _, t := range r.transactions {
		if t.PaymentReference != nil && *t.PaymentReference == reference {
			return t
		}
	}
	return nil
}

// insertLocked enforces the unique indexes. Caller holds r.mu.
func (r *fakeLedgerRepo) insertLocked(tx *entity.Transaction, undo *[]func()) error {
	if _, ok := r.creators[tx.CreatorID]; !ok {
		return fmt.Errorf("foreign key violation: creator %s", tx.CreatorID)
	}
	for _, t := range r.transactions {
		if tx.PaymentReference != nil && t.PaymentReference != nil && *t.PaymentReference == *tx.PaymentReference {
			return entity.ErrDuplicateTransaction
		}
		if tx.IdempotencyKey != nil && t.IdempotencyKey != nil && t.CreatorID == tx.CreatorID && *t.IdempotencyKey == *tx.IdempotencyKey {
			return entity.ErrDuplicateTransaction
		}
	}
	r.seq++
	tx.ID = uuid.New().String()
	tx.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Microsecond)
	tx.UpdatedAt = tx.CreatedAt
	cp := *tx
	r.transactions[tx.ID] = &cp
	if undo != nil {
		id := tx.ID
		*undo = append(*undo, func() { delete(r.transactions, id) })
	}
	return nil
}

type fakeTx struct {
	repo *fakeLedgerRepo
	held []*sync.Mutex
	undo []func()
}

func (t *fakeTx) lock(key string) {
	l := t.repo.rowLock(key)
	l.Lock()
	t.held = append(t.held, l)
}

func (t *fakeTx) LockCreator(id string) (*entity.Creator, error) {
	t.repo.mu.Lock()
	_, ok := t.repo.creators[id]
	t.repo.mu.Unlock()
	if !ok {
		return nil, entity.ErrCreatorNotFound
	}
	t.lock("creator:" + id)
	return t.repo.GetCreator(context.Background(), id)
}

func (t *fakeTx) LockTransaction(id string) (*entity.Transaction, error) {
	if _, err := t.repo.GetTransaction(context.Background(), id); err != nil {
		return nil, err
	}
	t.lock("tx:" + id)
	return t.repo.GetTransaction(context.Background(), id)
}

func (t *fakeTx) LockTransactionByReference(reference string) (*entity.Transaction, error) {
	row, err := t.repo.GetTransactionByReference(context.Background(), reference)
	if err != nil {
		return nil, err
	}
	t.lock("tx:" + row.ID)
	return t.repo.GetTransaction(context.Background(), row.ID)
}

func (t *fakeTx) InsertTransaction(tx *entity.Transaction) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	return t.repo.insertLocked(tx, &t.undo)
}

func (t *fakeTx) UpdateTransaction(tx *entity.Transaction) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	stored, ok := t.repo.transactions[tx.ID]
	if !ok {
		return entity.ErrTransactionNotFound
	}
	prev := *stored
	t.undo = append(t.undo, func() { *stored = prev })
	stored.Status = tx.Status
	stored.Amount = tx.Amount
	stored.SupporterName = tx.SupporterName
	stored.Message = tx.Message
	stored.AuthorizationURL = tx.AuthorizationURL
	stored.UpdatedAt = time.Now()
	return nil
}

func (t *fakeTx) AdjustBalances(creatorID string, earnings, available decimal.Decimal) (*entity.Creator, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.failAdjust != nil {
		return nil, t.repo.failAdjust
	}
	c, ok := t.repo.creators[creatorID]
	if !ok {
		return nil, entity.ErrCreatorNotFound
	}
	next := c.AvailableBalance.Add(available)
	if next.IsNegative() {
		return nil, errCheckViolation
	}
	prev := *c
	t.undo = append(t.undo, func() { *c = prev })
	c.TotalEarnings = c.TotalEarnings.Add(earnings)
	c.AvailableBalance = next
	cp := *c
	return &cp, nil
}

func (t *fakeTx) SetBalances(creatorID string, balances entity.Balances) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	c, ok := t.repo.creators[creatorID]
	if !ok {
		return entity.ErrCreatorNotFound
	}
	prev := *c
	t.undo = append(t.undo, func() { *c = prev })
	c.TotalEarnings = balances.TotalEarnings
	c.AvailableBalance = balances.AvailableBalance
	return nil
}

func (t *fakeTx) SumBalances(creatorID string) (entity.Balances, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	var b entity.Balances
	for _, tx := range t.repo.transactions {
		if tx.CreatorID != creatorID {
			continue
		}
		switch {
		case tx.Type == entity.TransactionTypeTip && tx.Status == entity.TransactionStatusCompleted:
			b.TotalEarnings = b.TotalEarnings.Add(tx.Amount)
			b.AvailableBalance = b.AvailableBalance.Add(tx.Amount)
		case tx.Type == entity.TransactionTypeRefund && tx.Status == entity.TransactionStatusCompleted:
			b.AvailableBalance = b.AvailableBalance.Add(tx.Amount)
		case tx.Type == entity.TransactionTypeWithdrawal:
			b.AvailableBalance = b.AvailableBalance.Add(tx.Amount)
		}
	}
	return b, nil
}

func page(items []*entity.Transaction, limit, offset int) []*entity.Transaction {
	if offset >= len(items) {
		return []*entity.Transaction{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
