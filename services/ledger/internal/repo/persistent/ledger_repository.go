package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is the ledger store. Reads run on the pool, balance
// mutations run inside InTx where rows are locked FOR UPDATE.
type LedgerRepository interface {
	GetCreator(ctx context.Context, id string) (*entity.Creator, error)
	GetCreatorByUsername(ctx context.Context, username string) (*entity.Creator, error)
	CreateCreator(ctx context.Context, creator *entity.Creator) error
	ListCreatorIDs(ctx context.Context) ([]string, error)

	GetTransaction(ctx context.Context, id string) (*entity.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*entity.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, creatorID, key string) (*entity.Transaction, error)
	ListTransactions(ctx context.Context, creatorID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error)
	ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*entity.Transaction, error)

	// InsertTransaction stores a row without touching balances. Used for
	// pending tip claims only.
	InsertTransaction(ctx context.Context, tx *entity.Transaction) error
	SetAuthorizationURL(ctx context.Context, id, url string) error
	DeletePendingTransaction(ctx context.Context, id string) error

	InTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of operations available inside one database transaction.
type LedgerTx interface {
	LockCreator(id string) (*entity.Creator, error)
	LockTransaction(id string) (*entity.Transaction, error)
	LockTransactionByReference(reference string) (*entity.Transaction, error)
	InsertTransaction(tx *entity.Transaction) error
	UpdateTransaction(tx *entity.Transaction) error
	AdjustBalances(creatorID string, earnings, available decimal.Decimal) (*entity.Creator, error)
	SetBalances(creatorID string, balances entity.Balances) error
	SumBalances(creatorID string) (entity.Balances, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetCreator(ctx context.Context, id string) (*entity.Creator, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrCreatorNotFound
	}
	var creatorModel model.CreatorModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&creatorModel).Error; err != nil {
		return nil, translate(err, entity.ErrCreatorNotFound)
	}
	return ToCreatorEntity(&creatorModel), nil
}

func (r *ledgerRepository) GetCreatorByUsername(ctx context.Context, username string) (*entity.Creator, error) {
	var creatorModel model.CreatorModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&creatorModel).Error; err != nil {
		return nil, translate(err, entity.ErrCreatorNotFound)
	}
	return ToCreatorEntity(&creatorModel), nil
}

func (r *ledgerRepository) CreateCreator(ctx context.Context, creator *entity.Creator) error {
	creatorModel := ToCreatorModel(creator)
	if err := r.db.WithContext(ctx).Create(creatorModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entity.ErrCreatorExists
		}
		return err
	}
	*creator = *ToCreatorEntity(creatorModel)
	return nil
}

func (r *ledgerRepository) ListCreatorIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.CreatorModel{}).Order("created_at").Pluck("id", &ids).Error
	return ids, err
}

func (r *ledgerRepository) GetTransaction(ctx context.Context, id string) (*entity.Transaction, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrTransactionNotFound
	}
	var txModel model.TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&txModel).Error; err != nil {
		return nil, translate(err, entity.ErrTransactionNotFound)
	}
	return ToTransactionEntity(&txModel), nil
}

func (r *ledgerRepository) GetTransactionByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	if !validReference(reference) {
		return nil, entity.ErrTransactionNotFound
	}
	var txModel model.TransactionModel
	if err := r.db.WithContext(ctx).Where("payment_reference = ?", reference).First(&txModel).Error; err != nil {
		return nil, translate(err, entity.ErrTransactionNotFound)
	}
	return ToTransactionEntity(&txModel), nil
}

func (r *ledgerRepository) FindByIdempotencyKey(ctx context.Context, creatorID, key string) (*entity.Transaction, error) {
	creatorID, ok := canonicalID(creatorID)
	if !ok {
		return nil, nil
	}
	var txModel model.TransactionModel
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND idempotency_key = ?", creatorID, key).
		First(&txModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToTransactionEntity(&txModel), nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, creatorID string, filter entity.TransactionFilter, limit, offset int) ([]*entity.Transaction, int64, error) {
	creatorID, ok := canonicalID(creatorID)
	if !ok {
		return []*entity.Transaction{}, 0, nil
	}
	query := r.db.WithContext(ctx).Model(&model.TransactionModel{}).Where("creator_id = ?", creatorID)
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txModels []model.TransactionModel
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&txModels).Error; err != nil {
		return nil, 0, err
	}
	return toTransactionEntities(txModels), total, nil
}

func (r *ledgerRepository) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]*entity.Transaction, error) {
	var txModels []model.TransactionModel
	query := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", string(entity.TransactionTypeWithdrawal), string(entity.TransactionStatusPending)).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toTransactionEntities(txModels), nil
}

func (r *ledgerRepository) InsertTransaction(ctx context.Context, tx *entity.Transaction) error {
	return insertTransaction(r.db.WithContext(ctx), tx)
}

func (r *ledgerRepository) SetAuthorizationURL(ctx context.Context, id, url string) error {
	return r.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"authorization_url": url, "updated_at": time.Now()}).Error
}

func (r *ledgerRepository) DeletePendingTransaction(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, string(entity.TransactionStatusPending)).
		Delete(&model.TransactionModel{}).Error
}

func (r *ledgerRepository) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx})
	})
}

type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) LockCreator(id string) (*entity.Creator, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrCreatorNotFound
	}
	var creatorModel model.CreatorModel
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&creatorModel).Error
	if err != nil {
		return nil, translate(err, entity.ErrCreatorNotFound)
	}
	return ToCreatorEntity(&creatorModel), nil
}

func (t *ledgerTx) LockTransaction(id string) (*entity.Transaction, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, entity.ErrTransactionNotFound
	}
	var txModel model.TransactionModel
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&txModel).Error
	if err != nil {
		return nil, translate(err, entity.ErrTransactionNotFound)
	}
	return ToTransactionEntity(&txModel), nil
}

func (t *ledgerTx) LockTransactionByReference(reference string) (*entity.Transaction, error) {
	if !validReference(reference) {
		return nil, entity.ErrTransactionNotFound
	}
	var txModel model.TransactionModel
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("payment_reference = ?", reference).First(&txModel).Error
	if err != nil {
		return nil, translate(err, entity.ErrTransactionNotFound)
	}
	return ToTransactionEntity(&txModel), nil
}

func (t *ledgerTx) InsertTransaction(tx *entity.Transaction) error {
	return insertTransaction(t.db, tx)
}

func (t *ledgerTx) UpdateTransaction(tx *entity.Transaction) error {
	return t.db.Model(&model.TransactionModel{}).Where("id = ?", tx.ID).Updates(map[string]interface{}{
		"status":            string(tx.Status),
		"amount":            tx.Amount,
		"supporter_name":    tx.SupporterName,
		"message":           tx.Message,
		"authorization_url": tx.AuthorizationURL,
		"updated_at":        time.Now(),
	}).Error
}

func (t *ledgerTx) AdjustBalances(creatorID string, earnings, available decimal.Decimal) (*entity.Creator, error) {
	creatorID, ok := canonicalID(creatorID)
	if !ok {
		return nil, entity.ErrCreatorNotFound
	}
	var creatorModel model.CreatorModel
	err := t.db.Model(&creatorModel).
		Clauses(clause.Returning{}).
		Where("id = ?", creatorID).
		Updates(map[string]interface{}{
			"total_earnings":    clause.Expr{SQL: "total_earnings + ?", Vars: []interface{}{earnings}},
			"available_balance": clause.Expr{SQL: "available_balance + ?", Vars: []interface{}{available}},
			"updated_at":        time.Now(),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("adjust balances: %w", err)
	}
	if creatorModel.ID == "" {
		return nil, entity.ErrCreatorNotFound
	}
	return ToCreatorEntity(&creatorModel), nil
}

func (t *ledgerTx) SetBalances(creatorID string, balances entity.Balances) error {
	return t.db.Model(&model.CreatorModel{}).Where("id = ?", creatorID).Updates(map[string]interface{}{
		"total_earnings":    balances.TotalEarnings,
		"available_balance": balances.AvailableBalance,
		"updated_at":        time.Now(),
	}).Error
}

// SumBalances derives balances from the ledger rows. Withdrawals count in
// every status: the hold is applied on request and a decline is reversed by
// an explicit refund row.
func (t *ledgerTx) SumBalances(creatorID string) (entity.Balances, error) {
	var row struct {
		TotalEarnings    decimal.Decimal
		AvailableBalance decimal.Decimal
	}
	err := t.db.Model(&model.TransactionModel{}).
		Select(`COALESCE(SUM(CASE WHEN type = 'tip' AND status = 'completed' THEN amount ELSE 0 END), 0) AS total_earnings,
			COALESCE(SUM(CASE
				WHEN type IN ('tip', 'refund') AND status = 'completed' THEN amount
				WHEN type = 'withdrawal' THEN amount
				ELSE 0 END), 0) AS available_balance`).
		Where("creator_id = ?", creatorID).
		Scan(&row).Error
	if err != nil {
		return entity.Balances{}, err
	}
	return entity.Balances{TotalEarnings: row.TotalEarnings, AvailableBalance: row.AvailableBalance}, nil
}

func insertTransaction(db *gorm.DB, tx *entity.Transaction) error {
	txModel := ToTransactionModel(tx)
	if err := db.Create(txModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entity.ErrDuplicateTransaction
		}
		return err
	}
	*tx = *ToTransactionEntity(txModel)
	return nil
}

func toTransactionEntities(models []model.TransactionModel) []*entity.Transaction {
	transactions := make([]*entity.Transaction, len(models))
	for i := range models {
		transactions[i] = ToTransactionEntity(&models[i])
	}
	return transactions
}

// canonicalID parses an id the way Postgres would cast it to uuid, so
// malformed ids never reach a statement.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func validReference(reference string) bool {
	return reference != "" && utf8.RuneCountInString(reference) <= entity.MaxReferenceLength
}

func translate(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
