package persistent

import (
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/model"
)

func ToCreatorEntity(m *model.CreatorModel) *entity.Creator {
	if m == nil {
		return nil
	}

	return &entity.Creator{
		ID:               m.ID,
		Username:         m.Username,
		DisplayName:      m.DisplayName,
		TotalEarnings:    m.TotalEarnings,
		AvailableBalance: m.AvailableBalance,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToCreatorModel(e *entity.Creator) *model.CreatorModel {
	if e == nil {
		return nil
	}

	return &model.CreatorModel{
		ID:               e.ID,
		Username:         e.Username,
		DisplayName:      e.DisplayName,
		TotalEarnings:    e.TotalEarnings,
		AvailableBalance: e.AvailableBalance,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func ToTransactionEntity(m *model.TransactionModel) *entity.Transaction {
	if m == nil {
		return nil
	}

	return &entity.Transaction{
		ID:               m.ID,
		CreatorID:        m.CreatorID,
		Amount:           m.Amount,
		Type:             entity.TransactionType(m.Type),
		Status:           entity.TransactionStatus(m.Status),
		PaymentReference: m.PaymentReference,
		IdempotencyKey:   m.IdempotencyKey,
		AuthorizationURL: m.AuthorizationURL,
		SupporterName:    m.SupporterName,
		Message:          m.Message,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToTransactionModel(e *entity.Transaction) *model.TransactionModel {
	if e == nil {
		return nil
	}

	return &model.TransactionModel{
		ID:               e.ID,
		CreatorID:        e.CreatorID,
		Amount:           e.Amount,
		Type:             string(e.Type),
		Status:           string(e.Status),
		PaymentReference: e.PaymentReference,
		IdempotencyKey:   e.IdempotencyKey,
		AuthorizationURL: e.AuthorizationURL,
		SupporterName:    e.SupporterName,
		Message:          e.Message,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}
