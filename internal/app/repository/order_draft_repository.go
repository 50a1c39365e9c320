package repository

import (
	"encoding/json"
	"fmt"

	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/pkg/logger"
	"gorm.io/gorm"
)

// OrderDraftRepository keeps checkout drafts so a confirmation can be shown
// even when the placed order cannot be read back.
type OrderDraftRepository interface {
	Save(sessionID string, draft *model.OrderDraft) (*model.OrderDraftRecord, error)
	AttachOrder(recordID uint, orderID string) error
	FindByOrderID(sessionID, orderID string) (*model.OrderDraft, error)
	FindLatest(sessionID string) (*model.OrderDraft, error)
	DeleteBySession(sessionID string) error
}

type orderDraftRepository struct {
	db *gorm.DB
}

func NewOrderDraftRepository(db *gorm.DB) OrderDraftRepository {
	return &orderDraftRepository{db: db}
}

func (r *orderDraftRepository) Save(sessionID string, draft *model.OrderDraft) (*model.OrderDraftRecord, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encode order draft: %w", err)
	}

	record := &model.OrderDraftRecord{
		SessionID: sessionID,
		Payload:   string(payload),
	}
	if err := r.db.Create(record).Error; err != nil {
		logger.Error("Failed to save order draft", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	logger.Debug("Order draft saved", map[string]interface{}{
		"draft_id":   record.ID,
		"session_id": sessionID,
		"items":      len(draft.Items),
	})
	return record, nil
}

func (r *orderDraftRepository) AttachOrder(recordID uint, orderID string) error {
	result := r.db.Model(&model.OrderDraftRecord{}).
		Where("id = ?", recordID).
		Update("order_id", orderID)
	if result.Error != nil {
		logger.Error("Failed to attach order to draft", result.Error, map[string]interface{}{
			"draft_id": recordID,
			"order_id": orderID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderDraftRepository) FindByOrderID(sessionID, orderID string) (*model.OrderDraft, error) {
	var record model.OrderDraftRecord
	err := r.db.Where("session_id = ? AND order_id = ?", sessionID, orderID).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return decodeDraft(&record)
}

func (r *orderDraftRepository) FindLatest(sessionID string) (*model.OrderDraft, error) {
	var record model.OrderDraftRecord
	err := r.db.Where("session_id = ?", sessionID).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return decodeDraft(&record)
}

func (r *orderDraftRepository) DeleteBySession(sessionID string) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.OrderDraftRecord{}).Error; err != nil {
		logger.Error("Failed to delete order drafts", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	return nil
}

func decodeDraft(record *model.OrderDraftRecord) (*model.OrderDraft, error) {
	var draft model.OrderDraft
	if err := json.Unmarshal([]byte(record.Payload), &draft); err != nil {
		return nil, fmt.Errorf("decode order draft %d: %w", record.ID, err)
	}
	return &draft, nil
}
