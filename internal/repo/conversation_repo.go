// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for step
// conversations and their messages.
//
// Callers are expected to have checked session ownership already; these
// functions key on session/conversation ids only.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-alignment-backend/internal/domain"
)

// EnsureConversation returns the conversation for (sessionID, step), creating
// it when missing. Concurrent creators converge on the same row through the
// unique (session_id, step_number) index.
func EnsureConversation(ctx context.Context, db *gorm.DB, sessionID string, step int) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		StepNumber: step,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "step_number"}},
			DoNothing: true,
		}).
		Create(c).Error
	if err != nil {
		return nil, err
	}
	return GetConversation(ctx, db, sessionID, step)
}

// GetConversation fetches the conversation for (sessionID, step).
func GetConversation(ctx context.Context, db *gorm.DB, sessionID string, step int) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("session_id = ? AND step_number = ?", sessionID, step).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendMessage inserts a message into conversationID and bumps the
// conversation's updated_at.
func AppendMessage(ctx context.Context, db *gorm.DB, conversationID, role, kind, content string) (*domain.StepMessage, error) {
	now := time.Now().UTC()
	m := &domain.StepMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Kind:           kind,
		Content:        content,
		CreatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", now).Error
	return m, err
}

// CountStepMessages counts the messages of (sessionID, step). A non-empty
// role or kind narrows the count. A step without a conversation counts 0.
func CountStepMessages(ctx context.Context, db *gorm.DB, sessionID string, step int, role, kind string) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.StepMessage{}).
		Joins("JOIN conversations ON conversations.id = conversation_messages.conversation_id").
		Where("conversations.session_id = ? AND conversations.step_number = ?", sessionID, step)
	if role != "" {
		q = q.Where("conversation_messages.role = ?", role)
	}
	if kind != "" {
		q = q.Where("conversation_messages.kind = ?", kind)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListStepMessagesPage returns a page of (sessionID, step) messages ordered
// (created_at ASC, id ASC).
func ListStepMessagesPage(ctx context.Context, db *gorm.DB, sessionID string, step, offset, limit int) ([]domain.StepMessage, error) {
	var out []domain.StepMessage
	err := db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = conversation_messages.conversation_id").
		Where("conversations.session_id = ? AND conversations.step_number = ?", sessionID, step).
		Order("conversation_messages.created_at ASC, conversation_messages.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteConversations removes every conversation of sessionID and their
// messages.
func DeleteConversations(ctx context.Context, db *gorm.DB, sessionID string) error {
	ids := db.Model(&domain.Conversation{}).Select("id").Where("session_id = ?", sessionID)
	if err := db.WithContext(ctx).
		Where("conversation_id IN (?)", ids).
		Delete(&domain.StepMessage{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.Conversation{}).Error
}
