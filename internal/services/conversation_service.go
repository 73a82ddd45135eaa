// Package services – ConversationService
//
// ConversationService owns the per-step conversation log of a session: the
// user's answer, assistant insights and replies to follow-up questions.
// Follow-up questions themselves are recorded through
// SessionService.RecordFollowUp, which enforces the step's allowance.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// session/step identifiers and pagination parameters.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-alignment-backend/internal/domain"
	"github.com/tbourn/go-alignment-backend/internal/repo"
)

// DefaultMaxMessageRunes bounds message content when no limit is configured.
const DefaultMaxMessageRunes = 2000

// appendable lists the (role, kind) pairs Append accepts.
var appendable = map[string]map[string]bool{
	domain.RoleUser:      {domain.KindAnswer: true},
	domain.RoleAssistant: {domain.KindInsight: true, domain.KindFollowUpReply: true},
}

// ConversationService coordinates step conversation persistence.
type ConversationService struct {
	DB *gorm.DB
	// MaxRunes bounds message content; <= 0 means DefaultMaxMessageRunes.
	MaxRunes int
	Retries  int
}

// NewConversationService wires a ConversationService with default limits.
func NewConversationService(db *gorm.DB, maxRunes int) *ConversationService {
	return &ConversationService{DB: db, MaxRunes: maxRunes, Retries: 5}
}

// cleanContent trims content and enforces the rune limit.
func cleanContent(content string, maxRunes int) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}
	if maxRunes <= 0 {
		maxRunes = DefaultMaxMessageRunes
	}
	if utf8.RuneCountInString(content) > maxRunes {
		return "", ErrMessageTooLong
	}
	return content, nil
}

// checkStepWritable rejects writes to a step the session cannot take input on.
func checkStepWritable(sess *domain.Session, step int) error {
	if NeedsConfirmation(sess) {
		return ErrConfirmationRequired
	}
	if sess.IsComplete {
		return ErrAlreadyComplete
	}
	if step < 1 || step > sess.CurrentStep {
		return ErrStepOutOfRange
	}
	return nil
}

// Append adds a message to the conversation of step. The step must already
// be reached and the session must be past the confirmation gate.
func (s *ConversationService) Append(ctx context.Context, userID, sessionID string, step int, role, kind, content string) (*domain.StepMessage, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("step", step),
			attribute.String("message.kind", kind),
		),
	)
	defer span.End()

	if !appendable[role][kind] {
		return nil, ErrInvalidInput
	}
	content, err := cleanContent(content, s.MaxRunes)
	if err != nil {
		return nil, err
	}

	var out *domain.StepMessage
	err = repo.WithRetry(ctx, s.Retries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			sess, err := repo.GetSession(ctx, tx, sessionID, userID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSessionNotFound
			}
			if err != nil {
				return err
			}
			if err := checkStepWritable(sess, step); err != nil {
				return err
			}
			conv, err := repo.EnsureConversation(ctx, tx, sessionID, step)
			if err != nil {
				return err
			}
			m, err := repo.AppendMessage(ctx, tx, conv.ID, role, kind, content)
			if err != nil {
				return err
			}
			out = m
			return nil
		})
	})
	return out, err
}

// ListPage returns a page of the step's messages, oldest first, with the total.
func (s *ConversationService) ListPage(ctx context.Context, userID, sessionID string, step, page, pageSize int) ([]domain.StepMessage, int64, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("step", step),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	sess, err := repo.GetSession(ctx, s.DB, sessionID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, 0, ErrSessionNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	if step < 1 || step > sess.TotalSteps {
		return nil, 0, ErrStepOutOfRange
	}

	total, err := repo.CountStepMessages(ctx, s.DB, sessionID, step, "", "")
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.StepMessage{}, 0, nil
	}
	items, err := repo.ListStepMessagesPage(ctx, s.DB, sessionID, step, offset, pageSize)
	return items, total, err
}
