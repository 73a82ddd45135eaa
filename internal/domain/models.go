// Package domain defines the persistence models for product sessions, their
// per-step conversations, the user-level placements cache and per-user
// attempt overrides. These types are mapped with GORM and form the core data
// layer of the alignment backend.
package domain

import (
	"time"

	"github.com/tbourn/go-alignment-backend/internal/placements"
)

// Session is one attempt of a user at a product. Versions of the same
// (user, product) pair form a lineage linked by ParentSessionID; exactly one
// of them is flagged IsLatestVersion.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID / ProductSlug: owner and product; every query filters by UserID.
//   - Version: starts at 1, unique within (user, product).
//   - ParentSessionID: the immediately preceding version, nil for version 1.
//   - CurrentStep / CurrentSection: wizard position, both >= 1.
//   - Placements: JSON document, NULL until seeded or uploaded.
//   - PlacementsConfirmed: true only after the user approved non-empty placements.
//   - IsComplete / CompletedAt / DeliverableContent: set together on completion.
type Session struct {
	ID                  string                 `json:"id"                    gorm:"type:char(36);primaryKey"`
	UserID              string                 `json:"user_id"               gorm:"type:varchar(64);not null;index:idx_sessions_user_created,priority:1;uniqueIndex:ux_sessions_user_product_version,priority:1"`
	ProductSlug         string                 `json:"product_slug"          gorm:"type:varchar(128);not null;uniqueIndex:ux_sessions_user_product_version,priority:2"`
	Version             int                    `json:"version"               gorm:"not null;uniqueIndex:ux_sessions_user_product_version,priority:3;check:version >= 1"`
	ParentSessionID     *string                `json:"parent_session_id"     gorm:"type:char(36);uniqueIndex:ux_sessions_parent"`
	CurrentStep         int                    `json:"current_step"          gorm:"not null;check:current_step >= 1"`
	CurrentSection      int                    `json:"current_section"       gorm:"not null;check:current_section >= 1"`
	TotalSteps          int                    `json:"total_steps"           gorm:"not null"`
	Placements          *placements.Placements `json:"placements"            gorm:"type:text"`
	PlacementsConfirmed bool                   `json:"placements_confirmed"  gorm:"not null"`
	IsComplete          bool                   `json:"is_complete"           gorm:"not null"`
	CompletedAt         *time.Time             `json:"completed_at"`
	DeliverableContent  *string                `json:"deliverable_content"   gorm:"type:text"`
	IsLatestVersion     bool                   `json:"is_latest_version"     gorm:"not null"`
	CreatedAt           time.Time              `json:"created_at"            gorm:"index:idx_sessions_user_created,priority:2"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "product_sessions" }

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message kinds. Only user messages of kind KindFollowUp count against a
// step's follow-up allowance.
const (
	KindAnswer        = "answer"
	KindInsight       = "insight"
	KindFollowUp      = "follow_up"
	KindFollowUpReply = "follow_up_reply"
)

// Conversation groups the messages exchanged on one step of a session.
// There is at most one conversation per (session, step).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionID / StepNumber: owning session and 1-based step (unique pair).
//   - CreatedAt / UpdatedAt: timestamps; UpdatedAt moves on every append.
//   - Session: FK association, cascade on delete.
type Conversation struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SessionID  string    `json:"session_id"  gorm:"type:char(36);not null;uniqueIndex:ux_conversations_session_step,priority:1"`
	StepNumber int       `json:"step_number" gorm:"not null;uniqueIndex:ux_conversations_session_step,priority:2;check:step_number >= 1"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// StepMessage is one entry of a step conversation: the user's answer, an
// assistant insight, a follow-up question or its reply.
type StepMessage struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	Role           string    `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Kind           string    `json:"kind"            gorm:"type:varchar(32);not null;check:kind IN ('answer','insight','follow_up','follow_up_reply')"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for StepMessage.
func (StepMessage) TableName() string { return "conversation_messages" }

// UserProfile caches the user's most recently confirmed placements so they
// can seed a session when no prior confirmed session exists.
type UserProfile struct {
	UserID              string                 `json:"user_id"               gorm:"type:varchar(64);primaryKey"`
	Placements          *placements.Placements `json:"placements"            gorm:"type:text"`
	PlacementsConfirmed bool                   `json:"placements_confirmed"  gorm:"not null"`
	PlacementsUpdatedAt *time.Time             `json:"placements_updated_at"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// ProductAccess holds a per-user, per-product free-attempt override.
type ProductAccess struct {
	UserID            string    `json:"user_id"             gorm:"type:varchar(64);primaryKey"`
	ProductSlug       string    `json:"product_slug"        gorm:"type:varchar(128);primaryKey"`
	FreeAttemptsLimit *int      `json:"free_attempts_limit"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for ProductAccess.
func (ProductAccess) TableName() string { return "product_access" }
