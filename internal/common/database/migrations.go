// internal/common/database/migrations.go
// Schema for every module, applied at startup

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email VARCHAR(255),
		phone VARCHAR(32),
		display_name VARCHAR(100) NOT NULL DEFAULT '',
		gender VARCHAR(16) NOT NULL DEFAULT '',
		age INTEGER,
		location VARCHAR(255),
		profile_photo_url TEXT,
		role VARCHAR(20) NOT NULL DEFAULT 'member',
		questionnaire_answers JSONB NOT NULL DEFAULT '{}',
		questionnaire_completed BOOLEAN NOT NULL DEFAULT FALSE,
		push_token TEXT,
		archived_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		member1_id TEXT NOT NULL REFERENCES users(id),
		member2_id TEXT NOT NULL REFERENCES users(id),
		stage VARCHAR(32) NOT NULL DEFAULT 'pending',
		compatibility_score INTEGER NOT NULL DEFAULT 0,
		matching_points JSONB NOT NULL DEFAULT '[]',
		member1_explanation TEXT,
		member2_explanation TEXT,
		explanation_source VARCHAR(16),
		payment_required BOOLEAN NOT NULL DEFAULT TRUE,
		member1_accepted_at TIMESTAMP WITH TIME ZONE,
		member2_accepted_at TIMESTAMP WITH TIME ZONE,
		payment_completed_at TIMESTAMP WITH TIME ZONE,
		payment_reference TEXT,
		virtual_meeting_scheduled_at TIMESTAMP WITH TIME ZONE,
		virtual_meeting_scheduled_for TIMESTAMP WITH TIME ZONE,
		virtual_meeting_completed_at TIMESTAMP WITH TIME ZONE,
		matchmaker_approved_at TIMESTAMP WITH TIME ZONE,
		matchmaker_approved_by TEXT,
		date_approved_at TIMESTAMP WITH TIME ZONE,
		date_approved_by TEXT,
		declined_at TIMESTAMP WITH TIME ZONE,
		declined_by TEXT,
		decline_reason TEXT,
		expired_at TIMESTAMP WITH TIME ZONE,
		sent_count INTEGER NOT NULL DEFAULT 0,
		last_sent_at TIMESTAMP WITH TIME ZONE,
		created_by TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_match_pair UNIQUE (member1_id, member2_id)
	)`,

	`CREATE TABLE IF NOT EXISTS match_events (
		id BIGSERIAL PRIMARY KEY,
		match_id UUID NOT NULL REFERENCES matches(id),
		event VARCHAR(32) NOT NULL,
		from_stage VARCHAR(32) NOT NULL,
		to_stage VARCHAR(32) NOT NULL,
		actor_id TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		collection VARCHAR(40) NOT NULL,
		recipient_id TEXT NOT NULL,
		match_id UUID,
		type VARCHAR(40) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		message TEXT NOT NULL,
		payload JSONB NOT NULL DEFAULT '{}',
		delivery_status VARCHAR(16) NOT NULL DEFAULT 'queued',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		delivered_channels TEXT[] NOT NULL DEFAULT '{}',
		claimed_at TIMESTAMP WITH TIME ZONE,
		delivered_at TIMESTAMP WITH TIME ZONE,
		viewed_at TIMESTAMP WITH TIME ZONE,
		read_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS decline_analytics (
		member_id TEXT PRIMARY KEY,
		total_declines INTEGER NOT NULL DEFAULT 0,
		monthly_declines JSONB NOT NULL DEFAULT '{}',
		reasons JSONB NOT NULL DEFAULT '{}',
		last_declined_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS match_suggestions (
		member_id TEXT NOT NULL,
		candidate_id TEXT NOT NULL,
		score NUMERIC(4,2) NOT NULL,
		compatible BOOLEAN NOT NULL,
		degraded BOOLEAN NOT NULL DEFAULT FALSE,
		reason TEXT,
		computed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (member_id, candidate_id)
	)`,

	`CREATE TABLE IF NOT EXISTS weekly_tips (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		short_description TEXT NOT NULL DEFAULT '',
		main_content TEXT NOT NULL DEFAULT '',
		why_this_matters TEXT NOT NULL DEFAULT '',
		quick_tips JSONB NOT NULL DEFAULT '[]',
		did_you_know TEXT NOT NULL DEFAULT '',
		weekly_challenge TEXT NOT NULL DEFAULT '',
		category VARCHAR(64) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		published_at TIMESTAMP WITH TIME ZONE,
		activated_at TIMESTAMP WITH TIME ZONE,
		created_by TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_users_questionnaire ON users(questionnaire_completed) WHERE archived_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_matches_member1 ON matches(member1_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_member2 ON matches(member2_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_stage ON matches(stage, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, collection, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_delivery ON notifications(delivery_status, created_at) WHERE delivery_status = 'queued'`,
	`CREATE INDEX IF NOT EXISTS idx_match_suggestions_score ON match_suggestions(member_id, score DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_weekly_tips_single_active ON weekly_tips ((true)) WHERE status = 'active'`,

	`ALTER TABLE notifications ADD COLUMN IF NOT EXISTS delivered_channels TEXT[] NOT NULL DEFAULT '{}'`,
}

// RunMigrations applies the schema. Statements are idempotent.
func RunMigrations(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	for i, migration := range migrations {
		log.Debug("running migration", zap.Int("step", i+1), zap.Int("total", len(migrations)))
		if _, err := db.ExecContext(ctx, migration); err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("migration %d failed: %w", i+1, err)
			}
			log.Debug("migration skipped (already exists)", zap.Int("step", i+1))
		}
	}
	return nil
}
