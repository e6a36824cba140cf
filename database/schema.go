package database

import (
	"context"
	"fmt"
	"log"
	"time"
)

// schemaStatements выполняются по порядку при старте сервера.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		visitor_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		task_status TEXT NOT NULL DEFAULT 'pending',
		topic TEXT,
		last_message_at TIMESTAMPTZ,
		unread_by_visitor INTEGER NOT NULL DEFAULT 0,
		unread_by_staff INTEGER NOT NULL DEFAULT 0,
		queue_position INTEGER,
		queue_wait_seconds INTEGER,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id),
		sender TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'text',
		content TEXT NOT NULL,
		thumbnail TEXT,
		file_name TEXT,
		file_size BIGINT,
		mime_type TEXT,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages (session_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_queue ON sessions (status, task_status, created_at)`,
	`CREATE TABLE IF NOT EXISTS todos (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate создает таблицы, если они не существуют.
func Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("Migrate: %w", err)
		}
	}

	log.Println("[database] схема проверена")
	return nil
}
