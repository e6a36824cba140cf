package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egor/deskchatserver/models"
)

// ─────────────────────────── AddMessage

// AddMessage записывает сообщение и в той же транзакции обновляет сессию:
// last_message_at, updated_at и счетчик непрочитанного противоположной
// стороны. Разрыв между вставкой и счетчиком невозможен.
func AddMessage(sessionID uuid.UUID, in models.MessageInput) (*models.Message, error) {
	if !models.ValidSender(in.Sender) {
		return nil, fmt.Errorf("AddMessage: неизвестный отправитель %q", in.Sender)
	}
	if in.Type == "" {
		in.Type = models.MessageText
	}
	if !models.ValidMessageType(in.Type) {
		return nil, fmt.Errorf("AddMessage: неизвестный тип %q", in.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// сессия существует?
	var ok bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sessions WHERE id=$1)", sessionID).Scan(&ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := time.Now()

	const ins = `
		INSERT INTO messages
		    (session_id, sender, type, content, thumbnail, file_name, file_size, mime_type, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,false,$9)
		RETURNING id`
	var msgID int64
	if err := tx.QueryRowContext(ctx, ins,
		sessionID, in.Sender, in.Type, in.Content,
		in.Thumbnail, in.FileName, in.FileSize, in.MimeType, now,
	).Scan(&msgID); err != nil {
		return nil, err
	}

	// Сообщение посетителя не прочитано сотрудниками, и наоборот.
	counter := "unread_by_staff"
	if in.Sender == models.SenderStaff {
		counter = "unread_by_visitor"
	}
	upd := fmt.Sprintf(
		"UPDATE sessions SET last_message_at=$1, updated_at=$1, %s=%s+1 WHERE id=$2",
		counter, counter,
	)
	if _, err := tx.ExecContext(ctx, upd, now, sessionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Message{
		ID:        msgID,
		SessionID: sessionID,
		Sender:    in.Sender,
		Type:      in.Type,
		Content:   in.Content,
		Thumbnail: in.Thumbnail,
		FileName:  in.FileName,
		FileSize:  in.FileSize,
		MimeType:  in.MimeType,
		Read:      false,
		CreatedAt: now,
	}, nil
}

// ─────────────────────────── ListMessages

// ListMessages возвращает страницу сообщений по курсору:
// id < before, ORDER BY id DESC, LIMIT n+1 — лишняя строка означает hasMore.
// before <= 0 — с самого свежего сообщения.
func ListMessages(sessionID uuid.UUID, before int64, limit int) (*models.MessagePage, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	const q = `
		SELECT id, sender, type, content, thumbnail, file_name, file_size, mime_type, read, created_at
		FROM messages
		WHERE session_id = $1 AND ($2 <= 0 OR id < $2)
		ORDER BY id DESC
		LIMIT $3`
	rows, err := DB.QueryContext(ctx, q, sessionID, before, limit+1)
	if err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows, sessionID)
	if err != nil {
		return nil, err
	}

	page, hasMore := pageFromRows(msgs, limit)
	resp := &models.MessagePage{Messages: page, HasMore: hasMore}
	if hasMore && len(page) > 0 {
		resp.NextCursor = page[0].ID
	}
	return resp, nil
}

// ListMessagesAfter возвращает сообщения с id > after по возрастанию —
// запрос polling-фолбэка виджета.
func ListMessagesAfter(sessionID uuid.UUID, after int64, limit int) ([]models.Message, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	const q = `
		SELECT id, sender, type, content, thumbnail, file_name, file_size, mime_type, read, created_at
		FROM messages
		WHERE session_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3`
	rows, err := DB.QueryContext(ctx, q, sessionID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("ListMessagesAfter: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows, sessionID)
}

// pageFromRows обрезает выборку LIMIT n+1 до страницы и разворачивает её
// по возрастанию ID. msgs приходят отсортированными по убыванию.
func pageFromRows(msgs []models.Message, limit int) ([]models.Message, bool) {
	hasMore := false
	if len(msgs) > limit {
		hasMore = true
		msgs = msgs[:limit]
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, hasMore
}

func scanMessages(rows *sql.Rows, sessionID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	for rows.Next() {
		var (
			m         models.Message
			thumbNull sql.NullString
			nameNull  sql.NullString
			sizeNull  sql.NullInt64
			mimeNull  sql.NullString
		)
		if err := rows.Scan(
			&m.ID, &m.Sender, &m.Type, &m.Content,
			&thumbNull, &nameNull, &sizeNull, &mimeNull,
			&m.Read, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanMessages: %w", err)
		}
		m.SessionID = sessionID
		m.Thumbnail = nullStringToPointer(thumbNull)
		m.FileName = nullStringToPointer(nameNull)
		m.FileSize = nullInt64ToPointer(sizeNull)
		m.MimeType = nullStringToPointer(mimeNull)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
