package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egor/deskchatserver/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrSessionNotFound возвращается, когда сессия не существует.
var ErrSessionNotFound = errors.New("сессия не найдена")

// ─────────────────────────── GetOrCreateSession

// GetOrCreateSession возвращает существующую сессию или создает новую.
// Клиент виджета может передать свой UUID (id != uuid.Nil); второй
// результат — true, если сессия была создана.
func GetOrCreateSession(id uuid.UUID, visitorName string) (*models.Session, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	if id != uuid.Nil {
		s, err := GetSession(id)
		if err != nil {
			return nil, false, err
		}
		if s != nil {
			return s, false, nil
		}
	} else {
		id = uuid.New()
	}

	now := time.Now()
	// два конкурирующих первых запроса виджета не должны падать
	const ins = `
		INSERT INTO sessions (id, visitor_name, status, task_status, created_at, updated_at)
		VALUES ($1, $2, 'active', 'pending', $3, $3)
		ON CONFLICT (id) DO NOTHING`
	if _, err := DB.ExecContext(ctx, ins, id, visitorName, now); err != nil {
		return nil, false, fmt.Errorf("GetOrCreateSession: %w", err)
	}

	s, err := GetSession(id)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// ─────────────────────────── GetSession

// GetSession возвращает сессию по ID или nil, если её нет.
func GetSession(id uuid.UUID) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	const q = `
		SELECT id, visitor_name, status, task_status, topic, last_message_at,
		       unread_by_visitor, unread_by_staff, queue_position, queue_wait_seconds,
		       created_at, updated_at
		FROM sessions
		WHERE id = $1`

	var (
		s         models.Session
		topicNull sql.NullString
		lastNull  sql.NullTime
		posNull   sql.NullInt64
		waitNull  sql.NullInt64
	)
	if err := DB.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.VisitorName, &s.Status, &s.TaskStatus, &topicNull, &lastNull,
		&s.UnreadByVisitor, &s.UnreadByStaff, &posNull, &waitNull,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("GetSession: %w", err)
	}
	s.Topic = nullStringToPointer(topicNull)
	s.LastMessageAt = nullTimeToPointer(lastNull)
	s.QueuePosition = nullIntToPointer(posNull)
	s.QueueWaitSeconds = nullIntToPointer(waitNull)
	return &s, nil
}

// ─────────────────────────── ListSessions

// ListSessions возвращает страницу сессий для консоли сотрудника вместе
// с последним сообщением каждой сессии. status == "" — без фильтра.
func ListSessions(status string, page, size int) ([]models.SessionResponse, int, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	// 1) общее количество
	var total int
	const countQ = `SELECT COUNT(*) FROM sessions WHERE ($1 = '' OR status = $1)`
	if err := DB.QueryRowContext(ctx, countQ, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListSessions count: %w", err)
	}

	// 2) сами сессии с последним сообщением
	const q = `
		SELECT
			s.id, s.visitor_name, s.status, s.task_status, s.topic, s.last_message_at,
			s.unread_by_visitor, s.unread_by_staff, s.queue_position, s.queue_wait_seconds,
			s.created_at, s.updated_at,
			l.id, l.sender, l.type, l.content, l.read, l.created_at
		FROM sessions s
		LEFT JOIN LATERAL (
			SELECT id, sender, type, content, read, created_at
			FROM messages
			WHERE session_id = s.id
			ORDER BY id DESC
			LIMIT 1
		) l ON TRUE
		WHERE ($1 = '' OR s.status = $1)
		ORDER BY s.updated_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := DB.QueryContext(ctx, q, status, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("ListSessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionResponse
	for rows.Next() {
		var (
			sr        models.SessionResponse
			topicNull sql.NullString
			lastNull  sql.NullTime
			posNull   sql.NullInt64
			waitNull  sql.NullInt64

			lastID     sql.NullInt64
			lastSender sql.NullString
			lastType   sql.NullString
			lastCont   sql.NullString
			lastRead   sql.NullBool
			lastTime   sql.NullTime
		)
		if err := rows.Scan(
			&sr.ID, &sr.VisitorName, &sr.Status, &sr.TaskStatus, &topicNull, &lastNull,
			&sr.UnreadByVisitor, &sr.UnreadByStaff, &posNull, &waitNull,
			&sr.CreatedAt, &sr.UpdatedAt,
			&lastID, &lastSender, &lastType, &lastCont, &lastRead, &lastTime,
		); err != nil {
			return nil, 0, fmt.Errorf("ListSessions scan: %w", err)
		}

		sr.Topic = nullStringToPointer(topicNull)
		sr.LastMessageAt = nullTimeToPointer(lastNull)
		sr.QueuePosition = nullIntToPointer(posNull)
		sr.QueueWaitSeconds = nullIntToPointer(waitNull)

		if lastID.Valid {
			sr.LastMessage = &models.Message{
				ID:        lastID.Int64,
				SessionID: sr.ID,
				Sender:    lastSender.String,
				Type:      lastType.String,
				Content:   lastCont.String,
				Read:      lastRead.Bool,
				CreatedAt: lastTime.Time,
			}
		}
		result = append(result, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// ─────────────────────────── MarkSessionRead

// MarkSessionRead помечает прочитанными сообщения противоположной стороны
// и обнуляет соответствующий счетчик. Оба изменения идут в одной
// транзакции: счетчик всегда равен числу непрочитанных сообщений.
func MarkSessionRead(id uuid.UUID, reader string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	// Кто читает — того счетчик и обнуляем; флаг снимаем
	// с сообщений противоположного отправителя.
	var sender, counter string
	switch reader {
	case models.SenderVisitor:
		sender, counter = models.SenderStaff, "unread_by_visitor"
	case models.SenderStaff:
		sender, counter = models.SenderVisitor, "unread_by_staff"
	default:
		return fmt.Errorf("MarkSessionRead: неизвестный читатель %q", reader)
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ok bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sessions WHERE id=$1)", id).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE messages SET read=true WHERE session_id=$1 AND sender=$2 AND read=false",
		id, sender,
	); err != nil {
		return err
	}

	upd := fmt.Sprintf("UPDATE sessions SET %s=0, updated_at=$1 WHERE id=$2", counter)
	if _, err := tx.ExecContext(ctx, upd, time.Now(), id); err != nil {
		return err
	}

	return tx.Commit()
}

// ─────────────────────────── обновления сессии

// UpdateSessionTopic меняет тему обращения.
func UpdateSessionTopic(id uuid.UUID, topic string) error {
	return updateSessionField(id, "topic", topic)
}

// UpdateTaskStatus меняет этап обработки обращения.
func UpdateTaskStatus(id uuid.UUID, taskStatus string) error {
	if !models.ValidTaskStatus(taskStatus) {
		return fmt.Errorf("UpdateTaskStatus: недопустимый статус %q", taskStatus)
	}
	return updateSessionField(id, "task_status", taskStatus)
}

// UpdateSessionStatus меняет статус сессии (active/closed).
func UpdateSessionStatus(id uuid.UUID, status string) error {
	if !models.ValidSessionStatus(status) {
		return fmt.Errorf("UpdateSessionStatus: недопустимый статус %q", status)
	}
	return updateSessionField(id, "status", status)
}

func updateSessionField(id uuid.UUID, field, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	q := fmt.Sprintf("UPDATE sessions SET %s=$1, updated_at=$2 WHERE id=$3", field)
	res, err := DB.ExecContext(ctx, q, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("updateSessionField %s: %w", field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
