package database

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/egor/deskchatserver/models"
)

// defaultQueueSlotSeconds — оценка обслуживания одной сессии очереди.
const defaultQueueSlotSeconds = 300

// queueSlotSeconds читает QUEUE_SLOT_SECONDS или возвращает значение по умолчанию.
func queueSlotSeconds() int {
	if raw := os.Getenv("QUEUE_SLOT_SECONDS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultQueueSlotSeconds
}

// waitingSessionIDs возвращает ID сессий в очереди (активные, ещё не взятые
// в работу) в порядке создания — FIFO.
func waitingSessionIDs(ctx context.Context) ([]uuid.UUID, error) {
	const q = `
		SELECT id FROM sessions
		WHERE status = 'active' AND task_status = 'pending'
		ORDER BY created_at ASC`
	rows, err := DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// positionOf возвращает 1-based место target в очереди, 0 — если его нет.
func positionOf(ids []uuid.UUID, target uuid.UUID) int {
	for i, id := range ids {
		if id == target {
			return i + 1
		}
	}
	return 0
}

// waitEstimate — оценка ожидания: (место-1) * слот.
func waitEstimate(position, slotSeconds int) int {
	if position < 1 {
		return 0
	}
	return (position - 1) * slotSeconds
}

// ─────────────────────────── QueuePosition

// QueuePosition пересчитывает место сессии в очереди линейным проходом.
// Вычисленное значение best-effort записывается в денормализованные колонки.
func QueuePosition(sessionID uuid.UUID) (*models.QueueInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	ids, err := waitingSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	pos := positionOf(ids, sessionID)
	wait := waitEstimate(pos, queueSlotSeconds())

	info := &models.QueueInfo{
		SessionID:   sessionID,
		Waiting:     pos > 0,
		Position:    pos,
		WaitSeconds: wait,
	}

	if pos > 0 {
		if _, err := DB.ExecContext(ctx,
			"UPDATE sessions SET queue_position=$1, queue_wait_seconds=$2 WHERE id=$3",
			pos, wait, sessionID,
		); err != nil {
			// не мешаем ответу, позиция и так пересчитывается при каждом вызове
			log.Printf("QueuePosition: не удалось сохранить позицию для %s: %v", sessionID, err)
		}
	}

	return info, nil
}

// ListQueue возвращает очередь целиком для консоли сотрудника:
// сессии в порядке FIFO с проставленными позициями и оценками.
func ListQueue() ([]models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	ids, err := waitingSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	slot := queueSlotSeconds()
	queue := make([]models.Session, 0, len(ids))
	for i, id := range ids {
		s, err := GetSession(id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		pos := i + 1
		wait := waitEstimate(pos, slot)
		s.QueuePosition = &pos
		s.QueueWaitSeconds = &wait
		queue = append(queue, *s)
	}

	return queue, nil
}
