package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/egor/deskchatserver/models"
)

// ErrTodoNotFound возвращается, когда задачи не существует.
var ErrTodoNotFound = errors.New("задача не найдена")

// ListTodos возвращает все задачи, свежие сверху.
func ListTodos() ([]models.Todo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	const q = `
		SELECT id, title, description, status, created_at, updated_at
		FROM todos
		ORDER BY id DESC`
	rows, err := DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ListTodos: %w", err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var (
			t        models.Todo
			descNull sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &descNull, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListTodos scan: %w", err)
		}
		t.Description = nullStringToPointer(descNull)
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// GetTodo возвращает задачу по ID или nil, если её нет.
func GetTodo(id int64) (*models.Todo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	const q = `
		SELECT id, title, description, status, created_at, updated_at
		FROM todos WHERE id = $1`

	var (
		t        models.Todo
		descNull sql.NullString
	)
	if err := DB.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Title, &descNull, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("GetTodo: %w", err)
	}
	t.Description = nullStringToPointer(descNull)
	return &t, nil
}

// CreateTodo записывает новую задачу.
func CreateTodo(title string, description *string, status string) (*models.Todo, error) {
	if status == "" {
		status = models.TodoPending
	}
	if !models.ValidTodoStatus(status) {
		return nil, fmt.Errorf("CreateTodo: недопустимый статус %q", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	now := time.Now()
	const ins = `
		INSERT INTO todos (title, description, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		RETURNING id`
	var id int64
	if err := DB.QueryRowContext(ctx, ins, title, description, status, now).Scan(&id); err != nil {
		return nil, fmt.Errorf("CreateTodo: %w", err)
	}

	return &models.Todo{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateTodo перезаписывает задачу целиком.
func UpdateTodo(id int64, title string, description *string, status string) (*models.Todo, error) {
	if !models.ValidTodoStatus(status) {
		return nil, fmt.Errorf("UpdateTodo: недопустимый статус %q", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	const q = `
		UPDATE todos SET title=$1, description=$2, status=$3, updated_at=$4
		WHERE id=$5`
	res, err := DB.ExecContext(ctx, q, title, description, status, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("UpdateTodo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrTodoNotFound
	}
	return GetTodo(id)
}

// DeleteTodo удаляет задачу.
func DeleteTodo(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
	defer cancel()

	res, err := DB.ExecContext(ctx, "DELETE FROM todos WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("DeleteTodo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTodoNotFound
	}
	return nil
}
