// Package repository реализует хранилище данных на основе PostgreSQL
// для правил срока хранения, записей инвентаря и push-подписок.
// Предоставляет методы создания, чтения, обновления, удаления и
// агрегирования записей.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с правилами, записями и подписками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'items'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table items missing or query error: %w", err)
	}
	return nil
}

// statusCase выражение, выводящее статус записи из lifecycle и даты
// истечения. Обязано совпадать по смыслу с item.DeriveStatus, чтобы
// агрегирующие запросы и поштучное чтение не расходились.
const statusCase = `CASE
        WHEN lifecycle <> 'active' THEN lifecycle
        WHEN expires_max_at::date < CURRENT_DATE THEN 'expired'
        WHEN expires_max_at::date <= CURRENT_DATE + 3 THEN 'warning'
        ELSE 'fresh'
    END`
