package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

func NewDb(ctx context.Context, cfg ConnConfig) (*Database, error) {
	pool, err := pgxpool.Connect(ctx, GenerateDsn(cfg))
	if err != nil {
		return nil, err
	}
	return NewDatabase(pool), nil
}

func GenerateDsn(cfg ConnConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}
