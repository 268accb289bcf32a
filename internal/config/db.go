package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func NewDB(dsn string, debug bool) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(60 * time.Minute)

	// fail fast
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if debug {
		logConnection(ctx, db, zlog.Logger)
	}

	return db, nil
}

// logConnection records who/where we connected to (no secrets).
func logConnection(ctx context.Context, db *sql.DB, lg zerolog.Logger) {
	var who, dbname, ver string
	_ = db.QueryRowContext(ctx, "SELECT current_user").Scan(&who)
	_ = db.QueryRowContext(ctx, "SELECT current_database()").Scan(&dbname)
	_ = db.QueryRowContext(ctx, "SHOW server_version").Scan(&ver)

	lg.Info().Str("user", who).Str("db", dbname).Str("version", ver).Msg("db connected")
}
