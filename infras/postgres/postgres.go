package postgres

//nolint:revive
import (
	"context"
	"fmt"
	"net"
	"net/url"
	"nibog/config"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
	postgresConnMaxLifetime   = 30 * time.Minute
)

// Connection holds the read replica and the primary used by the payment ledger.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

type endpoint struct {
	name     string
	username string
	password string
	host     string
	port     string
	dbName   string
	sslMode  string
}

func New(cfg *config.Config) *Connection {
	pg := cfg.DB.Postgres

	return &Connection{
		Read: connect(endpoint{
			name:     "read",
			username: pg.Read.Username,
			password: pg.Read.Password,
			host:     pg.Read.Host,
			port:     pg.Read.Port,
			dbName:   dbName(cfg, pg.Read.Name),
			sslMode:  pg.Read.SSLMode,
		}, pg.MaxRetry, pg.RetryWaitTime),
		Write: connect(endpoint{
			name:     "write",
			username: pg.Write.Username,
			password: pg.Write.Password,
			host:     pg.Write.Host,
			port:     pg.Write.Port,
			dbName:   dbName(cfg, pg.Write.Name),
			sslMode:  pg.Write.SSLMode,
		}, pg.MaxRetry, pg.RetryWaitTime),
	}
}

// Close releases both pools.
func (c *Connection) Close() {
	for _, db := range []*sqlx.DB{c.Read, c.Write} {
		if db == nil {
			continue
		}

		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}

func dbName(cfg *config.Config, baseName string) string {
	return cfg.DB.Postgres.Prefix + baseName
}

// DSN builds a postgres connection url.
func DSN(username, password, host, port, dbName, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"postgres://%s@%s/%s?sslmode=%s",
		url.UserPassword(username, password).String(),
		net.JoinHostPort(host, port),
		dbName,
		sslMode,
	)
}

func connect(target endpoint, maxRetry, waitSeconds int) *sqlx.DB {
	if maxRetry <= 0 {
		maxRetry = 1
	}

	descriptor := DSN(target.username, target.password, target.host, target.port, target.dbName, target.sslMode)

	db, err := backoff.Retry(context.Background(), func() (*sqlx.DB, error) {
		return sqlx.Connect("postgres", descriptor) //nolint:wrapcheck
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(time.Duration(waitSeconds)*time.Second)),
		backoff.WithMaxTries(uint(maxRetry)),
		backoff.WithNotify(func(err error, _ time.Duration) {
			log.Error().
				Err(err).
				Str("name", target.name).
				Str("host", target.host).
				Str("dbName", target.dbName).
				Msg("Failed connecting to database, retrying")
		}),
	)
	if err != nil {
		log.Fatal().Err(err).Str("name", target.name).Msg("Giving up connecting to database")

		return nil
	}

	db.SetMaxIdleConns(postgresMaxIdleConnection)
	db.SetMaxOpenConns(postgresMaxOpenConnection)
	db.SetConnMaxLifetime(postgresConnMaxLifetime)

	log.Info().
		Str("name", target.name).
		Str("host", target.host).
		Str("port", target.port).
		Str("dbName", target.dbName).
		Msg("Connected to database")

	return db
}
