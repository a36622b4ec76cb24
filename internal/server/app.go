// Package server wires storage, services and the gin router together.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"LIBRA-backend/internal/catalog"
	"LIBRA-backend/internal/inventory"
	"LIBRA-backend/internal/lending"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/storage/memory"
)

type Services struct {
	Auth      *auth.Service
	Catalog   *catalog.Service
	Inventory *inventory.Service
	Lending   *lending.Service
}

// App is everything main needs to serve and to shut down.
type App struct {
	Services
	conn *sql.DB
}

func (a *App) Ping(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	return a.conn.PingContext(ctx)
}

// Close releases the connection pool. Safe on the memory driver.
func (a *App) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

type stores struct {
	accounts  auth.AccountStore
	catalog   catalog.Store
	inventory inventory.Store
	lending   lending.Store
}

// New builds the stores for cfg.DB.Driver and the services on top of them.
func New(ctx context.Context, cfg *db.Config, log *slog.Logger) (*App, error) {
	app := &App{}
	var st stores

	switch cfg.DB.Driver {
	case db.DriverMemory:
		mem := memory.New()
		st = stores{mem.Accounts(), mem.Catalog(), mem.Inventory(), mem.Lending()}
		log.Warn("using in-memory storage; data is lost on restart")
	case db.DriverMySQL:
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			return nil, err
		}
		app.conn = conn
		log.Info("connected to DB", "dbname", cfg.DB.DBName)
		if cfg.DB.AutoMigrate {
			if err := db.Migrate(ctx, conn); err != nil {
				conn.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		st = stores{auth.NewStore(conn), catalog.NewStore(conn), inventory.NewStore(conn), lending.NewStore(conn)}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DB.Driver)
	}

	app.Services = Services{
		Auth:      auth.NewService(st.accounts, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
		Catalog:   catalog.NewService(st.catalog, log),
		Inventory: inventory.NewService(st.inventory, log),
		Lending:   lending.NewService(st.lending, log, lending.WithLoanDays(cfg.Lending.DefaultLoanDays)),
	}

	if cfg.Auth.AdminID != "" && cfg.Auth.AdminPassword != "" {
		if err := app.Auth.EnsureAdmin(ctx, cfg.Auth.AdminID, cfg.Auth.AdminPassword); err != nil {
			app.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	return app, nil
}
