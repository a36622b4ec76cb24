package inventory

import (
	"context"
	"log/slog"
	"strings"

	"LIBRA-backend/internal/platform/apierr"
)

type Store interface {
	Reader
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log.With("component", "inventory")}
}

type AvailabilityResponse struct {
	TitleID         int64 `json:"title_id"`
	AvailableCopies int   `json:"available_copies"`
	Available       bool  `json:"available"`
}

type SetStockRequest struct {
	AvailableCopies *int `json:"available_copies" binding:"required"`
}

type StockResponse struct {
	TitleID         int64 `json:"title_id"`
	Previous        int   `json:"previous"`
	AvailableCopies int   `json:"available_copies"`
}

func (s *Service) CheckAvailable(ctx context.Context, titleID int64) (AvailabilityResponse, error) {
	n, err := CheckAvailable(ctx, s.store, titleID)
	if err != nil {
		return AvailabilityResponse{}, err
	}
	return AvailabilityResponse{TitleID: titleID, AvailableCopies: n, Available: n > 0}, nil
}

// SetStock is the admin stock adjustment. It goes through the ledger so the
// row lock and the non-negative guard apply here too.
func (s *Service) SetStock(ctx context.Context, titleID int64, n int, adminID string) (StockResponse, error) {
	if strings.TrimSpace(adminID) == "" {
		return StockResponse{}, apierr.ErrUnauthorized("admin identity required")
	}
	if titleID <= 0 {
		return StockResponse{}, apierr.ErrInvalid("title_id must be > 0")
	}

	var prev int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		prev, err = Set(ctx, tx, titleID, n)
		return err
	})
	if err != nil {
		return StockResponse{}, err
	}

	s.log.Info("stock adjusted", "title_id", titleID, "previous", prev, "available_copies", n, "admin_id", adminID)
	return StockResponse{TitleID: titleID, Previous: prev, AvailableCopies: n}, nil
}
