package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nyasuto/mond/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

// Upsert creates an asset or updates its currency and name
func (r *assetRepository) Upsert(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (ticker, ccy, name)
		VALUES (?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE SET
			ccy = excluded.ccy,
			name = excluded.name
	`

	var name sql.NullString
	if asset.Name != nil {
		name = sql.NullString{String: *asset.Name, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), asset.Ticker, asset.Currency, name)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	return nil
}

// GetByTicker retrieves an asset by its ticker
func (r *assetRepository) GetByTicker(ctx context.Context, ticker string) (*domain.Asset, error) {
	query := `
		SELECT ticker, ccy, name
		FROM assets
		WHERE ticker = ?
	`

	asset, err := scanAsset(r.db.QueryRowContext(ctx, r.db.Rebind(query), ticker))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s not found: %w", ticker, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset by ticker: %w", err)
	}
	return asset, nil
}

// List retrieves every asset ordered by ticker
func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	query := `
		SELECT ticker, ccy, name
		FROM assets
		ORDER BY ticker
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*domain.Asset, error) {
	var asset domain.Asset
	var name sql.NullString
	if err := s.Scan(&asset.Ticker, &asset.Currency, &name); err != nil {
		return nil, err
	}
	if name.Valid {
		asset.Name = &name.String
	}
	return &asset, nil
}
