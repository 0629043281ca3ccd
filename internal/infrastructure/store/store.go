// Package store implements the persistent backend on gorm: cached metadata,
// bounded price history, portfolio snapshots, and classified transaction
// records.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/infrastructure/configloader"
)

type metadataRow struct {
	Mint      string `gorm:"primaryKey;size:64"`
	Symbol    string `gorm:"size:32"`
	Name      string `gorm:"size:128"`
	Icon      string
	Decimals  uint8
	UpdatedAt time.Time
}

type priceRow struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Mint       string `gorm:"size:64;index:idx_price_mint_observed,priority:1"`
	PriceUSD   float64
	ObservedAt time.Time `gorm:"index:idx_price_mint_observed,priority:2"`
}

type portfolioRow struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Wallet        string `gorm:"size:64;index:idx_portfolio_wallet_fetched,priority:1"`
	TotalValueUSD float64
	Holdings      string    `gorm:"type:text"`
	FetchedAt     time.Time `gorm:"index:idx_portfolio_wallet_fetched,priority:2"`
}

type transactionRow struct {
	Signature   string `gorm:"primaryKey;size:96"`
	Wallet      string `gorm:"size:64;index"`
	Type        string `gorm:"size:32"`
	Status      string `gorm:"size:16"`
	BlockTime   time.Time
	FeeLamports uint64
	InputLegs   string `gorm:"type:text"`
	OutputLeg   string `gorm:"type:text"`
	Bridge      string `gorm:"type:text"`
}

// Store implements port.Store on a gorm-managed database. The driver is
// either embedded sqlite (default) or postgres.
type Store struct {
	db     *gorm.DB
	logger port.Logger
	now    func() time.Time
}

var _ port.Store = (*Store)(nil)

// New opens the database per config, migrates the schema, and returns the
// store.
func New(cfg configloader.DBConfig, logger port.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s dbname=%s sslmode=%s", cfg.Host, cfg.DBName, cfg.SSLMode)
		if cfg.Port != 0 {
			dsn += fmt.Sprintf(" port=%d", cfg.Port)
		}
		if cfg.User != "" {
			dsn += fmt.Sprintf(" user=%s", cfg.User)
		}
		if cfg.Password != "" {
			dsn += fmt.Sprintf(" password=%s", cfg.Password)
		}
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database (%s): %w", cfg.Driver, err)
	}

	if err := db.AutoMigrate(&metadataRow{}, &priceRow{}, &portfolioRow{}, &transactionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Persistent store ready", "driver", cfg.Driver)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// UpsertMetadata writes or refreshes a metadata entry keyed by mint.
func (s *Store) UpsertMetadata(ctx context.Context, entry entity.MetadataEntry) error {
	row := metadataRow{
		Mint:      entry.Mint,
		Symbol:    entry.Symbol,
		Name:      entry.Name,
		Icon:      entry.Icon,
		Decimals:  entry.Decimals,
		UpdatedAt: s.now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "mint"}}, UpdateAll: true}).
		Create(&row).Error
}

// GetMetadata returns the stored metadata for mint, or nil if absent.
func (s *Store) GetMetadata(ctx context.Context, mint string) (*entity.MetadataEntry, error) {
	var row metadataRow
	err := s.db.WithContext(ctx).First(&row, "mint = ?", mint).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity.MetadataEntry{
		Mint:     row.Mint,
		Symbol:   row.Symbol,
		Name:     row.Name,
		Icon:     row.Icon,
		Decimals: row.Decimals,
	}, nil
}

// InsertPrice appends a price observation. History is trimmed by Sweep, not
// on insert.
func (s *Store) InsertPrice(ctx context.Context, entry entity.PriceEntry) error {
	row := priceRow{Mint: entry.Mint, PriceUSD: entry.PriceUSD, ObservedAt: entry.ObservedAt}
	return s.db.WithContext(ctx).Create(&row).Error
}

// LatestPrice returns the most recent observation for mint at or after
// notBefore. A zero notBefore disables the freshness filter.
func (s *Store) LatestPrice(ctx context.Context, mint string, notBefore time.Time) (*entity.PriceEntry, error) {
	q := s.db.WithContext(ctx).Where("mint = ?", mint)
	if !notBefore.IsZero() {
		q = q.Where("observed_at >= ?", notBefore)
	}
	var row priceRow
	err := q.Order("observed_at DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity.PriceEntry{Mint: row.Mint, PriceUSD: row.PriceUSD, ObservedAt: row.ObservedAt}, nil
}

// PriceHistory returns up to limit observations for mint, newest first.
func (s *Store) PriceHistory(ctx context.Context, mint string, limit int) ([]entity.PriceEntry, error) {
	var rows []priceRow
	err := s.db.WithContext(ctx).
		Where("mint = ?", mint).
		Order("observed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]entity.PriceEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, entity.PriceEntry{Mint: r.Mint, PriceUSD: r.PriceUSD, ObservedAt: r.ObservedAt})
	}
	return entries, nil
}

// SavePortfolio stores a portfolio snapshot.
func (s *Store) SavePortfolio(ctx context.Context, p entity.Portfolio) error {
	holdings, err := json.Marshal(p.Holdings)
	if err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}
	row := portfolioRow{
		Wallet:        p.Wallet,
		TotalValueUSD: p.TotalValueUSD,
		Holdings:      string(holdings),
		FetchedAt:     p.FetchedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// LatestPortfolio returns the freshest snapshot for wallet taken at or after
// notBefore, or nil when none qualifies.
func (s *Store) LatestPortfolio(ctx context.Context, wallet string, notBefore time.Time) (*entity.Portfolio, error) {
	q := s.db.WithContext(ctx).Where("wallet = ?", wallet)
	if !notBefore.IsZero() {
		q = q.Where("fetched_at >= ?", notBefore)
	}
	var row portfolioRow
	err := q.Order("fetched_at DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var holdings []entity.TokenHolding
	if row.Holdings != "" {
		if err := json.Unmarshal([]byte(row.Holdings), &holdings); err != nil {
			return nil, fmt.Errorf("failed to decode holdings: %w", err)
		}
	}
	return &entity.Portfolio{
		Wallet:        row.Wallet,
		TotalValueUSD: row.TotalValueUSD,
		Holdings:      holdings,
		FetchedAt:     row.FetchedAt,
	}, nil
}

// UpsertTransaction writes a classified record keyed by signature.
func (s *Store) UpsertTransaction(ctx context.Context, rec entity.TransactionRecord) error {
	inputLegs, err := json.Marshal(rec.InputLegs)
	if err != nil {
		return fmt.Errorf("failed to encode input legs: %w", err)
	}
	outputLeg, err := json.Marshal(rec.OutputLeg)
	if err != nil {
		return fmt.Errorf("failed to encode output leg: %w", err)
	}
	bridge, err := json.Marshal(rec.Bridge)
	if err != nil {
		return fmt.Errorf("failed to encode bridge leg: %w", err)
	}

	row := transactionRow{
		Signature:   rec.Signature,
		Wallet:      rec.Wallet,
		Type:        string(rec.Type),
		Status:      string(rec.Status),
		BlockTime:   rec.BlockTime,
		FeeLamports: rec.FeeLamports,
		InputLegs:   string(inputLegs),
		OutputLeg:   string(outputLeg),
		Bridge:      string(bridge),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "signature"}}, UpdateAll: true}).
		Create(&row).Error
}

// GetTransaction returns the stored record for signature, or nil.
func (s *Store) GetTransaction(ctx context.Context, signature string) (*entity.TransactionRecord, error) {
	var row transactionRow
	err := s.db.WithContext(ctx).First(&row, "signature = ?", signature).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTransactionRow(row)
}

// ListTransactions returns up to limit records for wallet, newest first.
func (s *Store) ListTransactions(ctx context.Context, wallet string, limit int) ([]entity.TransactionRecord, error) {
	var rows []transactionRow
	err := s.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Order("block_time DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]entity.TransactionRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := decodeTransactionRow(r)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Sweep applies bounded retention to snapshots and price history.
func (s *Store) Sweep(ctx context.Context, snapshotRetention time.Duration, keepPrices int) error {
	cutoff := s.now().Add(-snapshotRetention)
	if err := s.db.WithContext(ctx).Where("fetched_at < ?", cutoff).Delete(&portfolioRow{}).Error; err != nil {
		return fmt.Errorf("failed to sweep portfolio snapshots: %w", err)
	}

	var mints []string
	if err := s.db.WithContext(ctx).Model(&priceRow{}).Distinct("mint").Pluck("mint", &mints).Error; err != nil {
		return fmt.Errorf("failed to list price mints: %w", err)
	}
	for _, mint := range mints {
		var boundary priceRow
		err := s.db.WithContext(ctx).
			Where("mint = ?", mint).
			Order("observed_at DESC").
			Offset(keepPrices - 1).
			First(&boundary).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to find retention boundary for %s: %w", mint, err)
		}
		if err := s.db.WithContext(ctx).
			Where("mint = ? AND observed_at < ?", mint, boundary.ObservedAt).
			Delete(&priceRow{}).Error; err != nil {
			return fmt.Errorf("failed to trim price history for %s: %w", mint, err)
		}
	}

	s.logger.Debug("Store sweep completed", "snapshot_cutoff", cutoff, "price_mints", len(mints))
	return nil
}

func decodeTransactionRow(row transactionRow) (*entity.TransactionRecord, error) {
	rec := entity.TransactionRecord{
		Signature:   row.Signature,
		Wallet:      row.Wallet,
		Type:        entity.TransactionType(row.Type),
		Status:      entity.TransactionStatus(row.Status),
		BlockTime:   row.BlockTime,
		FeeLamports: row.FeeLamports,
	}
	if row.InputLegs != "" {
		if err := json.Unmarshal([]byte(row.InputLegs), &rec.InputLegs); err != nil {
			return nil, fmt.Errorf("failed to decode input legs: %w", err)
		}
	}
	if row.OutputLeg != "" {
		if err := json.Unmarshal([]byte(row.OutputLeg), &rec.OutputLeg); err != nil {
			return nil, fmt.Errorf("failed to decode output leg: %w", err)
		}
	}
	if row.Bridge != "" {
		if err := json.Unmarshal([]byte(row.Bridge), &rec.Bridge); err != nil {
			return nil, fmt.Errorf("failed to decode bridge leg: %w", err)
		}
	}
	return &rec, nil
}
