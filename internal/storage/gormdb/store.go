package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"osdashboard/internal/domain"
	"osdashboard/internal/storage"
)

// Store is the gorm backend of storage.Gateway.
type Store struct {
	db *gorm.DB
}

// OpenSQLite opens a SQLite file through gorm with foreign keys enabled.
func OpenSQLite(path string) (*Store, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := gorm.Open(sqlite.Open(path+sep+"_foreign_keys=on"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return newStore(db)
}

// OpenPostgres connects to databaseURL.
func OpenPostgres(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStore(db)
}

// New wraps an already opened gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&WorkOrderRecord{}, &DetailLineRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// upsertBatchSize keeps each INSERT under the bind-parameter limits of SQLite
// (32766) and Postgres (65535) at sixteen columns per row.
const upsertBatchSize = 500

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) UpsertQualifying(ctx context.Context, orders []domain.WorkOrder) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	orders = domain.DedupeOrders(orders)
	records := make([]WorkOrderRecord, 0, len(orders))
	for _, wo := range orders {
		records = append(records, newWorkOrderRecord(wo))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_number"}},
				UpdateAll: true,
			}).
			CreateInBatches(&records, upsertBatchSize).Error
	})
	if err != nil {
		return 0, storage.Wrap("upsert work orders", err)
	}
	return len(records), nil
}

func (s *Store) ReplaceDetails(ctx context.Context, orderNumber int64, lines []domain.DetailLine) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent WorkOrderRecord
		if err := tx.Select("order_number").First(&parent, "order_number = ?", orderNumber).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("work order %d not found", orderNumber)
			}
			return err
		}
		if err := tx.Where("order_number = ?", orderNumber).Delete(&DetailLineRecord{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		records := make([]DetailLineRecord, 0, len(lines))
		for _, line := range lines {
			records = append(records, DetailLineRecord{
				OrderNumber:   orderNumber,
				Material:      line.Material,
				Quantity:      line.Quantity,
				UnitValue:     line.UnitValue,
				TotalValue:    line.TotalValue,
				StockQuantity: line.StockQuantity,
			})
		}
		return tx.CreateInBatches(&records, upsertBatchSize).Error
	})
	return storage.Wrap("replace details", err)
}

func (s *Store) ReadAllWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	var records []WorkOrderRecord
	if err := s.db.WithContext(ctx).Order("order_number").Find(&records).Error; err != nil {
		return nil, storage.Wrap("read work orders", err)
	}
	orders := make([]domain.WorkOrder, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.toDomain())
	}
	return orders, nil
}

func (s *Store) ReadAllDetails(ctx context.Context) ([]domain.DetailLine, error) {
	var records []DetailLineRecord
	if err := s.db.WithContext(ctx).Order("order_number").Order("id").Find(&records).Error; err != nil {
		return nil, storage.Wrap("read details", err)
	}
	lines := make([]domain.DetailLine, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.toDomain())
	}
	return lines, nil
}

func (s *Store) FindOrdersMissingDetails(ctx context.Context) ([]int64, error) {
	var numbers []int64
	err := s.db.WithContext(ctx).
		Model(&WorkOrderRecord{}).
		Where("NOT EXISTS (SELECT 1 FROM detail_lines d WHERE d.order_number = work_orders.order_number)").
		Order("order_number").
		Pluck("order_number", &numbers).Error
	if err != nil {
		return nil, storage.Wrap("find orders missing details", err)
	}
	return numbers, nil
}

// DeleteWorkOrder removes the order and its detail lines.
func (s *Store) DeleteWorkOrder(ctx context.Context, orderNumber int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_number = ?", orderNumber).Delete(&DetailLineRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("order_number = ?", orderNumber).Delete(&WorkOrderRecord{}).Error
	})
	return storage.Wrap("delete work order", err)
}
