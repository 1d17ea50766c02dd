package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"osdashboard/internal/domain"
	"osdashboard/internal/storage"
)

const workOrderColumns = `order_number, created_at, started_at, finished_at, plate, brand, model, odometer,
	title, type, status, driver, mechanic, description, supplier, last_update`

// Store is the database/sql backend of storage.Gateway.
type Store struct {
	db *sql.DB
}

func InitDB(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}
	// One writer at a time; foreign_keys is a per-connection pragma and the
	// DSN applies it to every connection the pool opens.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS work_orders (
		order_number INTEGER PRIMARY KEY,
		created_at   TEXT DEFAULT '',
		started_at   TEXT DEFAULT '',
		finished_at  TEXT DEFAULT '',
		plate        TEXT DEFAULT '',
		brand        TEXT DEFAULT '',
		model        TEXT DEFAULT '',
		odometer     TEXT DEFAULT '',
		title        TEXT DEFAULT '',
		type         TEXT DEFAULT '',
		status       TEXT DEFAULT '',
		driver       TEXT DEFAULT '',
		mechanic     TEXT DEFAULT '',
		description  TEXT DEFAULT '',
		supplier     TEXT DEFAULT '',
		last_update  TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS detail_lines (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		order_number   INTEGER NOT NULL REFERENCES work_orders(order_number) ON DELETE CASCADE,
		material       TEXT DEFAULT '',
		quantity       TEXT DEFAULT '',
		unit_value     TEXT DEFAULT '',
		total_value    TEXT DEFAULT '',
		stock_quantity TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_detail_lines_order_number ON detail_lines(order_number);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// UpsertQualifying inserts new orders and overwrites every non-key column of
// existing ones. ON CONFLICT DO UPDATE keeps the row in place, so the detail
// lines of an existing order survive the upsert.
func (s *Store) UpsertQualifying(ctx context.Context, orders []domain.WorkOrder) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	orders = domain.DedupeOrders(orders)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storage.Wrap("upsert work orders", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO work_orders (`+workOrderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(order_number) DO UPDATE SET
		   created_at = excluded.created_at,
		   started_at = excluded.started_at,
		   finished_at = excluded.finished_at,
		   plate = excluded.plate,
		   brand = excluded.brand,
		   model = excluded.model,
		   odometer = excluded.odometer,
		   title = excluded.title,
		   type = excluded.type,
		   status = excluded.status,
		   driver = excluded.driver,
		   mechanic = excluded.mechanic,
		   description = excluded.description,
		   supplier = excluded.supplier,
		   last_update = excluded.last_update`,
	)
	if err != nil {
		return 0, storage.Wrap("upsert work orders", err)
	}
	defer stmt.Close()

	count := 0
	for _, wo := range orders {
		if _, err := stmt.ExecContext(ctx,
			wo.Number, wo.CreatedAt, wo.StartedAt, wo.FinishedAt, wo.Plate, wo.Brand, wo.Model,
			wo.Odometer, wo.Title, wo.Type, wo.Status, wo.Driver, wo.Mechanic, wo.Description,
			wo.Supplier, wo.LastUpdate,
		); err != nil {
			return 0, storage.Wrap("upsert work orders", err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, storage.Wrap("upsert work orders", err)
	}
	return count, nil
}

// ReplaceDetails deletes the order's detail lines and inserts the new set.
// An empty set leaves the order without details.
func (s *Store) ReplaceDetails(ctx context.Context, orderNumber int64, lines []domain.DetailLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap("replace details", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM detail_lines WHERE order_number = ?`, orderNumber); err != nil {
		return storage.Wrap("replace details", err)
	}

	if len(lines) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO detail_lines (order_number, material, quantity, unit_value, total_value, stock_quantity)
			 VALUES (?, ?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return storage.Wrap("replace details", err)
		}
		defer stmt.Close()

		for _, line := range lines {
			if _, err := stmt.ExecContext(ctx,
				orderNumber, line.Material, line.Quantity, line.UnitValue, line.TotalValue, line.StockQuantity,
			); err != nil {
				return storage.Wrap("replace details", err)
			}
		}
	}
	return storage.Wrap("replace details", tx.Commit())
}

func (s *Store) ReadAllWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders ORDER BY order_number`,
	)
	if err != nil {
		return nil, storage.Wrap("read work orders", err)
	}
	defer rows.Close()

	var orders []domain.WorkOrder
	for rows.Next() {
		var wo domain.WorkOrder
		if err := rows.Scan(
			&wo.Number, &wo.CreatedAt, &wo.StartedAt, &wo.FinishedAt, &wo.Plate, &wo.Brand, &wo.Model,
			&wo.Odometer, &wo.Title, &wo.Type, &wo.Status, &wo.Driver, &wo.Mechanic, &wo.Description,
			&wo.Supplier, &wo.LastUpdate,
		); err != nil {
			return nil, storage.Wrap("read work orders", err)
		}
		orders = append(orders, wo)
	}
	return orders, storage.Wrap("read work orders", rows.Err())
}

func (s *Store) ReadAllDetails(ctx context.Context) ([]domain.DetailLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_number, material, quantity, unit_value, total_value, stock_quantity
		 FROM detail_lines ORDER BY order_number, id`,
	)
	if err != nil {
		return nil, storage.Wrap("read details", err)
	}
	defer rows.Close()

	var lines []domain.DetailLine
	for rows.Next() {
		var line domain.DetailLine
		if err := rows.Scan(
			&line.OrderNumber, &line.Material, &line.Quantity, &line.UnitValue, &line.TotalValue, &line.StockQuantity,
		); err != nil {
			return nil, storage.Wrap("read details", err)
		}
		lines = append(lines, line)
	}
	return lines, storage.Wrap("read details", rows.Err())
}

// FindOrdersMissingDetails lists persisted orders that have no detail line.
func (s *Store) FindOrdersMissingDetails(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.order_number FROM work_orders w
		 LEFT JOIN detail_lines d ON d.order_number = w.order_number
		 WHERE d.order_number IS NULL
		 ORDER BY w.order_number`,
	)
	if err != nil {
		return nil, storage.Wrap("find orders missing details", err)
	}
	defer rows.Close()

	var numbers []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, storage.Wrap("find orders missing details", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, storage.Wrap("find orders missing details", rows.Err())
}

func (s *Store) DeleteWorkOrder(ctx context.Context, orderNumber int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap("delete work order", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_orders WHERE order_number = ?`, orderNumber); err != nil {
		return storage.Wrap("delete work order", err)
	}
	return storage.Wrap("delete work order", tx.Commit())
}
