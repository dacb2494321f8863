package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LordErl/itsells-core/internal/apperr"
	"github.com/LordErl/itsells-core/internal/ledger"
	"github.com/LordErl/itsells-core/internal/types/batch"
	"github.com/LordErl/itsells-core/internal/types/customer"
	"github.com/LordErl/itsells-core/internal/types/order"
	"github.com/LordErl/itsells-core/internal/types/table"
	"github.com/LordErl/itsells-core/internal/types/user"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            cpf TEXT NOT NULL,
            role TEXT NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS dining_tables (
            id SERIAL PRIMARY KEY,
            number INT UNIQUE NOT NULL,
            capacity INT NOT NULL DEFAULT 4,
            status TEXT NOT NULL DEFAULT 'available',
            current_order_id INT
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            customer_id INT NOT NULL REFERENCES users(id),
            table_id INT REFERENCES dining_tables(id),
            status TEXT NOT NULL,
            total DOUBLE PRECISION NOT NULL DEFAULT 0,
            observations TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id SERIAL PRIMARY KEY,
            order_id INT NOT NULL REFERENCES orders(id),
            product_id INT NOT NULL,
            quantity INT NOT NULL,
            unit_price DOUBLE PRECISION NOT NULL,
            status TEXT NOT NULL,
            observations TEXT NOT NULL DEFAULT '',
            started_at TIMESTAMPTZ,
            delivered_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS product_batches (
            id SERIAL PRIMARY KEY,
            product_id INT NOT NULL,
            batch_number TEXT NOT NULL,
            quantity INT NOT NULL,
            unit_cost DOUBLE PRECISION,
            supplier TEXT NOT NULL DEFAULT '',
            manufacturing_date TIMESTAMPTZ NOT NULL,
            expiration_date TIMESTAMPTZ NOT NULL,
            location TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'active',
            disposal_notes TEXT NOT NULL DEFAULT '',
            disposal_date TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS customer_accounts (
            id SERIAL PRIMARY KEY,
            customer_id INT UNIQUE NOT NULL REFERENCES users(id),
            current_bill DOUBLE PRECISION NOT NULL DEFAULT 0,
            total_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
            visit_count INT NOT NULL DEFAULT 0,
            last_visit TIMESTAMPTZ,
            updated_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS ledger_credits (
            item_id INT PRIMARY KEY REFERENCES order_items(id),
            customer_id INT NOT NULL REFERENCES users(id),
            amount DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id SERIAL PRIMARY KEY,
            external_id TEXT UNIQUE NOT NULL,
            customer_id INT NOT NULL REFERENCES users(id),
            amount DOUBLE PRECISION NOT NULL,
            method TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// ----- users -----

func (s *PostgresStorage) Create(ctx context.Context, u *user.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `INSERT INTO users (login,name,cpf,role,password_hash,created_at)
          VALUES($1,$2,$3,$4,$5,$6) RETURNING id`
	if err := tx.QueryRowContext(ctx, q,
		u.Login, u.Name, u.CPF, u.Role, u.PasswordHash, u.CreatedAt,
	).Scan(&u.ID); err != nil {
		return err
	}

	// every customer gets a ledger row at registration
	if u.Role == user.RoleCustomer {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customer_accounts (customer_id) VALUES ($1)`, u.ID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStorage) FindByLogin(ctx context.Context, login string) (*user.User, error) {
	u := &user.User{}
	q := `SELECT id,login,name,cpf,role,password_hash,created_at FROM users WHERE login=$1`
	if err := s.db.QueryRowContext(ctx, q, login).
		Scan(&u.ID, &u.Login, &u.Name, &u.CPF, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user %s not found", login)
		}
		return nil, err
	}
	return u, nil
}

// ----- orders -----

func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `INSERT INTO orders (customer_id,table_id,status,total,observations,created_at)
          VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	if err := tx.QueryRowContext(ctx, q,
		o.CustomerID, o.TableID, o.Status, o.Total, o.Observations, o.CreatedAt,
	).Scan(&o.ID); err != nil {
		return err
	}

	itemQ := `INSERT INTO order_items (order_id,product_id,quantity,unit_price,status,observations)
              VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := tx.QueryRowContext(ctx, itemQ,
			o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Status, it.Observations,
		).Scan(&it.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStorage) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	o := &order.Order{}
	var tableID sql.NullInt64
	var updatedAt sql.NullTime
	q := `SELECT id,customer_id,table_id,status,total,observations,created_at,updated_at
          FROM orders WHERE id=$1`
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&o.ID, &o.CustomerID, &tableID, &o.Status, &o.Total, &o.Observations, &o.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if tableID.Valid {
		o.TableID = &tableID.Int64
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		o.UpdatedAt = &t
	}

	items, err := s.listItemsByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *PostgresStorage) listItemsByOrder(ctx context.Context, orderID int64) ([]order.Item, error) {
	q := `SELECT id,order_id,product_id,quantity,unit_price,status,observations,started_at,delivered_at
          FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (*order.Item, error) {
	it := &order.Item{}
	var startedAt, deliveredAt sql.NullTime
	if err := r.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice,
		&it.Status, &it.Observations, &startedAt, &deliveredAt,
	); err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		it.StartedAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		it.DeliveredAt = &t
	}
	return it, nil
}

func (s *PostgresStorage) FindItem(ctx context.Context, id int64) (*order.Item, error) {
	q := `SELECT id,order_id,product_id,quantity,unit_price,status,observations,started_at,delivered_at
          FROM order_items WHERE id=$1`
	it, err := scanItem(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("item %d not found", id)
		}
		return nil, err
	}
	return it, nil
}

// TransitionItem compares-and-swaps the status so concurrent staff actions
// cannot double-apply a move. Timestamps are written at most once.
func (s *PostgresStorage) TransitionItem(ctx context.Context, id int64, from, to order.ItemStatus, startedAt, deliveredAt *time.Time) (bool, error) {
	q := `UPDATE order_items
          SET status=$3,
              started_at=COALESCE(started_at,$4),
              delivered_at=COALESCE(delivered_at,$5)
          WHERE id=$1 AND status=$2`
	res, err := s.db.ExecContext(ctx, q, id, from, to, startedAt, deliveredAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStorage) UpdateOrderAggregate(ctx context.Context, id int64, status order.OrderStatus, total float64, updatedAt time.Time) error {
	q := `UPDATE orders SET status=$2, total=$3, updated_at=$4 WHERE id=$1`
	_, err := s.db.ExecContext(ctx, q, id, status, total, updatedAt)
	return err
}

func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, id int64, status order.OrderStatus, updatedAt time.Time) error {
	q := `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`
	_, err := s.db.ExecContext(ctx, q, id, status, updatedAt)
	return err
}

func (s *PostgresStorage) listOrders(ctx context.Context, q string, args ...any) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var o order.Order
		var tableID sql.NullInt64
		var updatedAt sql.NullTime
		if err := rows.Scan(
			&o.ID, &o.CustomerID, &tableID, &o.Status, &o.Total, &o.Observations, &o.CreatedAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		if tableID.Valid {
			o.TableID = &tableID.Int64
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			o.UpdatedAt = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) ListActiveOrders(ctx context.Context) ([]order.Order, error) {
	const q = `SELECT id,customer_id,table_id,status,total,observations,created_at,updated_at
               FROM orders
               WHERE status IN ('pending','confirmed','preparing','ready')
               ORDER BY created_at DESC`
	orders, err := s.listOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.listItemsByOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *PostgresStorage) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	const q = `SELECT id,customer_id,table_id,status,total,observations,created_at,updated_at
               FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`
	orders, err := s.listOrders(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.listItemsByOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *PostgresStorage) ListDeliveringItemsByCustomer(ctx context.Context, customerID int64) ([]order.Item, error) {
	q := `SELECT oi.id,oi.order_id,oi.product_id,oi.quantity,oi.unit_price,oi.status,oi.observations,oi.started_at,oi.delivered_at
          FROM order_items oi
          JOIN orders o ON o.id = oi.order_id
          WHERE o.customer_id=$1 AND oi.status='delivering'
          ORDER BY oi.id`
	rows, err := s.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) ListOrdersBetween(ctx context.Context, start, end time.Time) ([]order.Order, error) {
	const q = `SELECT id,customer_id,table_id,status,total,observations,created_at,updated_at
               FROM orders WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`
	return s.listOrders(ctx, q, start, end)
}

// ----- dining tables -----

func (s *PostgresStorage) SetTableStatus(ctx context.Context, tableID int64, status table.TableStatus, currentOrderID *int64) error {
	q := `UPDATE dining_tables SET status=$2, current_order_id=$3 WHERE id=$1`
	res, err := s.db.ExecContext(ctx, q, tableID, status, currentOrderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("table %d not found", tableID)
	}
	return nil
}

func (s *PostgresStorage) ListTables(ctx context.Context) ([]table.Table, error) {
	const q = `SELECT id,number,capacity,status,current_order_id FROM dining_tables ORDER BY number`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []table.Table
	for rows.Next() {
		var t table.Table
		var orderID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &orderID); err != nil {
			return nil, err
		}
		if orderID.Valid {
			t.CurrentOrderID = &orderID.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ----- product batches -----

func (s *PostgresStorage) CreateBatch(ctx context.Context, b *batch.Batch) error {
	q := `INSERT INTO product_batches
          (product_id,batch_number,quantity,unit_cost,supplier,manufacturing_date,expiration_date,location,notes,status,created_at)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		b.ProductID, b.BatchNumber, b.Quantity, b.UnitCost, b.Supplier,
		b.ManufacturingDate, b.ExpirationDate, b.Location, b.Notes, b.Status, b.CreatedAt,
	).Scan(&b.ID)
}

func scanBatch(r rowScanner) (*batch.Batch, error) {
	b := &batch.Batch{}
	var unitCost sql.NullFloat64
	var disposalDate sql.NullTime
	if err := r.Scan(
		&b.ID, &b.ProductID, &b.BatchNumber, &b.Quantity, &unitCost, &b.Supplier,
		&b.ManufacturingDate, &b.ExpirationDate, &b.Location, &b.Notes,
		&b.Status, &b.DisposalNotes, &disposalDate, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	if unitCost.Valid {
		b.UnitCost = &unitCost.Float64
	}
	if disposalDate.Valid {
		t := disposalDate.Time
		b.DisposalDate = &t
	}
	return b, nil
}

const batchColumns = `id,product_id,batch_number,quantity,unit_cost,supplier,manufacturing_date,expiration_date,location,notes,status,disposal_notes,disposal_date,created_at`

func (s *PostgresStorage) GetBatch(ctx context.Context, id int64) (*batch.Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM product_batches WHERE id=$1`
	b, err := scanBatch(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("batch %d not found", id)
		}
		return nil, err
	}
	return b, nil
}

func (s *PostgresStorage) listBatches(ctx context.Context, q string, args ...any) ([]batch.Batch, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []batch.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) ListActiveBatches(ctx context.Context) ([]batch.Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM product_batches
          WHERE status='active' ORDER BY expiration_date`
	return s.listBatches(ctx, q)
}

func (s *PostgresStorage) ListBatchesByProduct(ctx context.Context, productID int64) ([]batch.Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM product_batches
          WHERE product_id=$1 AND status='active' ORDER BY expiration_date`
	return s.listBatches(ctx, q, productID)
}

func (s *PostgresStorage) ListActiveBatchesExpiringBy(ctx context.Context, deadline time.Time) ([]batch.Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM product_batches
          WHERE status='active' AND expiration_date <= $1 ORDER BY expiration_date`
	return s.listBatches(ctx, q, deadline)
}

// ConsumeBatch decrements atomically: the floor at zero and the flip to
// depleted happen in the same statement that checks the batch is active.
func (s *PostgresStorage) ConsumeBatch(ctx context.Context, id int64, qty int) (*batch.Batch, bool, error) {
	q := `UPDATE product_batches
          SET quantity = GREATEST(0, quantity - $2),
              status = CASE WHEN quantity - $2 <= 0 THEN 'depleted' ELSE status END
          WHERE id=$1 AND status='active'
          RETURNING ` + batchColumns
	b, err := scanBatch(s.db.QueryRowContext(ctx, q, id, qty))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}
	// not active (or missing) — let the caller see the terminal state
	cur, err := s.GetBatch(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return cur, false, nil
}

func (s *PostgresStorage) DisposeBatch(ctx context.Context, id int64, status batch.BatchStatus, notes string, at time.Time) (*batch.Batch, bool, error) {
	q := `UPDATE product_batches
          SET status=$2, disposal_notes=$3, disposal_date=$4
          WHERE id=$1 AND status='active'
          RETURNING ` + batchColumns
	b, err := scanBatch(s.db.QueryRowContext(ctx, q, id, status, notes, at))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}
	cur, err := s.GetBatch(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return cur, false, nil
}

func (s *PostgresStorage) CountStatistics(ctx context.Context, now, soonDeadline time.Time, lowStockThreshold int) (*batch.Statistics, error) {
	stats := &batch.Statistics{}

	queries := []struct {
		dst  *int
		q    string
		args []any
	}{
		{&stats.TotalActiveBatches, `SELECT COUNT(*) FROM product_batches WHERE status='active'`, nil},
		{&stats.ExpiringSoon, `SELECT COUNT(*) FROM product_batches WHERE status='active' AND expiration_date <= $1`, []any{soonDeadline}},
		{&stats.Expired, `SELECT COUNT(*) FROM product_batches WHERE status='active' AND expiration_date < $1`, []any{now}},
		{&stats.LowStock, `SELECT COUNT(*) FROM product_batches WHERE status='active' AND quantity <= $1`, []any{lowStockThreshold}},
	}
	for _, c := range queries {
		if err := s.db.QueryRowContext(ctx, c.q, c.args...).Scan(c.dst); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// ----- customer accounts / ledger -----

func (s *PostgresStorage) GetAccount(ctx context.Context, customerID int64) (*customer.Account, error) {
	a := &customer.Account{}
	var lastVisit, updatedAt sql.NullTime
	q := `SELECT id,customer_id,current_bill,total_spent,visit_count,last_visit,updated_at
          FROM customer_accounts WHERE customer_id=$1`
	err := s.db.QueryRowContext(ctx, q, customerID).
		Scan(&a.ID, &a.CustomerID, &a.CurrentBill, &a.TotalSpent, &a.VisitCount, &lastVisit, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("account for customer %d not found", customerID)
	}
	if err != nil {
		return nil, err
	}
	if lastVisit.Valid {
		t := lastVisit.Time
		a.LastVisit = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		a.UpdatedAt = &t
	}
	return a, nil
}

// CreditIfAbsent holds the delivery-credit invariant: the per-item key and
// the balance bump commit together, so a retry of either half is harmless.
func (s *PostgresStorage) CreditIfAbsent(ctx context.Context, customerID, itemID int64, amount float64, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_credits (item_id,customer_id,amount,created_at)
         VALUES ($1,$2,$3,$4) ON CONFLICT (item_id) DO NOTHING`,
		itemID, customerID, amount, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// already credited
		return false, tx.Commit()
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE customer_accounts SET current_bill = current_bill + $2, updated_at=$3 WHERE customer_id=$1`,
		customerID, amount, at,
	)
	if err != nil {
		return false, err
	}
	n, err = res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, apperr.Consistency("credit for unknown customer %d", customerID)
	}
	return true, tx.Commit()
}

func (s *PostgresStorage) Debit(ctx context.Context, customerID int64, amount float64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customer_accounts SET current_bill = GREATEST(0, current_bill - $2), updated_at=$3 WHERE customer_id=$1`,
		customerID, amount, at,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Consistency("debit for unknown customer %d", customerID)
	}
	return nil
}

func (s *PostgresStorage) ApplySpend(ctx context.Context, customerID int64, amount float64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customer_accounts
         SET total_spent = total_spent + $2, visit_count = visit_count + 1, last_visit=$3, updated_at=$3
         WHERE customer_id=$1`,
		customerID, amount, at,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Consistency("spend for unknown customer %d", customerID)
	}
	return nil
}

// ----- payments -----

func (s *PostgresStorage) RecordPayment(ctx context.Context, p *customer.Payment) error {
	q := `INSERT INTO payments (external_id,customer_id,amount,method,status,created_at)
          VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	return s.db.QueryRowContext(ctx, q,
		p.ExternalID, p.CustomerID, p.Amount, p.Method, p.Status, p.CreatedAt,
	).Scan(&p.ID)
}

func (s *PostgresStorage) ListPaymentsByCustomer(ctx context.Context, customerID int64, limit int) ([]customer.Payment, error) {
	q := `SELECT id,external_id,customer_id,amount,method,status,created_at
          FROM payments WHERE customer_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.db.QueryContext(ctx, q, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []customer.Payment
	for rows.Next() {
		var p customer.Payment
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.CustomerID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ----- reconciliation -----

func (s *PostgresStorage) ListUncreditedDeliveredItems(ctx context.Context, limit int) ([]ledger.PendingCredit, error) {
	q := `SELECT oi.id, o.customer_id, oi.unit_price * oi.quantity
          FROM order_items oi
          JOIN orders o ON o.id = oi.order_id
          LEFT JOIN ledger_credits lc ON lc.item_id = oi.id
          WHERE oi.status='delivered' AND lc.item_id IS NULL
          ORDER BY oi.delivered_at
          LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.PendingCredit
	for rows.Next() {
		var pc ledger.PendingCredit
		if err := rows.Scan(&pc.ItemID, &pc.CustomerID, &pc.Amount); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
