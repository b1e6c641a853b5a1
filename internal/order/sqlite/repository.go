// Package sqlite provides a SQLite-backed implementation of order.Repository.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — important because fulfillment updates arrive while the storefront
// is reading order history.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"

	// Register the pure-Go SQLite driver.
	// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
	// requirements, making it easier to build and run in Docker (Alpine).
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup.
// Monetary columns hold integer minor units (cents); the currency code lives
// on the order row. Addresses are stored as JSON TEXT — they are value
// objects read and written whole, never queried by field.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id                TEXT PRIMARY KEY,
    order_number      TEXT NOT NULL UNIQUE,
    user_id           TEXT NOT NULL DEFAULT '',
    session_id        TEXT NOT NULL,
    shipping_address  TEXT NOT NULL,
    billing_address   TEXT NOT NULL,
    shipping_cost     INTEGER NOT NULL,
    tax               INTEGER NOT NULL,
    total             INTEGER NOT NULL,
    currency          TEXT NOT NULL,
    status            TEXT NOT NULL,
    payment_status    TEXT NOT NULL,
    payment_intent_id TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL REFERENCES orders(id),
    product_id  TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    sku         TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL DEFAULT '',
    quantity    INTEGER NOT NULL,
    unit_price  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at);

-- One live order per checkout session: the backstop for idempotent retries.
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_active_session
    ON orders(session_id) WHERE status IN ('PENDING', 'PROCESSING');
`

// Repository is the SQLite implementation of order.Repository.
type Repository struct {
	db *sql.DB
}

var _ order.Repository = (*Repository)(nil)

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. WAL mode is enabled for better concurrent read/write performance.
//
//	repo, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Repository, error) {
	// The pure-Go driver uses _pragma query parameters to configure connection state.
	// WAL enables concurrent readers. foreign_keys=on enforces integrity.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts the order header and every item in a single transaction, so
// a header without its items is never observable.
func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin create order: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM orders WHERE session_id = ? AND status IN ('PENDING', 'PROCESSING')`,
		o.SessionID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("sqlite: check active session %q: %w", o.SessionID, err)
	}
	if existing > 0 {
		return order.ErrDuplicateSession
	}

	shipping, billing, err := marshalAddresses(o)
	if err != nil {
		return err
	}

	const insertOrder = `
		INSERT INTO orders
			(id, order_number, user_id, session_id, shipping_address, billing_address,
			 shipping_cost, tax, total, currency, status, payment_status,
			 payment_intent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insertOrder,
		o.ID.String(),
		o.OrderNumber,
		o.UserID,
		o.SessionID,
		shipping,
		billing,
		o.ShippingCost.MinorUnits(),
		o.Tax.MinorUnits(),
		o.Total.MinorUnits(),
		o.Total.Currency(),
		string(o.Status),
		string(o.PaymentStatus),
		o.PaymentIntentID,
		formatRFC3339(o.CreatedAt),
		formatRFC3339(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert order %q: %w", o.OrderNumber, err)
	}

	const insertItem = `
		INSERT INTO order_items
			(order_id, product_id, name, sku, image_url, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, insertItem,
			o.ID.String(),
			item.ProductID,
			item.Snapshot.Name,
			item.Snapshot.SKU,
			item.Snapshot.ImageURL,
			item.Quantity,
			item.UnitPrice.MinorUnits(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert item %q for order %q: %w", item.ProductID, o.OrderNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit create order %q: %w", o.OrderNumber, err)
	}
	return nil
}

const selectOrder = `
	SELECT id, order_number, user_id, session_id, shipping_address, billing_address,
	       shipping_cost, tax, total, currency, status, payment_status,
	       payment_intent_id, created_at, updated_at
	FROM   orders`

// FindByID returns (nil, nil) when no order has the given id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE id = ?`, id.String())
	return r.scanOne(ctx, row)
}

// FindByOrderNumber returns (nil, nil) when the number is unknown.
func (r *Repository) FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE order_number = ?`, number)
	return r.scanOne(ctx, row)
}

// FindActiveBySession returns the non-terminal order of a checkout session.
func (r *Repository) FindActiveBySession(ctx context.Context, sessionID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		selectOrder+` WHERE session_id = ? AND status IN ('PENDING', 'PROCESSING')`,
		sessionID,
	)
	return r.scanOne(ctx, row)
}

// FindByUserID lists a user's orders newest-first. The secondary sort on id
// keeps the ordering stable when two orders share a created_at.
func (r *Repository) FindByUserID(ctx context.Context, userID string, page order.Page) ([]domain.Order, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		selectOrder+` WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders for user %q: %w", userID, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list orders for user %q: %w", userID, err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID, orders[i].Total.Currency())
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// UpdateStatus sets the fulfillment status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now') WHERE id = ?`,
		string(status), id.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: update status for %s: %w", id, err)
	}
	return checkAffected(res, id)
}

// UpdatePaymentStatus sets the payment status, keeping any previously stored
// payment intent id when transactionID is empty.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = ?,
		    payment_intent_id = CASE WHEN ? = '' THEN payment_intent_id ELSE ? END,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?`,
		string(status), transactionID, transactionID, id.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: update payment status for %s: %w", id, err)
	}
	return checkAffected(res, id)
}

func checkAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(ctx context.Context, row *sql.Row) (*domain.Order, error) {
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = r.loadItems(ctx, o.ID, o.Total.Currency())
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) loadItems(ctx context.Context, orderID uuid.UUID, currency string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, sku, image_url, quantity, unit_price
		FROM   order_items
		WHERE  order_id = ?
		ORDER  BY id`,
		orderID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load items for %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var units int64
		err := rows.Scan(
			&item.ProductID,
			&item.Snapshot.Name,
			&item.Snapshot.SKU,
			&item.Snapshot.ImageURL,
			&item.Quantity,
			&units,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan item for %s: %w", orderID, err)
		}
		item.UnitPrice, err = domain.NewMoneyFromMinorUnits(units, currency)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// scanner lets scanOrder work with both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var o domain.Order
	var id, shipping, billing, status, paymentStatus, createdAt, updatedAt, currency string
	var shippingCost, tax, total int64

	err := row.Scan(
		&id,
		&o.OrderNumber,
		&o.UserID,
		&o.SessionID,
		&shipping,
		&billing,
		&shippingCost,
		&tax,
		&total,
		&currency,
		&status,
		&paymentStatus,
		&o.PaymentIntentID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse order id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(shipping), &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("sqlite: decode shipping address for %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(billing), &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("sqlite: decode billing address for %q: %w", id, err)
	}
	if o.ShippingCost, err = domain.NewMoneyFromMinorUnits(shippingCost, currency); err != nil {
		return nil, err
	}
	if o.Tax, err = domain.NewMoneyFromMinorUnits(tax, currency); err != nil {
		return nil, err
	}
	if o.Total, err = domain.NewMoneyFromMinorUnits(total, currency); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if o.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func marshalAddresses(o *domain.Order) (shipping, billing string, err error) {
	s, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encode shipping address: %w", err)
	}
	b, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encode billing address: %w", err)
	}
	return string(s), string(b), nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
