package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant-admin/internal/domain"
)

const orderColumns = "id, customer_name, customer_address, customer_phone, total_amount, status, order_date"

type OrderRepositoryInterface interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	GetByID(ctx context.Context, id int64) (domain.Order, error)
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	Update(ctx context.Context, order domain.Order, replaceItems bool) (domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

type OrderRepository struct {
	db     *sql.DB
	paging Paging
}

func NewOrderRepository(db *sql.DB, paging Paging) OrderRepositoryInterface {
	return &OrderRepository{db: db, paging: paging.normalize()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerAddress, &o.CustomerPhone, &o.TotalAmount, &o.Status, &o.OrderDate)
	return o, err
}

func (or *OrderRepository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	rows, err := or.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (or *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit, offset := or.paging.clamp(filter.Limit, filter.Offset)

	var (
		rows *sql.Rows
		err  error
	)
	if filter.Status != "" {
		rows, err = or.db.QueryContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY order_date DESC, id DESC LIMIT $2 OFFSET $3`,
			filter.Status, limit, offset)
	} else {
		rows, err = or.db.QueryContext(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

func (or *OrderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	o, err := scanOrder(or.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	rows, err := or.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to query items of order %d: %w", id, err)
	}
	defer rows.Close()

	o.Items = make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return domain.Order{}, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return o, nil
}

// Create inserts the order and its items in one transaction.
func (or *OrderRepository) Create(ctx context.Context, order domain.Order) (_ domain.Order, err error) {
	tx, err := or.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders
		    (customer_name, customer_address, customer_phone, total_amount, status, order_date)
		VALUES
		    ($1, $2, $3, $4, $5, NOW())
		RETURNING id, order_date
	`,
		order.CustomerName,
		order.CustomerAddress,
		order.CustomerPhone,
		order.TotalAmount,
		order.Status,
	).Scan(&order.ID, &order.OrderDate)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	if order.Items, err = insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	out := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		item.OrderID = orderID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, orderID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert item for product %d: %w", item.ProductID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Update rewrites the order header. When replaceItems is set the items are
// swapped for order.Items inside the same transaction.
func (or *OrderRepository) Update(ctx context.Context, order domain.Order, replaceItems bool) (_ domain.Order, err error) {
	tx, err := or.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		UPDATE orders
		SET customer_name = $1, customer_address = $2, customer_phone = $3, total_amount = $4, status = $5
		WHERE id = $6
		RETURNING order_date
	`,
		order.CustomerName,
		order.CustomerAddress,
		order.CustomerPhone,
		order.TotalAmount,
		order.Status,
		order.ID,
	).Scan(&order.OrderDate)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("order %d: %w", order.ID, domain.ErrNotFound)
		return domain.Order{}, err
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to update order %d: %w", order.ID, err)
	}

	if replaceItems {
		if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
			return domain.Order{}, fmt.Errorf("failed to clear items of order %d: %w", order.ID, err)
		}
		if order.Items, err = insertItems(ctx, tx, order.ID, order.Items); err != nil {
			return domain.Order{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

// UpdateStatus locks the row, writes the new status and commits. The
// returned order carries the new status and no items.
func (or *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) (_ domain.Order, err error) {
	tx, err := or.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	o, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		return domain.Order{}, err
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to lock order %d: %w", id, err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id); err != nil {
		return domain.Order{}, fmt.Errorf("failed to update status of order %d: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	o.Status = status
	return o, nil
}

func (or *OrderRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := or.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete items of order %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		err = fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
