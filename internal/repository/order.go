package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceOrder writes the order, its lines and the order.placed outbox event
// and clears the cart, all in one transaction. The line amounts are stored
// as given. On success order.ID is set.
func (r *Repository) PlaceOrder(ctx context.Context, order *domain.Order) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin checkout", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, created_at, ship_address, ship_city, ship_zip)
		 VALUES ($1, $2, $3, $4, $5) RETURNING order_id`,
		order.UserID,
		order.CreatedAt,
		order.ShipTo.Address,
		order.ShipTo.City,
		order.ShipTo.Zip,
	).Scan(&order.ID)
	if err != nil {
		return classify("insert order", err)
	}

	for _, l := range order.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, isbn, qty, amount) VALUES ($1, $2, $3, $4)`,
			order.ID, l.ISBN, l.Quantity, l.Amount)
		if err != nil {
			return classify("insert order line", err)
		}
	}

	if err := insertOrderPlaced(ctx, tx, order); err != nil {
		return err
	}

	if err := clearCart(ctx, tx, order.UserID, order.Lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit checkout", err)
	}
	return nil
}

func insertOrderPlaced(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	payload, err := json.Marshal(domain.OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Lines:     order.Lines,
		Total:     order.Total(),
		ShipTo:    order.ShipTo,
		PlacedAt:  order.CreatedAt,
		EventType: domain.EventOrderPlaced,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(),
		strconv.FormatInt(order.ID, 10),
		domain.EventOrderPlaced,
		string(payload),
		order.CreatedAt)
	if err != nil {
		return classify("insert outbox event", err)
	}
	return nil
}

const orderColumns = "order_id, user_id, created_at, ship_address, ship_city, ship_zip"

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.CreatedAt, &o.ShipTo.Address, &o.ShipTo.City, &o.ShipTo.Zip)
	if err != nil {
		return nil, err
	}
	o.Lines = []domain.OrderLine{}
	return &o, nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE order_id = $1", orderID))
	if err != nil {
		return nil, classify(fmt.Sprintf("get order %d", orderID), err)
	}

	err = r.loadOrderLines(ctx,
		`WHERE ol.order_id = $1`, []any{orderID},
		map[int64]*domain.Order{order.ID: order})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the user's orders newest first.
func (r *Repository) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC, order_id DESC",
		userID)
	if err != nil {
		return nil, classify("query orders by user id", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	byID := make(map[int64]*domain.Order)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify("scan order row", err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate orders", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	err = r.loadOrderLines(ctx,
		`JOIN orders o ON o.order_id = ol.order_id WHERE o.user_id = $1`, []any{userID},
		byID)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) loadOrderLines(ctx context.Context, where string, args []any, byID map[int64]*domain.Order) error {
	query := `SELECT ol.order_id, ol.isbn, COALESCE(b.title, ''), ol.qty, ol.amount
	          FROM order_lines ol LEFT JOIN books b ON b.isbn = ol.isbn ` + where +
		` ORDER BY ol.order_id, ol.isbn`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return classify("query order lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			l       domain.OrderLine
		)
		if err := rows.Scan(&orderID, &l.ISBN, &l.Title, &l.Quantity, &l.Amount); err != nil {
			return classify("scan order line", err)
		}
		if l.Quantity > 0 {
			l.UnitPrice = l.Amount.DivRound(decimal.NewFromInt(int64(l.Quantity)), 2)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return classify("iterate order lines", err)
	}
	return nil
}

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// GetUnpublishedEvents returns up to limit events that have not been
// published yet, oldest first.
func (r *Repository) GetUnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE published_at IS NULL
		 ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, classify("query outbox", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, classify("scan outbox event", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate outbox", err)
	}
	return events, nil
}

func (r *Repository) MarkEventPublished(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET published_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return classify("mark event published", err)
	}
	return nil
}
