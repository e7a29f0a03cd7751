package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

const orderColumns = `id, external_transaction_id, gateway, producer_id, product_id, ticket_batch_id,
	buyer_user_id, buyer_email, buyer_name, attendees, status, payment_method, payout_status,
	amount_cents, original_price_cents, installments, platform_fee_cents, producer_share_cents,
	security_reserve_cents, paid_at, release_at, reserve_release_at, created_at, updated_at`

// OrderRepository implements ports.OrderRepository. Status changes are single
// conditional UPDATEs; the allowed predecessor list is the WHERE guard.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db ports.DBPort) *OrderRepository {
	return &OrderRepository{pool: db.GetDB()}
}

// GetByExternalID retrieves an order by gateway and gateway transaction id
func (r *OrderRepository) GetByExternalID(ctx context.Context, db ports.DBTX, gateway, externalID string) (*domain.Order, error) {
	row := conn(db, r.pool).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway = $1 AND external_transaction_id = $2`,
		gateway, externalID)

	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeOrderNotFound, "order not found", err).
			WithDetail("gateway", gateway).
			WithDetail("external_transaction_id", externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order by external id: %w", err)
	}
	return order, nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Order, error) {
	order, err := scanOrder(conn(db, r.pool).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeOrderNotFound, "order not found", err).WithDetail("order_id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// MarkPaid moves the order to paid and writes the settlement in one statement.
// When the guard matches nothing, the current row is returned with applied=false.
func (r *OrderRepository) MarkPaid(ctx context.Context, db ports.DBTX, orderID string, s *domain.Settlement, from []domain.OrderStatus) (*domain.Order, bool, error) {
	q := conn(db, r.pool)
	row := q.QueryRow(ctx, `
		UPDATE orders SET
			status = 'paid',
			payout_status = 'pending',
			paid_at = $2,
			release_at = $3,
			reserve_release_at = $4,
			platform_fee_cents = $5,
			producer_share_cents = $6,
			security_reserve_cents = $7,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($8)
		RETURNING `+orderColumns,
		orderID, s.PaidAt, s.ReleaseAt, s.ReserveReleaseAt,
		s.PlatformFeeCents, s.ProducerShareCents, s.SecurityReserveCents,
		statusStrings(from),
	)

	return r.applied(ctx, q, orderID, row, "mark order paid")
}

// TransitionStatus moves the order to status without touching settlement amounts
func (r *OrderRepository) TransitionStatus(ctx context.Context, db ports.DBTX, orderID string, to domain.OrderStatus, from []domain.OrderStatus, payout *domain.PayoutStatus) (*domain.Order, bool, error) {
	var payoutArg *string
	if payout != nil {
		p := string(*payout)
		payoutArg = &p
	}

	q := conn(db, r.pool)
	row := q.QueryRow(ctx, `
		UPDATE orders SET
			status = $2,
			payout_status = COALESCE($3::text, payout_status),
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)
		RETURNING `+orderColumns,
		orderID, string(to), payoutArg, statusStrings(from),
	)

	return r.applied(ctx, q, orderID, row, "transition order status")
}

func (r *OrderRepository) applied(ctx context.Context, q ports.DBTX, orderID string, row pgx.Row, op string) (*domain.Order, bool, error) {
	order, err := scanOrder(row)
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	current, err := r.GetByID(ctx, q, orderID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		attendees []byte
		status    string
		method    string
		payout    string
	)

	err := row.Scan(
		&o.ID, &o.ExternalTransactionID, &o.Gateway, &o.ProducerID, &o.ProductID, &o.TicketBatchID,
		&o.BuyerUserID, &o.BuyerEmail, &o.BuyerName, &attendees, &status, &method, &payout,
		&o.AmountCents, &o.OriginalPriceCents, &o.Installments, &o.PlatformFeeCents, &o.ProducerShareCents,
		&o.SecurityReserveCents, &o.PaidAt, &o.ReleaseAt, &o.ReserveReleaseAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PayoutStatus = domain.PayoutStatus(payout)

	if len(attendees) > 0 {
		if err := json.Unmarshal(attendees, &o.Attendees); err != nil {
			return nil, fmt.Errorf("unmarshal attendees: %w", err)
		}
	}

	return &o, nil
}
