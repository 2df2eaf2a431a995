package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// PaymentRepo reads the payment ledger of reservations.  Payments are
// written through ReservationRepo.Mutate so that validation against the
// ledger happens under the reservation row lock.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// ListByReservation returns every payment of a reservation in insertion
// order.  The caller is responsible for store scoping.
func (r *PaymentRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Payment, error) {
	return listPayments(ctx, r.db, reservationID)
}

func listPayments(ctx context.Context, q queryer, reservationID uint64) ([]model.Payment, error) {
	const query = `SELECT id, reservation_id, type, method, status, amount, notes, paid_at, created_at
		FROM payments WHERE reservation_id = ? ORDER BY id ASC`
	rows, err := q.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var (
			p      model.Payment
			notes  sql.NullString
			paidAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.ReservationID, &p.Type, &p.Method, &p.Status, &p.Amount,
			&notes, &paidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if notes.Valid {
			v := notes.String
			p.Notes = &v
		}
		if paidAt.Valid {
			v := paidAt.Time.UTC()
			p.PaidAt = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func insertPayment(ctx context.Context, q queryer, p *model.Payment) error {
	const query = `INSERT INTO payments (reservation_id, type, method, status, amount, notes, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, query, p.ReservationID, p.Type, p.Method, p.Status, p.Amount, p.Notes, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}
