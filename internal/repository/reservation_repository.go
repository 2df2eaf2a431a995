package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// ReservationRepo provides reads and writes for reservations and their
// line items.  Reservations group one or more reservation_items rows over a
// half-open period [start_date, end_date).  All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var reservationCols = []string{
	"id", "store_id", "number", "status", "start_date", "end_date", "customer_name", "customer_email",
	"subtotal", "deposit_amount", "total_amount", "deposit_status", "created_at", "updated_at",
}

var reservationColumns = strings.Join(reservationCols, ", ")

func scanReservation(scan func(dest ...any) error) (model.Reservation, error) {
	var r model.Reservation
	err := scan(&r.ID, &r.StoreID, &r.Number, &r.Status, &r.StartDate, &r.EndDate, &r.CustomerName,
		&r.CustomerEmail, &r.Subtotal, &r.DepositAmount, &r.TotalAmount, &r.DepositStatus,
		&r.CreatedAt, &r.UpdatedAt)
	r.StartDate = r.StartDate.UTC()
	r.EndDate = r.EndDate.UTC()
	return r, err
}

// ListOverlapping returns the store's reservations in one of the given
// statuses whose period overlaps [start, end), with their items loaded.
// The overlap predicate is the same half-open test the availability
// calculator re-applies in memory.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, storeID uint64, start, end time.Time, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	return r.listOverlapping(ctx, r.db, storeID, start, end, statuses, false)
}

func (r *ReservationRepo) listOverlapping(ctx context.Context, q queryer, storeID uint64, start, end time.Time, statuses []model.ReservationStatus, forUpdate bool) ([]model.Reservation, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	b := r.sb.
		Select(reservationCols...).
		From("reservations").
		Where(sq.Eq{"store_id": storeID, "status": statusStrings(statuses)}).
		Where(sq.Lt{"start_date": end.UTC()}).
		Where(sq.Gt{"end_date": start.UTC()}).
		OrderBy("id ASC")
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads reservation_items for every reservation in rs.
func (r *ReservationRepo) attachItems(ctx context.Context, q queryer, rs []model.Reservation) error {
	if len(rs) == 0 {
		return nil
	}
	ids := lo.Map(rs, func(res model.Reservation, _ int) uint64 { return res.ID })
	query, args, err := r.sb.
		Select("id", "reservation_id", "product_id", "quantity", "combination_key", "unit_price", "total_price", "description").
		From("reservation_items").
		Where(sq.Eq{"reservation_id": ids}).
		OrderBy("reservation_id ASC", "id ASC").
		ToSql()
	if err != nil {
		return err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byRes := make(map[uint64][]model.ReservationItem, len(rs))
	for rows.Next() {
		var (
			it        model.ReservationItem
			productID sql.NullInt64
			combo     sql.NullString
			desc      sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.ReservationID, &productID, &it.Quantity, &combo,
			&it.UnitPrice, &it.TotalPrice, &desc); err != nil {
			return err
		}
		if productID.Valid {
			v := uint64(productID.Int64)
			it.ProductID = &v
		}
		if combo.Valid {
			v := combo.String
			it.CombinationKey = &v
		}
		it.Description = desc.String
		byRes[it.ReservationID] = append(byRes[it.ReservationID], it)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range rs {
		rs[i].Items = byRes[rs[i].ID]
	}
	return nil
}

// GetByID returns a reservation of the given store with its items.
// ErrNotFound is returned when the id does not exist within the store.
func (r *ReservationRepo) GetByID(ctx context.Context, storeID, id uint64) (*model.Reservation, error) {
	return r.getByID(ctx, r.db, storeID, id, false)
}

func (r *ReservationRepo) getByID(ctx context.Context, q queryer, storeID, id uint64, forUpdate bool) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND store_id = ? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	res, err := scanReservation(q.QueryRowContext(ctx, query, id, storeID).Scan)
	if err != nil {
		return nil, notFound(err)
	}
	list := []model.Reservation{res}
	if err := r.attachItems(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// CheckoutFunc receives the blocking reservations overlapping the requested
// period, read under row locks, and returns the reservation to insert.
// Returning an error aborts the transaction.
type CheckoutFunc func(existing []model.Reservation) (*model.Reservation, error)

// Checkout runs the storefront checkout in one transaction: the overlapping
// blocking reservations are read with FOR UPDATE, build decides whether the
// new reservation fits, and the reservation and its items are inserted.
// A duplicate reservation number surfaces as ErrConflict.
func (r *ReservationRepo) Checkout(ctx context.Context, storeID uint64, start, end time.Time, blocking []model.ReservationStatus, build CheckoutFunc) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// An empty overlap set takes no row locks, so the store row serialises
	// concurrent checkouts of the same store.
	var locked uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM stores WHERE id = ? FOR UPDATE`, storeID).Scan(&locked); err != nil {
		return nil, notFound(err)
	}
	existing, err := r.listOverlapping(ctx, tx, storeID, start, end, blocking, true)
	if err != nil {
		return nil, err
	}
	res, err := build(existing)
	if err != nil {
		return nil, err
	}
	if err := r.insertTx(ctx, tx, res); err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// insertTx inserts the reservation and its items, populating generated ids.
func (r *ReservationRepo) insertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(store_id, number, status, start_date, end_date, customer_name, customer_email,
		 subtotal, deposit_amount, total_amount, deposit_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.StoreID, res.Number, res.Status, res.StartDate.UTC(), res.EndDate.UTC(),
		res.CustomerName, res.CustomerEmail, res.Subtotal, res.DepositAmount, res.TotalAmount, res.DepositStatus)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	if len(res.Items) == 0 {
		return nil
	}

	ins := r.sb.Insert("reservation_items").
		Columns("reservation_id", "product_id", "quantity", "combination_key", "unit_price", "total_price", "description")
	for i := range res.Items {
		it := &res.Items[i]
		it.ReservationID = res.ID
		ins = ins.Values(res.ID, it.ProductID, it.Quantity, it.CombinationKey, it.UnitPrice, it.TotalPrice, it.Description)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// Change lists what a MutateFunc asks Mutate to persist.  Nil fields are
// left untouched.
type Change struct {
	Status        *model.ReservationStatus
	DepositStatus *model.DepositStatus
	Payments      []model.Payment
}

// MutateFunc inspects a locked reservation and its payments and returns
// the change to apply.  Returning an error aborts the transaction.
type MutateFunc func(res *model.Reservation, payments []model.Payment) (Change, error)

// Mutate locks a reservation row, loads its payments and applies the change
// returned by fn in the same transaction.  This serialises concurrent
// payment recording and status changes on one reservation.  The updated
// reservation and its full payment list are returned.
func (r *ReservationRepo) Mutate(ctx context.Context, storeID, id uint64, fn MutateFunc) (*model.Reservation, []model.Payment, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := r.getByID(ctx, tx, storeID, id, true)
	if err != nil {
		return nil, nil, err
	}
	payments, err := listPayments(ctx, tx, res.ID)
	if err != nil {
		return nil, nil, err
	}
	change, err := fn(res, payments)
	if err != nil {
		return nil, nil, err
	}

	set := sq.Eq{}
	if change.Status != nil {
		set["status"] = string(*change.Status)
		res.Status = *change.Status
	}
	if change.DepositStatus != nil {
		set["deposit_status"] = string(*change.DepositStatus)
		res.DepositStatus = *change.DepositStatus
	}
	if len(set) > 0 {
		query, args, err := r.sb.Update("reservations").SetMap(set).Where(sq.Eq{"id": res.ID}).ToSql()
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, nil, err
		}
	}
	for i := range change.Payments {
		p := &change.Payments[i]
		p.ReservationID = res.ID
		if err := insertPayment(ctx, tx, p); err != nil {
			return nil, nil, err
		}
		payments = append(payments, *p)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return res, payments, nil
}

func statusStrings(in []model.ReservationStatus) []string {
	return lo.Map(in, func(s model.ReservationStatus, _ int) string { return string(s) })
}
