package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-rental/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var (
	t0 = time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	t1 = time.Date(2026, 10, 22, 9, 0, 0, 0, time.UTC)
)

func reservationRow(id uint64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).AddRow(
		id, 1, "R-0001", status, t0, t1, "Ada", "ada@example.com",
		"84.00", "50.00", "134.00", "none", t0, t0,
	)
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "reservation_id", "product_id", "quantity", "combination_key", "unit_price", "total_price", "description"})
}

func TestStoreRepo_GetBySlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStoreRepo(db)

	settings := []byte(`{"pendingBlocksAvailability":false,"advanceNoticeMinutes":60,
		"businessHours":{"enabled":true,"schedule":[{"isOpen":false},{"isOpen":true,"openTime":"09:00","closeTime":"18:00"}]}}`)
	mock.ExpectQuery(regexp.QuoteMeta("FROM stores WHERE slug = ?")).
		WithArgs("bike-shop").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "timezone", "settings", "created_at", "updated_at"}).
			AddRow(7, "bike-shop", "Bike Shop", "Europe/Paris", settings, t0, t0))

	s, err := repo.GetBySlug(context.Background(), "  Bike-Shop ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), s.ID)
	assert.Equal(t, "Europe/Paris", s.Timezone)
	assert.False(t, s.Settings.PendingBlocks())
	assert.Equal(t, 60, s.Settings.AdvanceNoticeMinutes)
	assert.True(t, s.Settings.BusinessHours.Enabled)
	assert.True(t, s.Settings.BusinessHours.Schedule[1].IsOpen)
	assert.Equal(t, "18:00", s.Settings.BusinessHours.Schedule[1].CloseTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRepo_GetBySlug_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM stores").WillReturnError(sql.ErrNoRows)

	_, err := NewStoreRepo(db).GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepo_ListActive(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "name", "price", "deposit", "quantity", "track_units",
			"pricing_mode", "base_period_minutes", "booking_attribute_axes", "status", "created_at", "updated_at"}).
			AddRow(1, 7, "Kayak", "10.00", "50.00", 3, false, "day", nil, nil, "active", t0, t0).
			AddRow(2, 7, "Bike", "4.00", "0", 0, true, "hour", 60, []byte(`[{"key":"size","label":"Size"}]`), "active", t0, t0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_pricing_tiers")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "min_duration", "discount_percent", "period", "price", "display_order"}).
			AddRow(10, 1, 3, "10", nil, nil, 0).
			AddRow(11, 2, 0, "0", 240, "12.00", 0))

	products, err := repo.ListActive(context.Background(), 7, []uint64{1, 2})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.False(t, products[0].IsRateBased())
	require.Len(t, products[0].Tiers, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(products[0].Tiers[0].DiscountPercent))

	assert.True(t, products[1].IsRateBased())
	assert.Equal(t, []model.AttributeAxis{{Key: "size", Label: "Size"}}, products[1].BookingAttributeAxes)
	require.Len(t, products[1].Tiers, 1)
	require.NotNil(t, products[1].Tiers[0].Period)
	assert.Equal(t, 240, *products[1].Tiers[0].Period)
	assert.Equal(t, "12", products[1].Tiers[0].Price.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_UnitsByProduct(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_units")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "identifier", "status", "attributes"}).
			AddRow(1, 2, "B-1", "available", []byte(`{"size":"M"}`)).
			AddRow(2, 2, nil, "maintenance", nil))

	units, err := NewProductRepo(db).UnitsByProduct(context.Background(), []uint64{2})
	require.NoError(t, err)
	require.Len(t, units[2], 2)
	assert.Equal(t, "M", units[2][0].Attributes["size"])
	assert.Equal(t, model.UnitMaintenance, units[2][1].Status)
}

func TestReservationRepo_ListOverlapping(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE")).
		WithArgs("pending", "confirmed", uint64(7), t1, t0).
		WillReturnRows(reservationRow(5, "confirmed"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation_items")).
		WillReturnRows(itemRows().
			AddRow(1, 5, 1, 2, nil, "42.00", "84.00", "Kayak").
			AddRow(2, 5, nil, 1, nil, "5.00", "5.00", "Delivery"))

	got, err := repo.ListOverlapping(context.Background(), 7, t0, t1,
		[]model.ReservationStatus{model.StatusPending, model.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Items, 2)
	assert.Equal(t, uint64(1), *got[0].Items[0].ProductID)
	assert.Nil(t, got[0].Items[1].ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ListOverlapping_NoStatuses(t *testing.T) {
	db, mock := newMock(t)
	got, err := NewReservationRepo(db).ListOverlapping(context.Background(), 7, t0, t1, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_Checkout_Commits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM stores WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM reservations WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservation_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pid := uint64(1)
	res, err := repo.Checkout(context.Background(), 7, t0, t1,
		[]model.ReservationStatus{model.StatusConfirmed},
		func(existing []model.Reservation) (*model.Reservation, error) {
			assert.Empty(t, existing)
			return &model.Reservation{
				StoreID: 7, Number: "R-1", Status: model.StatusPending, StartDate: t0, EndDate: t1,
				Items: []model.ReservationItem{{ProductID: &pid, Quantity: 1}},
			}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.ID)
	assert.Equal(t, uint64(42), res.Items[0].ReservationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_Checkout_RollsBackOnBuildError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)
	boom := errors.New("short")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM stores").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("FROM reservations").WillReturnRows(reservationRow(5, "confirmed"))
	mock.ExpectQuery("FROM reservation_items").WillReturnRows(itemRows())
	mock.ExpectRollback()

	_, err := repo.Checkout(context.Background(), 7, t0, t1,
		[]model.ReservationStatus{model.StatusConfirmed},
		func(existing []model.Reservation) (*model.Reservation, error) {
			assert.Len(t, existing, 1)
			return nil, boom
		})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_Checkout_DuplicateNumber(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM stores").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("FROM reservations").WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec("INSERT INTO reservations").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Checkout(context.Background(), 7, t0, t1,
		[]model.ReservationStatus{model.StatusConfirmed},
		func([]model.Reservation) (*model.Reservation, error) {
			return &model.Reservation{StoreID: 7, Number: "R-1"}, nil
		})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestReservationRepo_Mutate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ? AND store_id = ? LIMIT 1 FOR UPDATE")).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(reservationRow(5, "confirmed"))
	mock.ExpectQuery("FROM reservation_items").WillReturnRows(itemRows())
	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE reservation_id = ?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "type", "method", "status", "amount", "notes", "paid_at", "created_at"}).
			AddRow(1, 5, "rental", "cash", "completed", "40.00", nil, t0, t0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET deposit_status = ? WHERE id = ?")).
		WithArgs("pending", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	pending := model.DepositPending
	res, payments, err := repo.Mutate(context.Background(), 7, 5,
		func(res *model.Reservation, payments []model.Payment) (Change, error) {
			require.Len(t, payments, 1)
			assert.Equal(t, "40", payments[0].Amount.String())
			return Change{
				DepositStatus: &pending,
				Payments: []model.Payment{{
					Type: model.PaymentDepositHold, Method: model.MethodCard,
					Status: model.PaymentPending, Amount: decimal.NewFromInt(50),
				}},
			}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, model.DepositPending, res.DepositStatus)
	require.Len(t, payments, 2)
	assert.Equal(t, uint64(9), payments[1].ID)
	assert.Equal(t, uint64(5), payments[1].ReservationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_Mutate_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := NewReservationRepo(db).Mutate(context.Background(), 7, 5,
		func(*model.Reservation, []model.Payment) (Change, error) { return Change{}, nil })
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_Search(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM reservations WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("confirmed", 3))
	mock.ExpectQuery(`FROM reservations WHERE .*status = \?.*ORDER BY start_date ASC, id DESC LIMIT 10 OFFSET 10`).
		WillReturnRows(reservationRow(5, "confirmed"))
	mock.ExpectQuery("FROM reservation_items").WillReturnRows(itemRows())

	page, err := repo.Search(context.Background(), ReservationSearchQuery{
		StoreID: 7, Status: "confirmed", Period: "upcoming", Search: "ada",
		Sort: "start_asc", Page: 2, PageSize: 10, Now: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.Counts[model.StatusPending])
	require.Len(t, page.Rows, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_SearchEscapesWildcards(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	pattern := "%50!%!_off%"
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(number) LIKE ? ESCAPE '!'")).
		WithArgs(uint64(7), pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery("FROM reservations WHERE").
		WithArgs(uint64(7), pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	page, err := repo.Search(context.Background(), ReservationSearchQuery{StoreID: 7, Search: "50%_OFF", Now: t0})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	cols := []string{"user_id", "expires_at", "revoked_at"}
	now := t0

	t.Run("valid", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM refresh_tokens").WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, now.Add(time.Hour), nil))
		id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), id)
	})
	t.Run("expired", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM refresh_tokens").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, now, nil))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("revoked", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery("FROM refresh_tokens").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, now.Add(time.Hour), now))
		_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("owner@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, 7, "owner@example.com", "hash", model.RoleOwner, true, t0, t0))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), " Owner@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.StoreID)
	assert.Equal(t, model.RoleOwner, u.Role)
}
