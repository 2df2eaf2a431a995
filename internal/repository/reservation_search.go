package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// ReservationSearchQuery defines filters & pagination for the dashboard
// reservation list.
type ReservationSearchQuery struct {
	StoreID  uint64
	Status   string // empty or "all" disables the filter
	Period   string // upcoming, ongoing, past or all
	Search   string // matches number, customer name or email
	Sort     string // newest, oldest, start_asc, start_desc
	Page     int
	PageSize int
	Now      time.Time
}

// ReservationPage is one page of search results.  Counts holds the number
// of matching reservations per status, ignoring the status filter, so the
// dashboard can render its status tabs.
type ReservationPage struct {
	Rows   []model.Reservation
	Total  int64
	Counts map[model.ReservationStatus]int64
}

var reservationSorts = map[string]string{
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"start_asc":  "start_date ASC",
	"start_desc": "start_date DESC",
}

// likeEscaper makes user input literal inside a LIKE pattern using '!' as
// the escape character, which does not depend on NO_BACKSLASH_ESCAPES.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search lists the store's reservations matching q.
func (r *ReservationRepo) Search(ctx context.Context, q ReservationSearchQuery) (ReservationPage, error) {
	base := sq.And{sq.Eq{"store_id": q.StoreID}}

	now := q.Now.UTC()
	switch strings.ToLower(q.Period) {
	case "upcoming":
		base = append(base, sq.Gt{"start_date": now})
	case "ongoing":
		base = append(base, sq.LtOrEq{"start_date": now}, sq.Gt{"end_date": now})
	case "past":
		base = append(base, sq.LtOrEq{"end_date": now})
	}

	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		base = append(base, sq.Or{
			sq.Expr("LOWER(number) LIKE ? ESCAPE '!'", like),
			sq.Expr("LOWER(customer_name) LIKE ? ESCAPE '!'", like),
			sq.Expr("LOWER(customer_email) LIKE ? ESCAPE '!'", like),
		})
	}

	page := ReservationPage{Counts: make(map[model.ReservationStatus]int64, len(model.ReservationStatuses))}

	countSQL, countArgs, err := r.sb.
		Select("status", "COUNT(*)").
		From("reservations").
		Where(base).
		GroupBy("status").
		ToSql()
	if err != nil {
		return page, err
	}
	rows, err := r.db.QueryContext(ctx, countSQL, countArgs...)
	if err != nil {
		return page, err
	}
	for rows.Next() {
		var (
			status model.ReservationStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return page, err
		}
		page.Counts[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return page, err
	}

	cond := base
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status != "" && status != "all" {
		cond = append(cond, sq.Eq{"status": status})
		page.Total = page.Counts[model.ReservationStatus(status)]
	} else {
		for _, n := range page.Counts {
			page.Total += n
		}
	}

	order, ok := reservationSorts[q.Sort]
	if !ok {
		order = reservationSorts["newest"]
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL, dataArgs, err := r.sb.
		Select(reservationCols...).
		From("reservations").
		Where(cond).
		OrderBy(order, "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return page, err
	}

	dataRows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return page, err
	}
	defer dataRows.Close()

	page.Rows = make([]model.Reservation, 0, limit)
	for dataRows.Next() {
		res, err := scanReservation(dataRows.Scan)
		if err != nil {
			return page, err
		}
		page.Rows = append(page.Rows, res)
	}
	if err := dataRows.Err(); err != nil {
		return page, err
	}
	if err := r.attachItems(ctx, r.db, page.Rows); err != nil {
		return page, err
	}
	return page, nil
}
