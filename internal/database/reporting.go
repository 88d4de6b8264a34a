package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ReportingDB is a read-only connection to the Postgres reporting
// replica. The admin dashboard queries it so analytical scans never
// touch the primary store. Optional: the API runs without it.
type ReportingDB struct {
	conn *sqlx.DB
}

func NewReportingDB(host, port, user, password, dbname, sslmode string) (*ReportingDB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &ReportingDB{conn: conn}, nil
}

func (r *ReportingDB) Close() error {
	return r.conn.Close()
}

// StatusCount is one row of the marketplace-wide status breakdown.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int64  `db:"count" json:"count"`
}

// ListingStatusBreakdown returns listing counts per lifecycle status
// across the whole marketplace.
func (r *ReportingDB) ListingStatusBreakdown() ([]StatusCount, error) {
	var rows []StatusCount
	err := r.conn.Select(&rows, `
		SELECT status, COUNT(*) AS count
		FROM listings
		WHERE deleted_at IS NULL
		GROUP BY status
		ORDER BY count DESC`)
	return rows, err
}

// CategoryCount is one row of the active-listing category breakdown.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int64  `db:"count" json:"count"`
}

// TopCategories returns the most listed machine categories among
// publicly visible listings.
func (r *ReportingDB) TopCategories(limit int) ([]CategoryCount, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []CategoryCount
	err := r.conn.Select(&rows, `
		SELECT category, COUNT(*) AS count
		FROM listings
		WHERE status = 'active' AND deleted_at IS NULL AND category <> ''
		GROUP BY category
		ORDER BY count DESC
		LIMIT $1`, limit)
	return rows, err
}

// DailyCount is one day of creation volume.
type DailyCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int64     `db:"count" json:"count"`
}

// ListingsCreatedSince returns daily listing creation counts for the
// last n days.
func (r *ReportingDB) ListingsCreatedSince(days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	var rows []DailyCount
	err := r.conn.Select(&rows, `
		SELECT date_trunc('day', created_at) AS day, COUNT(*) AS count
		FROM listings
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY day
		ORDER BY day`, days)
	return rows, err
}
