package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ============================================================================
// SQL SOURCES — table "penguins" with the CSV column names
// ============================================================================
// SQLite rows come back in rowid order. Postgres tables need an "id"
// column to give a stable order.
// ============================================================================

const selectColumns = `species, island, bill_length_mm, bill_depth_mm, flipper_length_mm, body_mass_g, sex, year`

// nullable scan targets shared by both drivers.
type rawRow struct {
	species, island, sex                 *string
	billLength, billDepth, flipper, mass *float64
	year                                 *int64
}

func (r *rawRow) targets() []any {
	return []any{&r.species, &r.island, &r.billLength, &r.billDepth, &r.flipper, &r.mass, &r.sex, &r.year}
}

func (r *rawRow) penguin() (Penguin, error) {
	if r.species == nil {
		return Penguin{}, fmt.Errorf("%w: species is NULL", ErrUnknownSpecies)
	}
	if r.year == nil {
		return Penguin{}, fmt.Errorf("year is NULL")
	}
	return Penguin{
		Species:         *r.species,
		Island:          deref(r.island),
		BillLengthMM:    floatOrMissing(r.billLength),
		BillDepthMM:     floatOrMissing(r.billDepth),
		FlipperLengthMM: floatOrMissing(r.flipper),
		BodyMassG:       floatOrMissing(r.mass),
		Sex:             text(deref(r.sex)),
		Year:            int(*r.year),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrMissing(f *float64) float64 {
	if f == nil {
		return Missing()
	}
	return *f
}

func loadSQLite(ctx context.Context, path string) ([]Penguin, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT `+selectColumns+` FROM penguins ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select penguins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Penguin
	for rows.Next() {
		var r rawRow
		if err := rows.Scan(r.targets()...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p, err := r.penguin()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out)+1, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate penguins: %w", err)
	}
	return out, nil
}

func loadPostgres(ctx context.Context, dsn string) ([]Penguin, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx, `SELECT `+selectColumns+` FROM penguins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select penguins: %w", err)
	}
	defer rows.Close()

	var out []Penguin
	for rows.Next() {
		var r rawRow
		if err := rows.Scan(r.targets()...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p, err := r.penguin()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out)+1, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate penguins: %w", err)
	}
	return out, nil
}
