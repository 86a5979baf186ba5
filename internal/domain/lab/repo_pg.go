package lab

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type resultRepoPG struct{ pool *pgxpool.Pool }

func NewResultRepoPG(pool *pgxpool.Pool) ResultRepository {
	return &resultRepoPG{pool: pool}
}

const resultCols = `id, patient_id, name, value, unit, flag,
	observed_at, acknowledged_at, created_at`

func scanResult(row pgx.Row) (*Result, error) {
	var r Result
	err := row.Scan(&r.ID, &r.PatientID, &r.Name, &r.Value, &r.Unit, &r.Flag,
		&r.ObservedAt, &r.AcknowledgedAt, &r.CreatedAt)
	return &r, err
}

func (p *resultRepoPG) Create(ctx context.Context, r *Result) error {
	r.ID = uuid.New()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO lab_result (id, patient_id, name, value, unit, flag, observed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.PatientID, r.Name, r.Value, r.Unit, r.Flag, r.ObservedAt)
	return err
}

func (p *resultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	return scanResult(p.pool.QueryRow(ctx, `SELECT `+resultCols+` FROM lab_result WHERE id = $1`, id))
}

func (p *resultRepoPG) Acknowledge(ctx context.Context, id uuid.UUID) (*Result, error) {
	return scanResult(p.pool.QueryRow(ctx, `
		UPDATE lab_result SET acknowledged_at = COALESCE(acknowledged_at, NOW())
		WHERE id = $1
		RETURNING `+resultCols, id))
}

func (p *resultRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Result, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+resultCols+` FROM lab_result
		WHERE patient_id = $1 ORDER BY observed_at DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (p *resultRepoPG) UnackedCriticalByPatient(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := p.pool.Query(ctx, `SELECT patient_id, COUNT(*) FROM lab_result
		WHERE flag IN ('critical_high', 'critical_low') AND acknowledged_at IS NULL
		GROUP BY patient_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
