package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type taskRepoPG struct{ pool *pgxpool.Pool }

func NewTaskRepoPG(pool *pgxpool.Pool) TaskRepository {
	return &taskRepoPG{pool: pool}
}

const taskCols = `id, patient_id, case_label, title, priority, status,
	due_at, completed_at, created_at, updated_at`

func (r *taskRepoPG) scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.PatientID, &t.CaseLabel, &t.Title, &t.Priority, &t.Status,
		&t.DueAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *taskRepoPG) Create(ctx context.Context, t *Task) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO task (id, patient_id, case_label, title, priority, status, due_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.PatientID, t.CaseLabel, t.Title, t.Priority, t.Status, t.DueAt)
	return err
}

func (r *taskRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return r.scanTask(r.pool.QueryRow(ctx, `SELECT `+taskCols+` FROM task WHERE id = $1`, id))
}

func (r *taskRepoPG) Update(ctx context.Context, t *Task) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE task SET title=$2, priority=$3, status=$4, due_at=$5, completed_at=$6, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Title, t.Priority, t.Status, t.DueAt, t.CompletedAt)
	return err
}

func (r *taskRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM task WHERE id = $1`, id)
	return err
}

func (r *taskRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskCols+` FROM task
		WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	return collect(rows, r.scanTask)
}

func (r *taskRepoPG) ListOpen(ctx context.Context) ([]*Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskCols+` FROM task
		WHERE status IN ('pending', 'in_progress') ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collect(rows, r.scanTask)
}

func (r *taskRepoPG) CountOpenByPatient(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT patient_id, COUNT(*) FROM task
		WHERE status IN ('pending', 'in_progress') AND patient_id IS NOT NULL
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

func collect(rows pgx.Rows, scan func(pgx.Row) (*Task, error)) ([]*Task, error) {
	defer rows.Close()
	var items []*Task
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
