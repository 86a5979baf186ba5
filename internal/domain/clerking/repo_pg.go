package clerking

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type draftRepoPG struct{ pool *pgxpool.Pool }

func NewDraftRepoPG(pool *pgxpool.Pool) DraftRepository {
	return &draftRepoPG{pool: pool}
}

const draftCols = `id, patient_id, case_label, patient_name, history, examination,
	problem_list, plan, status, finalized_at, created_at, updated_at`

func scanDraft(row pgx.Row) (*Draft, error) {
	var d Draft
	err := row.Scan(&d.ID, &d.PatientID, &d.CaseLabel, &d.PatientName, &d.History,
		&d.Examination, &d.ProblemList, &d.Plan, &d.Status, &d.FinalizedAt,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *draftRepoPG) Create(ctx context.Context, d *Draft) error {
	d.ID = uuid.New()
	d.Status = StatusDraft
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clerking_draft (id, patient_id, case_label, patient_name,
			history, examination, problem_list, plan, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.PatientID, d.CaseLabel, d.PatientName,
		d.History, d.Examination, d.ProblemList, d.Plan, d.Status)
	return err
}

func (r *draftRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return scanDraft(r.pool.QueryRow(ctx, `SELECT `+draftCols+` FROM clerking_draft WHERE id = $1`, id))
}

// Save writes the editable fields. Finalized drafts are immutable; the
// WHERE clause makes a late autosave against one a no-op.
func (r *draftRepoPG) Save(ctx context.Context, d *Draft) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE clerking_draft
		SET patient_id=$2, patient_name=$3, history=$4, examination=$5,
			problem_list=$6, plan=$7, updated_at=NOW()
		WHERE id = $1 AND status = 'draft'`,
		d.ID, d.PatientID, d.PatientName, d.History, d.Examination, d.ProblemList, d.Plan)
	return err
}

func (r *draftRepoPG) Finalize(ctx context.Context, id uuid.UUID) (*Draft, error) {
	return scanDraft(r.pool.QueryRow(ctx, `
		UPDATE clerking_draft
		SET status='finalized', finalized_at=NOW(), updated_at=NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING `+draftCols, id))
}

func (r *draftRepoPG) ListOpen(ctx context.Context) ([]*Draft, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+draftCols+` FROM clerking_draft
		WHERE status = 'draft' ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
