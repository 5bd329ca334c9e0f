package repository

import (
	"context"
	"time"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamAttemptRepository handles exam attempt data access.
type ExamAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewExamAttemptRepository creates a new ExamAttemptRepository.
func NewExamAttemptRepository(pool *pgxpool.Pool) *ExamAttemptRepository {
	return &ExamAttemptRepository{pool: pool}
}

// GetByCandidate retrieves the candidate's attempt, if any.
func (r *ExamAttemptRepository) GetByCandidate(ctx context.Context, candidateID int) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, started_at, finished_at, completed, auto_submitted
		 FROM exam_attempts
		 WHERE candidate_id = $1`, candidateID,
	).Scan(&a.ID, &a.CandidateID, &a.StartedAt, &a.FinishedAt, &a.Completed, &a.AutoSubmitted)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new attempt (the candidate starts the exam). The unique
// constraint on candidate_id makes concurrent starts collapse into one row;
// pgx.ErrNoRows signals the row already existed.
func (r *ExamAttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (candidate_id)
		 VALUES ($1)
		 ON CONFLICT (candidate_id) DO NOTHING
		 RETURNING id, started_at`,
		a.CandidateID,
	).Scan(&a.ID, &a.StartedAt)
}

// Complete marks an attempt as submitted. Returns the number of rows changed;
// zero means the attempt was already completed (duplicate submit).
func (r *ExamAttemptRepository) Complete(ctx context.Context, candidateID int, autoSubmitted bool) (int64, error) {
	now := time.Now()
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET completed = TRUE, auto_submitted = $1, finished_at = $2
		 WHERE candidate_id = $3 AND completed = FALSE`,
		autoSubmitted, now, candidateID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListResults retrieves all attempts joined with candidate info and answer
// counts, for the HR results view.
func (r *ExamAttemptRepository) ListResults(ctx context.Context) ([]model.AttemptResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.email, ea.started_at, ea.finished_at,
		        ea.completed, ea.auto_submitted,
		        (SELECT COUNT(*) FROM exam_answers x WHERE x.candidate_id = c.id)
		 FROM exam_attempts ea
		 JOIN candidates c ON ea.candidate_id = c.id
		 ORDER BY ea.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.AttemptResult
	for rows.Next() {
		var res model.AttemptResult
		if err := rows.Scan(
			&res.CandidateID, &res.Name, &res.Email, &res.StartedAt, &res.FinishedAt,
			&res.Completed, &res.AutoSubmitted, &res.AnswerCount,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
