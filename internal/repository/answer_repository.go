package repository

import (
	"context"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository handles persisted exam answers (the durable copy of a
// candidate's per-problem code, written by autosave and by submission).
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert writes the latest code for one (candidate, problem) pair.
// Last write wins, matching the at-most-one-record-per-problem invariant.
func (r *AnswerRepository) Upsert(ctx context.Context, candidateID int, problemID, code, language string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_answers (candidate_id, problem_id, code, language)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (candidate_id, problem_id) DO UPDATE
		 SET code = EXCLUDED.code, language = EXCLUDED.language, updated_at = NOW()`,
		candidateID, problemID, code, language)
	return err
}

// ListByCandidate returns all stored answers for a candidate, ordered by
// problem id.
func (r *AnswerRepository) ListByCandidate(ctx context.Context, candidateID int) ([]model.SubmittedAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT problem_id, code, language
		 FROM exam_answers
		 WHERE candidate_id = $1
		 ORDER BY problem_id`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.SubmittedAnswer
	for rows.Next() {
		var a model.SubmittedAnswer
		if err := rows.Scan(&a.ProblemID, &a.Code, &a.Language); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
