package repository

import (
	"context"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProblemRepository handles problem content data access.
type ProblemRepository struct {
	pool *pgxpool.Pool
}

// NewProblemRepository creates a new ProblemRepository.
func NewProblemRepository(pool *pgxpool.Pool) *ProblemRepository {
	return &ProblemRepository{pool: pool}
}

const problemColumns = `id, title, language, difficulty, marks, time_limit,
	statement, input_format, output_format, sample_input, sample_output,
	starter_code, created_at`

func scanProblem(row interface{ Scan(...any) error }) (*model.Problem, error) {
	p := &model.Problem{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Language, &p.Difficulty, &p.Marks, &p.TimeLimit,
		&p.Statement, &p.InputFormat, &p.OutputFormat, &p.SampleInput,
		&p.SampleOutput, &p.StarterCode, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a full problem by id.
func (r *ProblemRepository) GetByID(ctx context.Context, id string) (*model.Problem, error) {
	return scanProblem(r.pool.QueryRow(ctx,
		`SELECT `+problemColumns+` FROM problems WHERE id = $1`, id))
}

// List retrieves summaries of all problems, optionally filtered by language.
// Pass an empty language to list everything.
func (r *ProblemRepository) List(ctx context.Context, language model.Language) ([]model.ProblemSummary, error) {
	query := `SELECT id, title, language, difficulty, marks, time_limit
		FROM problems`
	args := []any{}
	if language != "" {
		query += ` WHERE language = $1`
		args = append(args, language)
	}
	query += ` ORDER BY language, difficulty, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []model.ProblemSummary
	for rows.Next() {
		var p model.ProblemSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Language, &p.Difficulty, &p.Marks, &p.TimeLimit); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// Create inserts a new problem authored by HR.
func (r *ProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO problems (id, title, language, difficulty, marks, time_limit,
			statement, input_format, output_format, sample_input, sample_output, starter_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		p.ID, p.Title, p.Language, p.Difficulty, p.Marks, p.TimeLimit,
		p.Statement, p.InputFormat, p.OutputFormat, p.SampleInput, p.SampleOutput, p.StarterCode,
	).Scan(&p.CreatedAt)
}

// Delete removes a problem. Returns the number of rows deleted.
func (r *ProblemRepository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
