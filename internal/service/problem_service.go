package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ErrProblemNotFound is returned when a problem id does not exist.
var ErrProblemNotFound = errors.New("problem not found")

// ProblemService handles problem content management.
type ProblemService struct {
	problemRepo *repository.ProblemRepository
	log         zerolog.Logger
}

// NewProblemService creates a new ProblemService.
func NewProblemService(problemRepo *repository.ProblemRepository, log zerolog.Logger) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		log:         log.With().Str("component", "problem_service").Logger(),
	}
}

// Get retrieves a full problem by id.
func (s *ProblemService) Get(ctx context.Context, id string) (*model.Problem, error) {
	p, err := s.problemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProblemNotFound
		}
		return nil, fmt.Errorf("get problem: %w", err)
	}
	return p, nil
}

// List retrieves problem summaries, optionally filtered by language.
func (s *ProblemService) List(ctx context.Context, language model.Language) ([]model.ProblemSummary, error) {
	problems, err := s.problemRepo.List(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	if problems == nil {
		problems = []model.ProblemSummary{}
	}
	return problems, nil
}

// Create adds a new problem from a validated HR request.
func (s *ProblemService) Create(ctx context.Context, req *model.CreateProblemRequest) (*model.Problem, error) {
	timeLimit := req.TimeLimit
	if timeLimit == 0 {
		timeLimit = 15
	}

	p := &model.Problem{
		ID:           req.ID,
		Title:        req.Title,
		Language:     model.Language(req.Language),
		Difficulty:   req.Difficulty,
		Marks:        req.Marks,
		TimeLimit:    timeLimit,
		Statement:    req.Statement,
		InputFormat:  req.InputFormat,
		OutputFormat: req.OutputFormat,
		SampleInput:  req.SampleInput,
		SampleOutput: req.SampleOutput,
		StarterCode:  req.StarterCode,
	}

	if err := s.problemRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create problem: %w", err)
	}

	s.log.Info().Str("problem_id", p.ID).Str("language", string(p.Language)).Msg("Problem created")
	return p, nil
}

// Delete removes a problem by id.
func (s *ProblemService) Delete(ctx context.Context, id string) error {
	deleted, err := s.problemRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	if deleted == 0 {
		return ErrProblemNotFound
	}
	return nil
}
