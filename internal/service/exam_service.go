package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hirewell/codeassess/internal/config"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exam lifecycle errors.
var (
	ErrNoAttempt   = errors.New("exam has not been started")
	ErrTimeExpired = errors.New("exam time has expired")
)

// ExamService owns the server-authoritative exam attempt lifecycle:
// starting the attempt, reporting status with computed remaining time,
// autosaving answers, and accepting the final submission.
type ExamService struct {
	attemptRepo *repository.ExamAttemptRepository
	answerRepo  *repository.AnswerRepository
	problemRepo *repository.ProblemRepository
	rdb         *redis.Client
	cfg         *config.Config
	log         zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	attemptRepo *repository.ExamAttemptRepository,
	answerRepo *repository.AnswerRepository,
	problemRepo *repository.ProblemRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		problemRepo: problemRepo,
		rdb:         rdb,
		cfg:         cfg,
		log:         log.With().Str("component", "exam_service").Logger(),
	}
}

// Start begins the candidate's attempt, or returns the existing one if the
// exam was already started (refresh, second device). The start time is cached
// in Redis so hot paths (autosave, the countdown stream) can compute the
// remaining time without touching PostgreSQL.
func (s *ExamService) Start(ctx context.Context, candidateID int) (*model.ExamStatus, error) {
	attempt := &model.ExamAttempt{CandidateID: candidateID}

	err := s.attemptRepo.Create(ctx, attempt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("create attempt: %w", err)
		}
		// Concurrent or repeat start — reuse the existing attempt.
		attempt, err = s.attemptRepo.GetByCandidate(ctx, candidateID)
		if err != nil {
			return nil, fmt.Errorf("fetch existing attempt: %w", err)
		}
	}

	startKey := config.CacheKey.ExamStartKey(candidateID)
	if err := s.rdb.Set(ctx, startKey, attempt.StartedAt.Unix(), 0).Err(); err != nil {
		// Not fatal: Status self-heals the cache from PostgreSQL.
		s.log.Warn().Err(err).Int("candidate_id", candidateID).Msg("Failed to cache start time")
	}

	return s.statusOf(attempt), nil
}

// Status reports the authoritative attempt state. Clients call this on every
// page entry and must rebase their local countdown on RemainingSeconds.
func (s *ExamService) Status(ctx context.Context, candidateID int) (*model.ExamStatus, error) {
	attempt, err := s.attemptRepo.GetByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.ExamStatus{Status: model.StatusNotStarted}, nil
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	// Self-heal the cached start time for the hot paths. Completed attempts
	// must stay out of the cache or a later save could sneak past expiry.
	if !attempt.Completed {
		_ = s.rdb.Set(ctx, config.CacheKey.ExamStartKey(candidateID), attempt.StartedAt.Unix(), 0)
	}

	return s.statusOf(attempt), nil
}

// statusOf derives the client-facing status from an attempt row.
func (s *ExamService) statusOf(attempt *model.ExamAttempt) *model.ExamStatus {
	if attempt.Completed {
		return &model.ExamStatus{
			Status:    model.StatusCompleted,
			StartTime: attempt.StartedAt.Format(time.RFC3339),
		}
	}

	remaining := s.remainingFrom(attempt.StartedAt)
	status := model.StatusActive
	if remaining <= 0 {
		status = model.StatusExpired
		remaining = 0
	}

	return &model.ExamStatus{
		Status:           status,
		RemainingSeconds: remaining,
		StartTime:        attempt.StartedAt.Format(time.RFC3339),
	}
}

// remainingFrom computes whole seconds left, never negative.
func (s *ExamService) remainingFrom(startedAt time.Time) int {
	elapsed := time.Since(startedAt)
	remaining := s.cfg.ExamDuration - elapsed
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// CachedRemaining computes the remaining seconds from the Redis-cached start
// time, falling back to PostgreSQL on a cache miss (and re-priming the cache).
// Used by per-second paths that must not hammer the database.
func (s *ExamService) CachedRemaining(ctx context.Context, candidateID int) (int, error) {
	startKey := config.CacheKey.ExamStartKey(candidateID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		attempt, dbErr := s.attemptRepo.GetByCandidate(ctx, candidateID)
		if dbErr != nil {
			if errors.Is(dbErr, pgx.ErrNoRows) {
				return 0, ErrNoAttempt
			}
			return 0, fmt.Errorf("attempt not in cache or db: %w", dbErr)
		}
		if attempt.Completed {
			// The attempt is immutable; report no time left and keep the
			// cache cold.
			return 0, nil
		}
		_ = s.rdb.Set(ctx, startKey, attempt.StartedAt.Unix(), 0)
		return s.remainingFrom(attempt.StartedAt), nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get start time: %w", err)
	}

	startUnix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid start time in cache: %w", err)
	}
	return s.remainingFrom(time.Unix(startUnix, 0)), nil
}

// answerCachePayload is the JSON stored per problem in the Redis answers hash
// and pushed onto the persist queue for the autosave worker.
type answerCachePayload struct {
	CandidateID int    `json:"candidate_id"`
	ProblemID   string `json:"problem_id"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

// SaveAnswer autosaves one answer while the attempt is active. The write goes
// to the Redis answers hash immediately and is queued for durable persistence
// by the autosave worker. Writes after expiry are rejected.
func (s *ExamService) SaveAnswer(ctx context.Context, candidateID int, problemID, code, language string) error {
	remaining, err := s.CachedRemaining(ctx, candidateID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return ErrTimeExpired
	}

	if language == "" {
		language = string(model.LanguagePython)
	}

	record, _ := json.Marshal(map[string]string{"code": code, "language": language})
	answersKey := config.CacheKey.ExamAnswersKey(candidateID)
	if err := s.rdb.HSet(ctx, answersKey, problemID, record).Err(); err != nil {
		return fmt.Errorf("cache answer: %w", err)
	}

	payload, _ := json.Marshal(answerCachePayload{
		CandidateID: candidateID,
		ProblemID:   problemID,
		Code:        code,
		Language:    language,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		// The Redis hash still holds the answer; submission will persist it.
		s.log.Warn().Err(err).Int("candidate_id", candidateID).Msg("Failed to queue answer persist")
	}

	return nil
}

// SubmitResult reports the outcome of Submit.
type SubmitResult struct {
	AlreadySubmitted bool   `json:"already_submitted"`
	AnswersStored    int    `json:"answers_stored"`
	Status           string `json:"status"`
}

// Submit finalizes the attempt with the full answer set. A duplicate submit
// is tolerated and acknowledged rather than rejected, so a client retry or a
// stray second auto-submit is harmless.
func (s *ExamService) Submit(ctx context.Context, candidateID int, req *model.SubmitExamRequest) (*SubmitResult, error) {
	changed, err := s.attemptRepo.Complete(ctx, candidateID, req.AutoSubmit)
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if changed == 0 {
		// Already completed earlier — check an attempt actually exists so a
		// submit without a start is still an error.
		if _, err := s.attemptRepo.GetByCandidate(ctx, candidateID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNoAttempt
			}
			return nil, fmt.Errorf("get attempt: %w", err)
		}
		return &SubmitResult{AlreadySubmitted: true, Status: "completed"}, nil
	}

	stored := 0
	for _, a := range req.Answers {
		language := a.Language
		if language == "" {
			language = string(model.LanguagePython)
		}
		if err := s.answerRepo.Upsert(ctx, candidateID, a.ProblemID, a.Code, language); err != nil {
			// Keep going: a partial store is better than dropping the rest.
			s.log.Error().Err(err).
				Int("candidate_id", candidateID).
				Str("problem_id", a.ProblemID).
				Msg("Failed to store submitted answer")
			continue
		}
		stored++
	}

	// Drop the per-attempt cache entries; the attempt is immutable now.
	s.rdb.Del(ctx,
		config.CacheKey.ExamAnswersKey(candidateID),
		config.CacheKey.ExamStartKey(candidateID),
	)

	s.log.Info().
		Int("candidate_id", candidateID).
		Int("answers", stored).
		Bool("auto_submit", req.AutoSubmit).
		Msg("Exam submitted")

	return &SubmitResult{AnswersStored: stored, Status: "completed"}, nil
}

// Summary builds the pre-exam overview of the paper.
func (s *ExamService) Summary(ctx context.Context) (*model.ExamSummary, error) {
	problems, err := s.problemRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}

	summary := &model.ExamSummary{Problems: problems}
	for _, p := range problems {
		summary.TotalQuestions++
		summary.TotalMarks += p.Marks
		switch p.Language {
		case model.LanguagePython:
			summary.PythonQuestions++
		case model.LanguageSQL:
			summary.SQLQuestions++
		}
	}
	return summary, nil
}

// Results lists all attempts for the HR review screen.
func (s *ExamService) Results(ctx context.Context) ([]model.AttemptResult, error) {
	return s.attemptRepo.ListResults(ctx)
}

// Answers returns the persisted answer set for one candidate (HR review).
func (s *ExamService) Answers(ctx context.Context, candidateID int) ([]model.SubmittedAnswer, error) {
	return s.answerRepo.ListByCandidate(ctx, candidateID)
}
