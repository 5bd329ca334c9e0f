package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session.
func (r *CacheKeyStruct) CandidateSessionKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// ExamStartKey returns the cache key for a candidate's exam start time.
func (r *CacheKeyStruct) ExamStartKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:exam_start", candidateID)
}

// ExamAnswersKey returns the cache key for a candidate's autosaved answers.
func (r *CacheKeyStruct) ExamAnswersKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:exam_answers", candidateID)
}

var CacheKey = NewCacheKeyStruct()
