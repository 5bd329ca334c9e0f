package model

import "time"

// Language enumerates the problem languages the platform supports.
type Language string

const (
	LanguagePython Language = "python"
	LanguageSQL    Language = "sql"
)

// Valid reports whether l is a supported problem language.
func (l Language) Valid() bool {
	return l == LanguagePython || l == LanguageSQL
}

// Problem is a single assessment problem as authored by HR.
type Problem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Language     Language  `json:"language"`
	Difficulty   string    `json:"difficulty"`
	Marks        int       `json:"marks"`
	TimeLimit    int       `json:"time_limit"` // suggested minutes, informational
	Statement    string    `json:"statement"`
	InputFormat  string    `json:"input_format,omitempty"`
	OutputFormat string    `json:"output_format,omitempty"`
	SampleInput  string    `json:"sample_input,omitempty"`
	SampleOutput string    `json:"sample_output,omitempty"`
	StarterCode  string    `json:"starter_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProblemSummary is the listing shape shown on section pages and the
// pre-exam dashboard (no statement or starter code).
type ProblemSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Language   Language `json:"language"`
	Difficulty string   `json:"difficulty"`
	Marks      int      `json:"marks"`
	TimeLimit  int      `json:"time_limit"`
}

// CreateProblemRequest is the HR payload for adding a problem.
// Malformed problem content is rejected here, before it can ever reach
// a candidate's exam flow.
type CreateProblemRequest struct {
	ID           string `json:"id" binding:"required,min=2,max=64"`
	Title        string `json:"title" binding:"required,min=3,max=200"`
	Language     string `json:"language" binding:"required,oneof=python sql"`
	Difficulty   string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Marks        int    `json:"marks" binding:"required,min=1,max=100"`
	TimeLimit    int    `json:"time_limit" binding:"omitempty,min=1,max=180"`
	Statement    string `json:"statement" binding:"required"`
	InputFormat  string `json:"input_format"`
	OutputFormat string `json:"output_format"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	StarterCode  string `json:"starter_code"`
}

// ExamSummary is the pre-exam overview of the whole paper.
type ExamSummary struct {
	TotalQuestions  int              `json:"total_questions"`
	PythonQuestions int              `json:"python_questions"`
	SQLQuestions    int              `json:"sql_questions"`
	TotalMarks      int              `json:"total_marks"`
	Problems        []ProblemSummary `json:"problems"`
}
