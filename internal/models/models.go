package models

import "time"

type Course struct {
	CourseID  string    `json:"course_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Material struct {
	MaterialID string    `json:"material_id"`
	CourseID   string    `json:"course_id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status"`
	FailReason string    `json:"fail_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Chunk struct {
	ChunkID          string    `json:"chunk_id"`
	MaterialID       string    `json:"material_id"`
	CourseID         string    `json:"course_id"`
	ChunkIndex       int       `json:"chunk_index"`
	Text             string    `json:"text"`
	StartOffset      int       `json:"start_offset"`
	EmbeddingVersion string    `json:"embedding_version"`
	CreatedAt        time.Time `json:"created_at"`
}

// PassageResult is one retrieved passage with its similarity score.
type PassageResult struct {
	MaterialID string  `json:"material_id"`
	Title      string  `json:"title"`
	Filename   string  `json:"filename"`
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
	ChunkText  string  `json:"chunk_text,omitempty"`
}

type Concept struct {
	ConceptID       string    `json:"concept_id"`
	CourseID        string    `json:"course_id"`
	Name            string    `json:"name"`
	Definition      string    `json:"definition,omitempty"`
	Importance      int       `json:"importance"`
	ExamProbability float64   `json:"exam_probability"`
	MaterialCount   int       `json:"material_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// ConceptMastery is a concept joined with one user's mastery level.
type ConceptMastery struct {
	Concept
	Mastery float64 `json:"mastery"`
}

type MasteryRecord struct {
	UserID         string    `json:"user_id"`
	ConceptID      string    `json:"concept_id"`
	Mastery        float64   `json:"mastery"`
	TimesCorrect   int       `json:"times_correct"`
	TimesIncorrect int       `json:"times_incorrect"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
}

type Quiz struct {
	QuizID            string     `json:"quiz_id"`
	UserID            string     `json:"user_id"`
	CourseID          string     `json:"course_id"`
	Title             string     `json:"title"`
	Difficulty        string     `json:"difficulty"`
	TotalQuestions    int        `json:"total_questions"`
	AnsweredQuestions int        `json:"answered_questions"`
	CorrectAnswers    int        `json:"correct_answers"`
	Score             *float64   `json:"score,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

type Question struct {
	QuestionID    string     `json:"question_id"`
	QuizID        string     `json:"quiz_id"`
	ConceptID     string     `json:"concept_id,omitempty"`
	ConceptName   string     `json:"concept_name,omitempty"`
	Prompt        string     `json:"prompt"`
	Type          string     `json:"type"`
	Difficulty    string     `json:"difficulty"`
	Options       []string   `json:"options,omitempty"`
	CorrectAnswer string     `json:"correct_answer"`
	Explanation   string     `json:"explanation,omitempty"`
	QuestionOrder int        `json:"question_order"`
	UserAnswer    *string    `json:"user_answer,omitempty"`
	IsCorrect     *bool      `json:"is_correct,omitempty"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}

type ConfusionPattern struct {
	PatternID       string    `json:"pattern_id"`
	UserID          string    `json:"user_id"`
	ConceptID       string    `json:"concept_id"`
	ConceptName     string    `json:"concept_name,omitempty"`
	PatternType     string    `json:"pattern_type"`
	Description     string    `json:"description,omitempty"`
	ConfusedWith    string    `json:"confused_with,omitempty"`
	Intervention    string    `json:"intervention,omitempty"`
	TriggerCount    int       `json:"trigger_count"`
	LastTriggeredAt time.Time `json:"last_triggered_at"`
	CreatedAt       time.Time `json:"created_at"`
}

type CramEntry struct {
	ConceptID        string   `json:"concept_id"`
	Name             string   `json:"name"`
	AllocatedMinutes int      `json:"allocated_minutes"`
	Priority         float64  `json:"priority"`
	KeyPoints        []string `json:"key_points,omitempty"`
}

// CramPlan is regenerated on demand; it is cached per session, never stored
// as authoritative state.
type CramPlan struct {
	PlanID       string      `json:"plan_id"`
	CourseID     string      `json:"course_id"`
	UserID       string      `json:"user_id"`
	TotalMinutes int         `json:"total_minutes"`
	UsedMinutes  int         `json:"used_minutes"`
	Entries      []CramEntry `json:"entries"`
	HighPriority []string    `json:"high_priority_concepts"`
	SkipTopics   []string    `json:"skip_topics"`
	CheatSheet   string      `json:"cheat_sheet,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
