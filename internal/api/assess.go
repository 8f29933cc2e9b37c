package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/cache"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/retrieval"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/study"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
)

// keyedLocks serializes answer submissions per quiz so concurrent submissions
// for the same quiz cannot interleave grading with progress updates.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *Server) handleQuizGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		UserID        string `json:"user_id"`
		CourseID      string `json:"course_id"`
		QuestionCount int    `json:"question_count"`
		Difficulty    string `json:"difficulty,omitempty"`
		Title         string `json:"title,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.UserID == "" || req.CourseID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and course_id are required"))
		return
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = 5
	}
	if req.QuestionCount > 20 {
		req.QuestionCount = 20
	}

	concepts, err := s.conceptRepo.ListConceptsWithMastery(r.Context(), req.CourseID, req.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(concepts) == 0 {
		writeErr(w, http.StatusUnprocessableEntity, util.ErrInsufficientData)
		return
	}

	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	switch difficulty {
	case study.DifficultyEasy, study.DifficultyMedium, study.DifficultyHard:
	default:
		// Anything else, including "adaptive", resolves per concept from mastery.
		difficulty = ""
	}

	selected := study.SelectConcepts(concepts, req.QuestionCount)
	generated := s.generateQuestions(r.Context(), req.CourseID, difficulty, selected, concepts)
	if len(generated) == 0 {
		writeErr(w, http.StatusBadGateway, fmt.Errorf("question generation produced nothing usable"))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("Practice quiz (%s)", time.Now().Format("Jan 2 15:04"))
	}
	quiz, questions := buildQuiz(req.UserID, req.CourseID, title, generated)
	if err := s.quizRepo.CreateQuiz(r.Context(), quiz, questions); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"quiz":      quiz,
		"questions": redactQuestions(questions),
	})
}

// generateQuestions produces one grounded question per selected concept,
// asking the model per concept so each prompt carries that concept's passages
// and mastery-adapted difficulty. Concepts whose generation fails fall back to
// deterministic terminology questions.
func (s *Server) generateQuestions(ctx context.Context, courseID, fixedDifficulty string, selected, pool []models.ConceptMastery) []study.GeneratedQuestion {
	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GenerateTimeoutSecs)*time.Second)
	defer cancel()

	out := make([]study.GeneratedQuestion, 0, len(selected))
	var failedConcepts []models.ConceptMastery
	for _, c := range selected {
		difficulty := fixedDifficulty
		if difficulty == "" {
			difficulty = study.AdaptiveDifficulty(c.Mastery)
		}
		passages, rErr := s.retriever.Retrieve(genCtx, retrieval.Scope{CourseID: courseID}, c.Name, 3)
		if rErr != nil {
			passages = nil
		}
		prompt := study.BuildQuestionPrompt(c, passages, 1, difficulty)
		resp, _, gErr := s.generateWithFailover(genCtx, "question_generation", prompt, nil)
		if gErr != nil {
			failedConcepts = append(failedConcepts, c)
			continue
		}
		parsed, pErr := study.ParseQuestionsJSON(resp.Text)
		if pErr != nil {
			failedConcepts = append(failedConcepts, c)
			continue
		}
		q := parsed[0]
		q.ConceptID = c.ConceptID
		if q.Difficulty == "" {
			q.Difficulty = difficulty
		}
		out = append(out, q)
	}
	if len(failedConcepts) > 0 {
		fallbackDifficulty := fixedDifficulty
		if fallbackDifficulty == "" {
			fallbackDifficulty = study.AdaptiveDifficulty(meanMastery(failedConcepts))
		}
		out = append(out, study.FallbackQuestions(failedConcepts, pool, fallbackDifficulty)...)
	}
	return out
}

// buildQuiz assembles the persistable quiz and its ordered questions. A quiz
// starts as "generated"; the first recorded answer moves it to "in_progress"
// and the last one to "completed".
func buildQuiz(userID, courseID, title string, generated []study.GeneratedQuestion) (models.Quiz, []models.Question) {
	quizID := uuid.NewString()
	quiz := models.Quiz{
		QuizID:         quizID,
		UserID:         userID,
		CourseID:       courseID,
		Title:          title,
		Difficulty:     overallDifficulty(generated),
		TotalQuestions: len(generated),
		Status:         "generated",
	}
	questions := make([]models.Question, 0, len(generated))
	for i, g := range generated {
		questions = append(questions, models.Question{
			QuestionID:    uuid.NewString(),
			QuizID:        quizID,
			ConceptID:     g.ConceptID,
			Prompt:        g.Prompt,
			Type:          g.Type,
			Difficulty:    g.Difficulty,
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   g.Explanation,
			QuestionOrder: i + 1,
		})
	}
	return quiz, questions
}

func meanMastery(concepts []models.ConceptMastery) float64 {
	if len(concepts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range concepts {
		sum += c.Mastery
	}
	return sum / float64(len(concepts))
}

func overallDifficulty(questions []study.GeneratedQuestion) string {
	counts := map[string]int{}
	for _, q := range questions {
		counts[q.Difficulty]++
	}
	best, bestCount := study.DifficultyMedium, 0
	for _, d := range []string{study.DifficultyEasy, study.DifficultyMedium, study.DifficultyHard} {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// redactQuestions strips answer keys from questions that have not been
// answered yet.
func redactQuestions(questions []models.Question) []models.Question {
	out := make([]models.Question, len(questions))
	copy(out, questions)
	for i := range out {
		if out[i].AnsweredAt == nil {
			out[i].CorrectAnswer = ""
			out[i].Explanation = ""
		}
	}
	return out
}

func (s *Server) handleQuizScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/quiz/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	quizID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleQuizGet(w, r, quizID)
	case len(parts) == 2 && parts[1] == "results" && r.Method == http.MethodGet:
		s.handleQuizResults(w, r, quizID)
	case len(parts) == 4 && parts[1] == "questions" && parts[3] == "answer" && r.Method == http.MethodPost:
		s.handleQuizAnswer(w, r, quizID, parts[2])
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleQuizGet(w http.ResponseWriter, r *http.Request, quizID string) {
	quiz, err := s.quizRepo.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	questions, err := s.quizRepo.ListQuestions(r.Context(), quizID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quiz":      quiz,
		"questions": redactQuestions(questions),
	})
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request, quizID, questionID string) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("answer is required"))
		return
	}

	unlock := s.quizLocks.lock(quizID)
	defer unlock()

	question, err := s.quizRepo.GetQuestion(r.Context(), quizID, questionID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if question.AnsweredAt != nil {
		writeErr(w, http.StatusConflict, fmt.Errorf("question has already been answered"))
		return
	}

	correct, graded := study.GradeDeterministic(question, answer)
	if !graded {
		correct = s.gradeShortAnswer(r.Context(), question, answer)
	}

	quiz, err := s.quizRepo.RecordAnswer(r.Context(), quizID, questionID, answer, correct)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	var mastery *models.MasteryRecord
	if question.ConceptID != "" {
		if m, mErr := s.updateMastery(r.Context(), quiz.UserID, question.ConceptID, correct); mErr != nil {
			log.Printf("mastery update failed user=%s concept=%s: %v", quiz.UserID, question.ConceptID, mErr)
		} else {
			mastery = &m
		}
	}

	var confusion *study.Classification
	if !correct && question.ConceptID != "" {
		c := s.classifyConfusion(r.Context(), question, answer)
		if err := s.confusionRepo.UpsertPattern(r.Context(), models.ConfusionPattern{
			UserID:       quiz.UserID,
			ConceptID:    question.ConceptID,
			PatternType:  c.PatternType,
			Description:  c.Description,
			ConfusedWith: c.ConfusedWith,
			Intervention: c.Intervention,
		}); err != nil {
			log.Printf("confusion pattern upsert failed user=%s concept=%s: %v", quiz.UserID, question.ConceptID, err)
		} else {
			confusion = &c
		}
	}

	// Mastery moved, so any cached cram plan is stale.
	_ = s.planCache.Invalidate(r.Context(), quiz.UserID, quiz.CourseID)

	writeJSON(w, http.StatusOK, answerFeedback(question, quiz, correct, mastery, confusion))
}

// answerFeedback shapes the grading response. A nil mastery or confusion
// means that update did not persist; the field comes back null so the caller
// can tell it did not land.
func answerFeedback(question models.Question, quiz models.Quiz, correct bool, mastery *models.MasteryRecord, confusion *study.Classification) map[string]any {
	return map[string]any{
		"correct":        correct,
		"correct_answer": question.CorrectAnswer,
		"explanation":    question.Explanation,
		"quiz":           quiz,
		"mastery":        mastery,
		"confusion":      confusion,
	}
}

func (s *Server) gradeShortAnswer(ctx context.Context, question models.Question, answer string) bool {
	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GenerateTimeoutSecs)*time.Second)
	defer cancel()
	resp, _, err := s.generateWithFailover(genCtx, "answer_equivalence", study.BuildEquivalencePrompt(question, answer), nil)
	if err == nil {
		if equivalent, pErr := study.ParseEquivalenceJudgment(resp.Text); pErr == nil {
			return equivalent
		}
	}
	return study.GradeShortAnswerFallback(question.CorrectAnswer, answer)
}

func (s *Server) updateMastery(ctx context.Context, userID, conceptID string, correct bool) (models.MasteryRecord, error) {
	rec, err := s.masteryRepo.GetMastery(ctx, userID, conceptID)
	if err != nil {
		return models.MasteryRecord{}, err
	}
	rec.Mastery = study.UpdateMastery(rec.Mastery, correct, s.cfg.MasteryAlpha)
	if correct {
		rec.TimesCorrect++
	} else {
		rec.TimesIncorrect++
	}
	if err := s.masteryRepo.UpsertMastery(ctx, rec); err != nil {
		return models.MasteryRecord{}, err
	}
	return rec, nil
}

func (s *Server) classifyConfusion(ctx context.Context, question models.Question, answer string) study.Classification {
	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GenerateTimeoutSecs)*time.Second)
	defer cancel()
	resp, _, err := s.generateWithFailover(genCtx, "confusion_classification", study.BuildClassificationPrompt(question, answer), nil)
	if err == nil {
		if c, pErr := study.ParseClassification(resp.Text); pErr == nil {
			return c
		}
	}
	return study.FallbackClassification(question, answer)
}

func (s *Server) handleQuizResults(w http.ResponseWriter, r *http.Request, quizID string) {
	quiz, err := s.quizRepo.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	questions, err := s.quizRepo.ListQuestions(r.Context(), quizID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	type questionResult struct {
		QuestionID    string  `json:"question_id"`
		ConceptID     string  `json:"concept_id,omitempty"`
		ConceptName   string  `json:"concept_name,omitempty"`
		Prompt        string  `json:"prompt"`
		Type          string  `json:"type"`
		Difficulty    string  `json:"difficulty"`
		UserAnswer    *string `json:"user_answer,omitempty"`
		CorrectAnswer string  `json:"correct_answer,omitempty"`
		IsCorrect     *bool   `json:"is_correct,omitempty"`
		Explanation   string  `json:"explanation,omitempty"`
	}
	results := make([]questionResult, 0, len(questions))
	for _, q := range questions {
		qr := questionResult{
			QuestionID:  q.QuestionID,
			ConceptID:   q.ConceptID,
			ConceptName: q.ConceptName,
			Prompt:      q.Prompt,
			Type:        q.Type,
			Difficulty:  q.Difficulty,
			UserAnswer:  q.UserAnswer,
			IsCorrect:   q.IsCorrect,
		}
		if q.AnsweredAt != nil {
			qr.CorrectAnswer = q.CorrectAnswer
			qr.Explanation = q.Explanation
		}
		results = append(results, qr)
	}

	patterns, err := s.confusionRepo.ListByUserAndCourse(r.Context(), quiz.UserID, quiz.CourseID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quiz":               quiz,
		"questions":          results,
		"confusion_patterns": patterns,
	})
}

func (s *Server) handleCramGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		UserID           string `json:"user_id"`
		CourseID         string `json:"course_id"`
		AvailableMinutes int    `json:"available_minutes"`
		CheatSheet       bool   `json:"cheat_sheet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.UserID == "" || req.CourseID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("user_id and course_id are required"))
		return
	}

	if cached, err := s.planCache.Get(r.Context(), req.UserID, req.CourseID, req.AvailableMinutes); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"plan": cached, "cached": true})
		return
	} else if !errors.Is(err, cache.ErrNotFound) {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	concepts, err := s.conceptRepo.ListConceptsWithMastery(r.Context(), req.CourseID, req.UserID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	plan, err := study.BuildPlan(concepts, req.AvailableMinutes, study.PlanParams{
		MaxTopics:    s.cfg.PlanMaxTopics,
		FloorMinutes: s.cfg.PlanFloorMinutes,
	})
	switch {
	case errors.Is(err, util.ErrInvalidPlanConfig):
		writeErr(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, util.ErrInsufficientData):
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	plan.PlanID = uuid.NewString()
	plan.UserID = req.UserID
	plan.CourseID = req.CourseID
	plan.CreatedAt = time.Now().UTC()

	if req.CheatSheet && len(plan.Entries) > 0 {
		plan.CheatSheet = s.composeCheatSheet(r.Context(), concepts, plan)
	}

	// Cache failures degrade to recomputation on the next request.
	_ = s.planCache.Put(r.Context(), plan)

	writeJSON(w, http.StatusOK, map[string]any{"plan": plan, "cached": false})
}

func (s *Server) composeCheatSheet(ctx context.Context, concepts []models.ConceptMastery, plan models.CramPlan) string {
	byID := make(map[string]models.ConceptMastery, len(concepts))
	for _, c := range concepts {
		byID[c.ConceptID] = c
	}
	var b strings.Builder
	b.WriteString("Write a one-page cram cheat sheet for an exam tomorrow. For each concept give the definition and one memorable key fact. Concepts in planned order:\n")
	for _, e := range plan.Entries {
		c := byID[e.ConceptID]
		fmt.Fprintf(&b, "- %s (%d min): %s\n", e.Name, e.AllocatedMinutes, util.DisplaySnippet(c.Definition, 300))
	}
	genCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GenerateTimeoutSecs)*time.Second)
	defer cancel()
	resp, _, err := s.generateWithFailover(genCtx, "cheat_sheet", b.String(), nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

func (s *Server) handleUsersScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "confusions" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	userID := parts[0]
	courseID := strings.TrimSpace(r.URL.Query().Get("course_id"))

	var (
		patterns []models.ConfusionPattern
		err      error
	)
	if courseID != "" {
		patterns, err = s.confusionRepo.ListByUserAndCourse(r.Context(), userID, courseID)
	} else {
		patterns, err = s.confusionRepo.ListByUser(r.Context(), userID)
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"confusion_patterns": patterns})
}
