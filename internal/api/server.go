package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/cache"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/config"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/providers"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/retrieval"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/storage"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/vector"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/workflows"
)

type Server struct {
	cfg           config.Config
	db            *storage.DB
	courseRepo    *storage.CourseRepo
	materialRepo  *storage.MaterialRepo
	chunkRepo     *storage.ChunkRepo
	conceptRepo   *storage.ConceptRepo
	masteryRepo   *storage.MasteryRepo
	quizRepo      *storage.QuizRepo
	confusionRepo *storage.ConfusionRepo
	retriever     *retrieval.Retriever
	providers     *providers.Manager
	temporal      tclient.Client
	planCache     *cache.PlanCache
	quizLocks     *keyedLocks
}

type askCitation struct {
	RefID       string  `json:"ref_id"`
	MaterialID  string  `json:"material_id"`
	Title       string  `json:"title"`
	Filename    string  `json:"filename,omitempty"`
	MaterialURL string  `json:"material_url,omitempty"`
	ChunkID     string  `json:"chunk_id"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	planCache, err := cache.NewPlanCache(cfg.RedisURL, 30*time.Minute)
	if err != nil {
		panic(err)
	}
	searcher := vector.NewSearcher(db.Pool)
	return &Server{
		cfg:           cfg,
		db:            db,
		courseRepo:    storage.NewCourseRepo(db),
		materialRepo:  storage.NewMaterialRepo(db),
		chunkRepo:     storage.NewChunkRepo(db),
		conceptRepo:   storage.NewConceptRepo(db),
		masteryRepo:   storage.NewMasteryRepo(db),
		quizRepo:      storage.NewQuizRepo(db),
		confusionRepo: storage.NewConfusionRepo(db),
		retriever:     retrieval.NewRetriever(searcher, pm, cfg.EmbedDim, cfg.EmbedVersion),
		providers:     pm,
		temporal:      tc,
		planCache:     planCache,
		quizLocks:     newKeyedLocks(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/courses", s.handleCourses)
	mux.HandleFunc("/courses/", s.handleCoursesScoped)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/quiz/generate", s.handleQuizGenerate)
	mux.HandleFunc("/quiz/", s.handleQuizScoped)
	mux.HandleFunc("/cram/generate", s.handleCramGenerate)
	mux.HandleFunc("/users/", s.handleUsersScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		courses, err := s.courseRepo.ListCourses(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}

		courseID := uuid.NewString()
		course := models.Course{CourseID: courseID, Name: req.Name}
		if err := s.courseRepo.CreateCourse(r.Context(), course); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}

		if err := util.EnsureDir(filepath.Join(s.cfg.DataInRoot, courseID)); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if err := util.EnsureDir(filepath.Join(s.cfg.DataOutRoot, courseID)); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{"course_id": courseID, "name": req.Name})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleCoursesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/courses/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	courseID := parts[0]

	if len(parts) == 2 && parts[1] == "upload" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleUpload(w, r, courseID)
		return
	}

	if len(parts) == 2 && parts[1] == "materials" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		materials, err := s.materialRepo.ListMaterialsByCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"materials": materials})
		return
	}
	if len(parts) == 3 && parts[1] == "materials" {
		if r.Method != http.MethodDelete {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleMaterialDelete(w, r, courseID, parts[2])
		return
	}
	if len(parts) == 4 && parts[1] == "materials" && parts[3] == "file" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		materialID := parts[2]
		m, err := s.materialRepo.GetMaterialByID(r.Context(), courseID, materialID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		path := util.SafeJoin(filepath.Join(s.cfg.DataInRoot, courseID), m.Filename)
		http.ServeFile(w, r, path)
		return
	}
	if len(parts) == 4 && parts[1] == "materials" && parts[3] == "chunks" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		chunks, err := s.chunkRepo.ListChunksByMaterial(r.Context(), courseID, parts[2])
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
		return
	}
	if len(parts) == 2 && parts[1] == "ingest" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		wfID := "ingest-" + courseID
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                                       wfID,
			TaskQueue:                                s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.CourseIngestWorkflow, workflows.CourseIngestInput{
			CourseID:              courseID,
			InputDir:              filepath.Join(s.cfg.DataInRoot, courseID),
			MaxConcurrentChildren: s.cfg.IngestMaxChildren,
			EmbedProviders:        s.providers.EmbedCount(),
			LLMProviders:          s.providers.LLMCount(),
			CooldownSeconds:       s.cfg.ProviderCooldownSecs,
			EmbedVersion:          s.cfg.EmbedVersion,
		})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
		return
	}
	if len(parts) == 2 && parts[1] == "progress" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var prog workflows.CourseIngestProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "ingest-"+courseID, "", workflows.QueryGetProgress)
		if err != nil {
			// Fall back to DB-derived progress when no workflow is queryable;
			// material status is the durable synchronization signal.
			materials, mErr := s.materialRepo.ListMaterialsByCourse(r.Context(), courseID)
			if mErr != nil {
				writeErr(w, http.StatusInternalServerError, mErr)
				return
			}
			per := make(map[string]string, len(materials))
			done := 0
			failed := 0
			for _, m := range materials {
				per[m.Filename] = m.Status
				if m.Status == "processed" {
					done++
				}
				if m.Status == "failed" {
					failed++
				}
			}
			writeJSON(w, http.StatusOK, workflows.CourseIngestProgress{
				CourseID:    courseID,
				Total:       len(materials),
				Done:        done,
				Failed:      failed,
				PerMaterial: per,
			})
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
		return
	}
	if len(parts) == 2 && parts[1] == "concepts" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID != "" {
			concepts, err := s.conceptRepo.ListConceptsWithMastery(r.Context(), courseID, userID)
			if err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"concepts": concepts})
			return
		}
		concepts, err := s.conceptRepo.ListConceptsByCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"concepts": concepts})
		return
	}

	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, courseID string) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	inDir := filepath.Join(s.cfg.DataInRoot, courseID)
	if err := util.EnsureDir(inDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	type uploadResult struct {
		Filename   string `json:"filename"`
		MaterialID string `json:"material_id"`
	}
	out := make([]uploadResult, 0, len(files))

	for _, fh := range files {
		if !isSupportedUpload(fh.Filename) {
			continue
		}
		materialID, savedPath, err := saveUploadedFile(inDir, fh)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.materialRepo.UpsertMaterial(r.Context(), models.Material{
			MaterialID: materialID,
			CourseID:   courseID,
			Filename:   filepath.Base(savedPath),
			Status:     "pending",
		}); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, uploadResult{Filename: filepath.Base(savedPath), MaterialID: materialID})
	}

	writeJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

// handleMaterialDelete removes a material entirely: its chunks stop serving
// retrieval, its row and concept links go away, and the source file is
// deleted. Chunks go first so a failure partway never leaves orphaned chunks
// behind a missing material row.
func (s *Server) handleMaterialDelete(w http.ResponseWriter, r *http.Request, courseID, materialID string) {
	m, err := s.materialRepo.GetMaterialByID(r.Context(), courseID, materialID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err := s.chunkRepo.DeleteChunksByMaterial(r.Context(), courseID, materialID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.materialRepo.DeleteMaterial(r.Context(), courseID, materialID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if m.Filename != "" {
		_ = os.Remove(util.SafeJoin(filepath.Join(s.cfg.DataInRoot, courseID), m.Filename))
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": materialID})
}

func isSupportedUpload(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		CourseID   string `json:"course_id"`
		MaterialID string `json:"material_id,omitempty"`
		Question   string `json:"question"`
		TopK       int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.Question = strings.TrimSpace(req.Question)
	if req.CourseID == "" || req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("course_id and question are required"))
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.cfg.RetrievalTopK
	}

	results, err := s.retriever.Retrieve(r.Context(), retrieval.Scope{CourseID: req.CourseID, MaterialID: req.MaterialID}, req.Question, req.TopK)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	citations := make([]askCitation, 0, len(results))
	contextSnippets := make([]string, 0, len(results))
	for i, res := range results {
		refID := fmt.Sprintf("C%d", i+1)
		displayTitle := util.DisplaySnippet(res.Title, 100)
		if displayTitle == "" {
			displayTitle = util.DisplaySnippet(res.Filename, 100)
		}
		snippet := util.EvidenceSnippet(res.ChunkText, req.Question, 420)
		if snippet == "" {
			snippet = util.DisplaySnippet(res.Snippet, 420)
		}
		citations = append(citations, askCitation{
			RefID:       refID,
			MaterialID:  res.MaterialID,
			Title:       displayTitle,
			Filename:    res.Filename,
			MaterialURL: fmt.Sprintf("/courses/%s/materials/%s/file", req.CourseID, res.MaterialID),
			ChunkID:     res.ChunkID,
			Snippet:     snippet,
			Score:       res.Score,
		})
		contextSnippets = append(contextSnippets, fmt.Sprintf("%s | %s [%s]: %s", refID, displayTitle, res.ChunkID, util.DisplaySnippet(res.ChunkText, 1200)))
	}

	grounded := len(citations) > 0
	prompt := composeAnswerPrompt(req.Question, grounded)

	genCtx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.GenerateTimeoutSecs)*time.Second)
	defer cancel()
	llmResp, llmInfo, llmErr := s.generateWithFailover(genCtx, "ask_answer", prompt, contextSnippets)

	answer := strings.TrimSpace(llmResp.Text)
	if llmErr != nil || answer == "" {
		if !grounded {
			writeErr(w, http.StatusBadGateway, fmt.Errorf("generation failed: %w", llmErr))
			return
		}
		answer = fallbackExtractiveAnswer(citations)
	}
	if !grounded {
		answer = "Note: no course material matched this question, so the answer below is not grounded in your uploads.\n\n" + answer
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":          answer,
		"grounded":        grounded,
		"citations":       citations,
		"llm_provider":    llmInfo.Name,
		"llm_model":       llmInfo.Model,
		"retrieved_count": len(citations),
	})
}

// generateWithFailover walks the configured LLM providers in preferred order
// and returns the first non-empty completion.
func (s *Server) generateWithFailover(ctx context.Context, op, prompt string, snippets []string) (providers.GenerateResponse, providers.ProviderInfo, error) {
	var (
		resp providers.GenerateResponse
		info providers.ProviderInfo
		err  error
	)
	for _, idx := range s.providers.PreferredLLMOrder() {
		p, _ := s.providers.LLMProviderByIndex(idx)
		resp, info, err = p.Generate(ctx, providers.GenerateRequest{
			Operation: op,
			Prompt:    prompt,
			Context:   snippets,
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp, info, nil
		}
	}
	return resp, info, err
}

func composeAnswerPrompt(question string, grounded bool) string {
	var b strings.Builder
	b.WriteString("Question: " + question + "\n\n")
	if grounded {
		b.WriteString("You must answer using ONLY the provided evidence snippets from the student's course materials.\n")
		b.WriteString("Do NOT use outside knowledge.\n")
		b.WriteString("If the snippets do not contain enough information, explicitly state what is missing.\n\n")
		b.WriteString("Citation rules:\n")
		b.WriteString("- Use citations like [C1], [C2], etc. whenever making a factual claim.\n")
		b.WriteString("- Cite the snippet immediately after the sentence it supports.\n")
		b.WriteString("- Do NOT cite anything not present in the provided snippets.\n\n")
		b.WriteString("Answer like a study tutor: clear explanation first, then a short worked example if the material includes one.\n\n")
		b.WriteString("Evidence snippets (cite as [C#]):\n")
	} else {
		b.WriteString("No passages from the student's course materials matched this question.\n")
		b.WriteString("Answer briefly from general knowledge and advise the student to upload relevant material.\n")
	}
	return b.String()
}

func fallbackExtractiveAnswer(citations []askCitation) string {
	if len(citations) == 0 {
		return "No relevant material was retrieved for this question."
	}
	lines := make([]string, 0, 6)
	lines = append(lines, "Based on your course materials:")
	limit := len(citations)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		snippet := citations[i].Snippet
		if len(snippet) > 180 {
			snippet = snippet[:180] + "..."
		}
		lines = append(lines, fmt.Sprintf("- %s: %s [%s]", citations[i].Title, snippet, citations[i].RefID))
	}
	lines = append(lines, "Review the cited passages for the full context.")
	return strings.Join(lines, "\n")
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (materialID, path string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	materialID, err = util.SHA256HexFromReader(io.TeeReader(src, tmp))
	if err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}

	finalPath := util.SafeJoin(dstDir, fh.Filename)
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", "", fmt.Errorf("atomic move upload: %w", err)
	}

	return materialID, finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "SB-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "SB-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "SB-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		case strings.Contains(raw, "vector index unavailable"):
			return apiError{
				Code:    "SB-IDX-5003",
				Message: "The search index is temporarily unavailable. Retry shortly.",
			}
		default:
			return apiError{
				Code:    "SB-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "SB-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "SB-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "SB-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "SB-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusBadGateway:
		code = "SB-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	case status == http.StatusUnprocessableEntity:
		code = "SB-API-4022"
		msg = "Not enough processed material for this request. Upload and ingest materials first."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "name is required"):
			msg = "Course name is required."
		case strings.Contains(low, "course_id and question are required"):
			msg = "Both course and question are required."
		case strings.Contains(low, "no files provided"):
			msg = "No supported files were provided."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "already been answered"):
			msg = "This question has already been answered."
		case strings.Contains(low, "insufficient data"):
			msg = "Upload and process materials first."
		case strings.Contains(low, "available minutes"):
			msg = "Available minutes must be a positive number."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
