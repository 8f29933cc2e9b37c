package workflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/activities"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/providers"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/study"
)

const (
	QueryGetMaterialStatus = "GetMaterialStatus"
	QueryGetProgress       = "GetProgress"
)

type providerState struct {
	disabledUntil map[int]time.Time
	retries       map[string]int
}

func newProviderState() providerState {
	return providerState{disabledUntil: map[int]time.Time{}, retries: map[string]int{}}
}

func CourseIngestWorkflow(ctx workflow.Context, input CourseIngestInput) (string, error) {
	progress := CourseIngestProgress{
		CourseID:      input.CourseID,
		PerMaterial:   map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (CourseIngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	var listOut activities.ListDocumentsOutput
	if err := workflow.ExecuteActivity(ctx, "ListDocumentsActivity", activities.ListDocumentsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	paths := listOut.Paths
	progress.Total = len(paths)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(paths); i += maxChildren {
		end := i + maxChildren
		if end > len(paths) {
			end = len(paths)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		childPaths := make([]string, 0, end-i)
		for _, path := range paths[i:end] {
			progress.PerMaterial[path] = "processing"
			workflowID := "material-" + sanitizeID(input.CourseID) + "-" + sanitizeID(filepathBase(path))
			cwo := workflow.ChildWorkflowOptions{WorkflowID: workflowID}
			childCtx := workflow.WithChildOptions(ctx, cwo)
			f := workflow.ExecuteChildWorkflow(childCtx, MaterialProcessWorkflow, MaterialProcessInput{
				CourseID:        input.CourseID,
				MaterialPath:    path,
				ChunkVersion:    defaultChunkVersion(input.ChunkVersion),
				EmbedVersion:    defaultEmbedVersion(input.EmbedVersion),
				EmbedProviders:  input.EmbedProviders,
				LLMProviders:    input.LLMProviders,
				CooldownSeconds: input.CooldownSeconds,
			})
			futures = append(futures, f)
			childPaths = append(childPaths, path)
			progress.ChildWorkflow[path] = workflowID
		}

		for idx, f := range futures {
			var childStatus string
			err := f.Get(ctx, &childStatus)
			applyChildOutcome(&progress, childPaths[idx], childStatus, err)
		}
	}
	_ = workflow.ExecuteActivity(ctx, "WriteCourseSummaryActivity", activities.WriteCourseSummaryInput{
		CourseID: input.CourseID,
		Summary: map[string]any{
			"course_id":           input.CourseID,
			"total":               progress.Total,
			"done":                progress.Done,
			"failed":              progress.Failed,
			"per_material_status": progress.PerMaterial,
			"generated_at":        workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	return "completed", nil
}

// applyChildOutcome folds one finished child into the course progress. Done
// counts only materials that processed successfully, so the workflow query
// agrees with progress derived from material rows.
func applyChildOutcome(progress *CourseIngestProgress, path, childStatus string, err error) {
	if err != nil {
		progress.Failed++
		progress.PerMaterial[path] = "failed"
		return
	}
	progress.PerMaterial[path] = childStatus
	if childStatus == "failed" {
		progress.Failed++
		return
	}
	progress.Done++
}

func MaterialProcessWorkflow(ctx workflow.Context, input MaterialProcessInput) (string, error) {
	status := MaterialStatus{
		MaterialPath: input.MaterialPath,
		CurrentStep:  "init",
		Status:       "processing",
		RetryCounts:  map[string]int{},
		Steps:        map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetMaterialStatus, func() (MaterialStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	filename := filepath.Base(input.MaterialPath)
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	embedProviders := defaultCount(input.EmbedProviders)
	llmProviders := defaultCount(input.LLMProviders)
	embedState := newProviderState()
	llmState := newProviderState()

	status.CurrentStep = "compute_material_id"
	status.Steps[status.CurrentStep] = "processing"
	var computeOut activities.ComputeMaterialIDOutput
	if err := workflow.ExecuteActivity(ctx, "ComputeMaterialIDActivity", activities.ComputeMaterialIDInput{MaterialPath: input.MaterialPath}).Get(ctx, &computeOut); err != nil {
		return "", err
	}
	status.MaterialID = computeOut.MaterialID
	status.Steps[status.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(ctx, "UpdateMaterialStatusActivity", activities.UpdateMaterialStatusInput{MaterialID: computeOut.MaterialID, CourseID: input.CourseID, Filename: filename, Status: "processing"}).Get(ctx, nil)

	markFailed := func(step, reason string) {
		status.Status = "failed"
		status.FailReason = reason
		status.Steps[step] = "failed"
		_ = workflow.ExecuteActivity(ctx, "UpdateMaterialStatusActivity", activities.UpdateMaterialStatusInput{
			MaterialID: computeOut.MaterialID,
			CourseID:   input.CourseID,
			Filename:   filename,
			Status:     "failed",
			FailReason: reason,
		}).Get(ctx, nil)
	}

	status.CurrentStep = "extract_text"
	status.Steps[status.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{MaterialPath: input.MaterialPath}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			markFailed(status.CurrentStep, "no extractable text found (OCR not enabled)")
			return status.Status, nil
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	title := heuristicTitle(textOut.Text)

	status.CurrentStep = "chunk_text"
	status.Steps[status.CurrentStep] = "processing"
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{MaterialID: computeOut.MaterialID, CourseID: input.CourseID, Text: textOut.Text, ChunkSize: input.ChunkSize, ChunkOverlap: input.ChunkOverlap, Version: defaultChunkVersion(input.ChunkVersion)}).Get(ctx, &chunkOut); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "embed_chunks"
	status.Steps[status.CurrentStep] = "processing"
	embedOut, err := callEmbedWithFailover(ctx, &embedState, embedProviders, cooldown, activities.EmbedChunksInput{
		Operation:  "embed_material",
		CourseID:   input.CourseID,
		MaterialID: computeOut.MaterialID,
		Input:      chunkOut.Chunks,
	}, status.RetryCounts)
	if err != nil {
		return "", err
	}
	status.Providers = append(status.Providers, embedOut.ProviderName)
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "upsert_chunks"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpsertChunksActivity", activities.UpsertChunksInput{Chunks: chunkOut.Chunks, Vectors: embedOut.Vectors, EmbeddingVersion: defaultEmbedVersion(input.EmbedVersion)}).Get(ctx, nil); err != nil {
		if isInvalidTextEncodingError(err) {
			markFailed(status.CurrentStep, "material contains invalid text encoding after extraction")
			return status.Status, nil
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "extract_concepts"
	status.Steps[status.CurrentStep] = "processing"
	extractOut, _, extractErr := callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, activities.LLMGenerateInput{
		Operation:  "concept_extraction",
		CourseID:   input.CourseID,
		MaterialID: computeOut.MaterialID,
		Prompt:     study.BuildExtractionPrompt(title, textOut.Text),
	}, status.RetryCounts)
	if extractErr != nil {
		markFailed(status.CurrentStep, "concept extraction failed: generation service unavailable")
		return status.Status, nil
	}
	candidates, parseErr := study.ParseConceptsJSON(extractOut.Text)
	if parseErr != nil {
		markFailed(status.CurrentStep, "concept extraction failed: unparsable model output")
		return status.Status, nil
	}
	status.Providers = append(status.Providers, extractOut.ProviderName)
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "upsert_concepts"
	status.Steps[status.CurrentStep] = "processing"
	var conceptOut activities.UpsertConceptsOutput
	if err := workflow.ExecuteActivity(ctx, "UpsertConceptsActivity", activities.UpsertConceptsInput{
		CourseID:   input.CourseID,
		MaterialID: computeOut.MaterialID,
		Candidates: candidates,
	}).Get(ctx, &conceptOut); err != nil {
		return "", err
	}
	status.ConceptCount = conceptOut.ConceptCount
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_artifacts"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "WriteMaterialArtifactsActivity", activities.WriteMaterialArtifactsInput{
		CourseID:   input.CourseID,
		MaterialID: computeOut.MaterialID,
		Text:       textOut.Text,
		Metadata: map[string]any{
			"material_id":   computeOut.MaterialID,
			"filename":      filename,
			"title":         title,
			"chunk_count":   len(chunkOut.Chunks),
			"concept_count": conceptOut.ConceptCount,
		},
		Chunks:        chunkOut.Chunks,
		ProcessingLog: map[string]any{"status": "processed", "steps": status.Steps, "generated_at": workflow.Now(ctx)},
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "mark_processed"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpdateMaterialStatusActivity", activities.UpdateMaterialStatusInput{MaterialID: computeOut.MaterialID, CourseID: input.CourseID, Filename: filename, Title: title, Status: "processed"}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = "processed"
	return status.Status, nil
}

func BackfillWorkflow(ctx workflow.Context, input BackfillInput) (string, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	info := workflow.GetInfo(ctx)
	runID := info.WorkflowExecution.RunID
	manifest := map[string]any{
		"run_id":     runID,
		"mode":       input.Mode,
		"course_id":  input.CourseID,
		"versions":   map[string]any{"chunk": defaultChunkVersion(input.ChunkVersion), "embed": defaultEmbedVersion(input.EmbedVersion)},
		"started_at": workflow.Now(ctx),
	}

	switch strings.ToUpper(strings.TrimSpace(input.Mode)) {
	case "RETRY_FAILED_MATERIALS":
		var failed activities.ListFailedMaterialsOutput
		if err := workflow.ExecuteActivity(ctx, "ListFailedMaterialsActivity", activities.ListFailedMaterialsInput{CourseID: input.CourseID}).Get(ctx, &failed); err != nil {
			return "", err
		}
		retried := 0
		for _, m := range failed.Materials {
			path := pathForBackfill(input, m.Filename)
			var out string
			if err := workflow.ExecuteChildWorkflow(ctx, MaterialProcessWorkflow, MaterialProcessInput{
				CourseID:        input.CourseID,
				MaterialPath:    path,
				ChunkVersion:    defaultChunkVersion(input.ChunkVersion),
				EmbedVersion:    defaultEmbedVersion(input.EmbedVersion),
				EmbedProviders:  defaultCount(input.EmbedProviders),
				LLMProviders:    defaultCount(input.LLMProviders),
				CooldownSeconds: defaultSeconds(input.CooldownSeconds, 900),
			}).Get(ctx, &out); err == nil {
				retried++
			}
		}
		manifest["retried_failed_materials"] = retried
	case "REEMBED_ALL_MATERIALS":
		var all activities.ListCourseMaterialsOutput
		if err := workflow.ExecuteActivity(ctx, "ListCourseMaterialsActivity", activities.ListCourseMaterialsInput{CourseID: input.CourseID}).Get(ctx, &all); err != nil {
			return "", err
		}
		processed := 0
		for _, m := range all.Materials {
			if strings.TrimSpace(m.Filename) == "" {
				continue
			}
			path := pathForBackfill(input, m.Filename)
			var out string
			if err := workflow.ExecuteChildWorkflow(ctx, MaterialProcessWorkflow, MaterialProcessInput{
				CourseID:        input.CourseID,
				MaterialPath:    path,
				ChunkVersion:    defaultChunkVersion(input.ChunkVersion),
				EmbedVersion:    defaultEmbedVersion(input.EmbedVersion),
				EmbedProviders:  defaultCount(input.EmbedProviders),
				LLMProviders:    defaultCount(input.LLMProviders),
				CooldownSeconds: defaultSeconds(input.CooldownSeconds, 900),
			}).Get(ctx, &out); err == nil {
				processed++
			}
		}
		manifest["reembedded_materials"] = processed
		manifest["total_materials_seen"] = len(all.Materials)
	case "REEXTRACT_CONCEPTS":
		var all activities.ListCourseMaterialsOutput
		if err := workflow.ExecuteActivity(ctx, "ListCourseMaterialsActivity", activities.ListCourseMaterialsInput{CourseID: input.CourseID}).Get(ctx, &all); err != nil {
			return "", err
		}
		llmState := newProviderState()
		llmProviders := defaultCount(input.LLMProviders)
		cooldown := durationOrDefault(input.CooldownSeconds, 900)
		reextracted := 0
		for _, m := range all.Materials {
			if m.Status != "processed" {
				continue
			}
			var textOut activities.ReadMaterialTextOutput
			if err := workflow.ExecuteActivity(ctx, "ReadMaterialTextActivity", activities.ReadMaterialTextInput{CourseID: input.CourseID, MaterialID: m.MaterialID}).Get(ctx, &textOut); err != nil {
				continue
			}
			genOut, _, err := callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, activities.LLMGenerateInput{
				Operation:  "concept_extraction",
				CourseID:   input.CourseID,
				MaterialID: m.MaterialID,
				Prompt:     study.BuildExtractionPrompt(m.Title, textOut.Text),
			}, nil)
			if err != nil {
				continue
			}
			candidates, err := study.ParseConceptsJSON(genOut.Text)
			if err != nil {
				continue
			}
			if err := workflow.ExecuteActivity(ctx, "UpsertConceptsActivity", activities.UpsertConceptsInput{
				CourseID:   input.CourseID,
				MaterialID: m.MaterialID,
				Candidates: candidates,
			}).Get(ctx, nil); err == nil {
				reextracted++
			}
		}
		manifest["reextracted_materials"] = reextracted
	default:
		return "", fmt.Errorf("unsupported backfill mode: %s", input.Mode)
	}

	var out activities.WriteRunManifestOutput
	if err := workflow.ExecuteActivity(ctx, "WriteRunManifestActivity", activities.WriteRunManifestInput{
		CourseID: input.CourseID,
		RunID:    runID,
		Manifest: manifest,
	}).Get(ctx, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

func callEmbedWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.EmbedChunksInput, retryCounts map[string]int) (activities.EmbedChunksOutput, error) {
	if retryCounts == nil {
		retryCounts = map[string]int{}
	}
	var lastErr error
	maxAttempts := providerCount * 4
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.EmbedChunksOutput
		err := workflow.ExecuteActivity(ctx, "EmbedChunksActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CourseID: input.CourseID, MaterialID: input.MaterialID, ProviderName: out.ProviderName, Model: out.Model, RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok"}).Get(ctx, nil)
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CourseID: input.CourseID, MaterialID: input.MaterialID, ProviderName: fmt.Sprintf("provider-%d", idx), RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "failed", ErrorType: string(errType)}).Get(ctx, nil)
		key := fmt.Sprintf("embed-%d", idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key])*time.Second)
				attempt--
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all embed providers exhausted")
	}
	return activities.EmbedChunksOutput{}, lastErr
}

func callLLMWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.LLMGenerateInput, retryCounts map[string]int) (activities.LLMGenerateOutput, string, error) {
	if retryCounts == nil {
		retryCounts = map[string]int{}
	}
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.LLMGenerateOutput
		err := workflow.ExecuteActivity(ctx, "LLMGenerateActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CourseID: input.CourseID, MaterialID: input.MaterialID, ProviderName: out.ProviderName, Model: out.Model, RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok"}).Get(ctx, nil)
			return out, "", nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CourseID: input.CourseID, MaterialID: input.MaterialID, ProviderName: fmt.Sprintf("provider-%d", idx), RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "failed", ErrorType: string(errType)}).Get(ctx, nil)
		key := fmt.Sprintf("llm-%s-%d", input.Operation, idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key])*time.Second)
				attempt--
			}
		case providers.ErrorContext:
			return activities.LLMGenerateOutput{}, string(providers.ErrorContext), err
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all llm providers exhausted")
	}
	return activities.LLMGenerateOutput{}, string(providers.ClassifyError(lastErr)), lastErr
}

func isProviderDisabled(ctx workflow.Context, state *providerState, idx int) bool {
	until, ok := state.disabledUntil[idx]
	if !ok {
		return false
	}
	return workflow.Now(ctx).Before(until)
}

func disableProviderUntil(ctx workflow.Context, state *providerState, idx int, d time.Duration) {
	state.disabledUntil[idx] = workflow.Now(ctx).Add(d)
}

func defaultChunkVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "v1"
	}
	return v
}

func defaultEmbedVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "v1"
	}
	return v
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func isInvalidTextEncodingError(err error) bool {
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "invalid byte sequence") || strings.Contains(e, "sqlstate 22021")
}

// heuristicTitle takes the first non-empty line of the extracted text.
func heuristicTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 120 {
			line = string(runes[:120])
		}
		return line
	}
	return ""
}

func filepathBase(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func defaultCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func defaultSeconds(n int, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func pathForBackfill(input BackfillInput, filename string) string {
	base := strings.TrimSpace(input.DataInRoot)
	if base == "" {
		base = "./data/in"
	}
	return filepath.Join(base, input.CourseID, filename)
}
