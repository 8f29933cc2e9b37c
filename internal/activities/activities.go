package activities

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/config"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/models"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/providers"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/storage"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/util"
	"github.com/AliMusharafbaig/StudybuddyAI/internal/vector"
)

type Activities struct {
	cfg          config.Config
	materialRepo *storage.MaterialRepo
	chunkRepo    *storage.ChunkRepo
	conceptRepo  *storage.ConceptRepo
	llmAuditRepo *storage.LLMAuditRepo
	providers    *providers.Manager
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:          cfg,
		materialRepo: storage.NewMaterialRepo(db),
		chunkRepo:    storage.NewChunkRepo(db),
		conceptRepo:  storage.NewConceptRepo(db),
		llmAuditRepo: storage.NewLLMAuditRepo(db),
		providers:    pm,
	}, nil
}

func (a *Activities) ListDocumentsActivity(ctx context.Context, in ListDocumentsInput) (ListDocumentsOutput, error) {
	_ = ctx
	entries, err := os.ReadDir(in.InputDir)
	if err != nil {
		return ListDocumentsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md") {
			paths = append(paths, filepath.Join(in.InputDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return ListDocumentsOutput{Paths: paths}, nil
}

func (a *Activities) ComputeMaterialIDActivity(ctx context.Context, in ComputeMaterialIDInput) (ComputeMaterialIDOutput, error) {
	_ = ctx
	f, err := os.Open(in.MaterialPath)
	if err != nil {
		return ComputeMaterialIDOutput{}, fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	id, err := util.SHA256HexFromReader(f)
	if err != nil {
		return ComputeMaterialIDOutput{}, fmt.Errorf("hash file: %w", err)
	}
	return ComputeMaterialIDOutput{MaterialID: id}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	var text string
	var err error
	if strings.EqualFold(filepath.Ext(in.MaterialPath), ".pdf") {
		text, err = extractPDFText(in.MaterialPath)
	} else {
		text, err = extractPlainText(in.MaterialPath)
	}
	if err != nil {
		return ExtractTextOutput{}, err
	}
	text = util.SanitizeText(text)
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return ExtractTextOutput{Text: text}, nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return buf.String(), nil
}

func extractPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}

// ReadMaterialTextActivity loads a previously processed material's extracted
// text from its artifact, used by backfill runs that re-derive concepts
// without re-parsing the source document.
func (a *Activities) ReadMaterialTextActivity(ctx context.Context, in ReadMaterialTextInput) (ReadMaterialTextOutput, error) {
	_ = ctx
	path := filepath.Join(a.materialDir(in.CourseID, in.MaterialID), "text.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return ReadMaterialTextOutput{}, fmt.Errorf("read material text artifact: %w", err)
	}
	return ReadMaterialTextOutput{Text: string(data)}, nil
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	_ = ctx
	if in.ChunkSize <= 0 {
		in.ChunkSize = a.cfg.ChunkSize
	}
	if in.ChunkOverlap < 0 || in.ChunkOverlap >= in.ChunkSize {
		in.ChunkOverlap = a.cfg.ChunkOverlap
	}

	pieces, err := util.ChunkText(in.Text, in.ChunkSize, in.ChunkOverlap)
	if err != nil {
		return ChunkTextOutput{}, err
	}
	chunks := make([]ChunkItem, 0, len(pieces))
	for _, piece := range pieces {
		text := util.SanitizeText(piece.Text)
		if text == "" {
			continue
		}
		chunkHash := util.SHA256Hex([]byte(text))
		chunkID := util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s:%s", in.MaterialID, piece.Index, chunkHash, in.Version)))
		chunks = append(chunks, ChunkItem{
			ChunkID:     chunkID,
			MaterialID:  in.MaterialID,
			CourseID:    in.CourseID,
			ChunkIndex:  piece.Index,
			StartOffset: piece.Start,
			Text:        text,
		})
	}
	return ChunkTextOutput{Chunks: chunks}, nil
}

func (a *Activities) UpsertChunksActivity(ctx context.Context, in UpsertChunksInput) error {
	records := make([]storage.ChunkRecord, 0, len(in.Chunks))
	for i, c := range in.Chunks {
		var embedding *string
		if i < len(in.Vectors) && len(in.Vectors[i]) > 0 {
			lit := vector.ToLiteral(in.Vectors[i])
			embedding = &lit
		}
		records = append(records, storage.ChunkRecord{
			ChunkID:          c.ChunkID,
			MaterialID:       c.MaterialID,
			CourseID:         c.CourseID,
			ChunkIndex:       c.ChunkIndex,
			StartOffset:      c.StartOffset,
			Text:             c.Text,
			EmbeddingVersion: in.EmbeddingVersion,
			EmbeddingVector:  embedding,
		})
	}
	return a.chunkRepo.UpsertChunks(ctx, records)
}

func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	inputs := make([]string, 0, len(in.Input))
	for _, c := range in.Input {
		inputs = append(inputs, c.Text)
	}
	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vectors, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    inputs,
		Dimension: a.cfg.EmbedDim,
	})
	if err != nil {
		return EmbedChunksOutput{}, err
	}
	return EmbedChunksOutput{
		Vectors:      vectors,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) LLMGenerateActivity(ctx context.Context, in LLMGenerateInput) (LLMGenerateOutput, error) {
	provider, ref := a.providers.LLMProviderByIndex(in.ProviderIndex)
	resp, info, err := provider.Generate(ctx, providers.GenerateRequest{
		Operation: in.Operation,
		Prompt:    in.Prompt,
		Context:   in.Context,
	})
	if err != nil {
		return LLMGenerateOutput{}, fmt.Errorf("llm generate via %s failed: %w", ref.Raw, err)
	}
	return LLMGenerateOutput{
		Text:         resp.Text,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) UpsertConceptsActivity(ctx context.Context, in UpsertConceptsInput) (UpsertConceptsOutput, error) {
	count := 0
	for _, cand := range in.Candidates {
		_, err := a.conceptRepo.UpsertConcept(ctx, models.Concept{
			ConceptID:       uuid.NewString(),
			CourseID:        in.CourseID,
			Name:            cand.Name,
			Definition:      cand.Definition,
			Importance:      cand.Importance,
			ExamProbability: cand.ExamProbability,
		}, in.MaterialID)
		if err != nil {
			return UpsertConceptsOutput{}, err
		}
		count++
	}
	return UpsertConceptsOutput{ConceptCount: count}, nil
}

func (a *Activities) UpdateMaterialStatusActivity(ctx context.Context, in UpdateMaterialStatusInput) error {
	return a.materialRepo.UpsertMaterial(ctx, models.Material{
		MaterialID: in.MaterialID,
		CourseID:   in.CourseID,
		Filename:   in.Filename,
		Title:      in.Title,
		Status:     in.Status,
		FailReason: in.FailReason,
	})
}

func (a *Activities) WriteMaterialArtifactsActivity(ctx context.Context, in WriteMaterialArtifactsInput) error {
	_ = ctx
	base := a.materialDir(in.CourseID, in.MaterialID)
	if err := util.EnsureDir(base); err != nil {
		return err
	}
	if err := util.WriteJSONAtomic(filepath.Join(base, "metadata.json"), in.Metadata); err != nil {
		return err
	}
	if in.Text != "" {
		if err := util.WriteTextAtomic(filepath.Join(base, "text.txt"), in.Text); err != nil {
			return err
		}
	}
	rows := make([]any, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		rows = append(rows, c)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(base, "chunks.jsonl"), rows); err != nil {
		return err
	}
	return util.WriteJSONAtomic(filepath.Join(base, "processing_log.json"), in.ProcessingLog)
}

func (a *Activities) WriteCourseSummaryActivity(ctx context.Context, in WriteCourseSummaryInput) error {
	_ = ctx
	outPath := filepath.Join(a.cfg.DataOutRoot, in.CourseID, "course_summary.json")
	return util.WriteJSONAtomic(outPath, in.Summary)
}

func (a *Activities) ListFailedMaterialsActivity(ctx context.Context, in ListFailedMaterialsInput) (ListFailedMaterialsOutput, error) {
	materials, err := a.materialRepo.ListFailedMaterials(ctx, in.CourseID)
	if err != nil {
		return ListFailedMaterialsOutput{}, err
	}
	out := ListFailedMaterialsOutput{Materials: make([]FailedMaterial, 0, len(materials))}
	for _, m := range materials {
		out.Materials = append(out.Materials, FailedMaterial{MaterialID: m.MaterialID, Filename: m.Filename})
	}
	return out, nil
}

func (a *Activities) ListCourseMaterialsActivity(ctx context.Context, in ListCourseMaterialsInput) (ListCourseMaterialsOutput, error) {
	materials, err := a.materialRepo.ListMaterialsByCourse(ctx, in.CourseID)
	if err != nil {
		return ListCourseMaterialsOutput{}, err
	}
	out := ListCourseMaterialsOutput{Materials: make([]CourseMaterial, 0, len(materials))}
	for _, m := range materials {
		out.Materials = append(out.Materials, CourseMaterial{
			MaterialID: m.MaterialID,
			Filename:   m.Filename,
			Status:     m.Status,
			Title:      m.Title,
			FailReason: m.FailReason,
		})
	}
	return out, nil
}

func (a *Activities) WriteRunManifestActivity(ctx context.Context, in WriteRunManifestInput) (WriteRunManifestOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, in.CourseID, "runs", in.RunID, "manifest.json")
	if err := util.WriteJSONAtomic(path, in.Manifest); err != nil {
		return WriteRunManifestOutput{}, err
	}
	return WriteRunManifestOutput{Path: path}, nil
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		CourseID:     in.CourseID,
		MaterialID:   in.MaterialID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		RequestID:    in.RequestID,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}

func (a *Activities) materialDir(courseID, materialID string) string {
	return filepath.Join(a.cfg.DataOutRoot, courseID, "materials", materialID)
}
