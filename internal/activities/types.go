package activities

import "github.com/AliMusharafbaig/StudybuddyAI/internal/study"

type ComputeMaterialIDInput struct {
	MaterialPath string `json:"material_path"`
}

type ComputeMaterialIDOutput struct {
	MaterialID string `json:"material_id"`
}

type ListDocumentsInput struct {
	InputDir string `json:"input_dir"`
}

type ListDocumentsOutput struct {
	Paths []string `json:"paths"`
}

type WriteCourseSummaryInput struct {
	CourseID string         `json:"course_id"`
	Summary  map[string]any `json:"summary"`
}

type ListFailedMaterialsInput struct {
	CourseID string `json:"course_id"`
}

type FailedMaterial struct {
	MaterialID string `json:"material_id"`
	Filename   string `json:"filename"`
}

type ListFailedMaterialsOutput struct {
	Materials []FailedMaterial `json:"materials"`
}

type ListCourseMaterialsInput struct {
	CourseID string `json:"course_id"`
}

type CourseMaterial struct {
	MaterialID string `json:"material_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Title      string `json:"title,omitempty"`
	FailReason string `json:"fail_reason,omitempty"`
}

type ListCourseMaterialsOutput struct {
	Materials []CourseMaterial `json:"materials"`
}

type WriteRunManifestInput struct {
	CourseID string         `json:"course_id"`
	RunID    string         `json:"run_id"`
	Manifest map[string]any `json:"manifest"`
}

type WriteRunManifestOutput struct {
	Path string `json:"path"`
}

type ExtractTextInput struct {
	MaterialPath string `json:"material_path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type ReadMaterialTextInput struct {
	CourseID   string `json:"course_id"`
	MaterialID string `json:"material_id"`
}

type ReadMaterialTextOutput struct {
	Text string `json:"text"`
}

type ChunkTextInput struct {
	MaterialID   string `json:"material_id"`
	CourseID     string `json:"course_id"`
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Version      string `json:"version"`
}

type ChunkItem struct {
	ChunkID     string `json:"chunk_id"`
	MaterialID  string `json:"material_id"`
	CourseID    string `json:"course_id"`
	ChunkIndex  int    `json:"chunk_index"`
	StartOffset int    `json:"start_offset"`
	Text        string `json:"text"`
}

type ChunkTextOutput struct {
	Chunks []ChunkItem `json:"chunks"`
}

type UpsertChunksInput struct {
	Chunks           []ChunkItem `json:"chunks"`
	Vectors          [][]float32 `json:"vectors,omitempty"`
	EmbeddingVersion string      `json:"embedding_version"`
}

type WriteMaterialArtifactsInput struct {
	CourseID      string         `json:"course_id"`
	MaterialID    string         `json:"material_id"`
	Text          string         `json:"text"`
	Metadata      map[string]any `json:"metadata"`
	Chunks        []ChunkItem    `json:"chunks"`
	ProcessingLog map[string]any `json:"processing_log"`
}

type UpdateMaterialStatusInput struct {
	MaterialID string `json:"material_id"`
	CourseID   string `json:"course_id"`
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason"`
}

type EmbedChunksInput struct {
	Operation     string      `json:"operation"`
	CourseID      string      `json:"course_id"`
	MaterialID    string      `json:"material_id"`
	ProviderIndex int         `json:"provider_index"`
	Input         []ChunkItem `json:"input"`
}

type EmbedChunksOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type LLMGenerateInput struct {
	Operation     string   `json:"operation"`
	CourseID      string   `json:"course_id"`
	MaterialID    string   `json:"material_id"`
	Prompt        string   `json:"prompt"`
	Context       []string `json:"context"`
	ProviderIndex int      `json:"provider_index"`
}

type LLMGenerateOutput struct {
	Text         string `json:"text"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
}

type UpsertConceptsInput struct {
	CourseID   string                   `json:"course_id"`
	MaterialID string                   `json:"material_id"`
	Candidates []study.ConceptCandidate `json:"candidates"`
}

type UpsertConceptsOutput struct {
	ConceptCount int `json:"concept_count"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	CourseID     string `json:"course_id"`
	MaterialID   string `json:"material_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}
