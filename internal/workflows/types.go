package workflows

type CourseIngestInput struct {
	CourseID              string `json:"course_id"`
	InputDir              string `json:"input_dir"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
	EmbedProviders        int    `json:"embed_providers"`
	LLMProviders          int    `json:"llm_providers"`
	CooldownSeconds       int    `json:"cooldown_seconds"`
	ChunkVersion          string `json:"chunk_version"`
	EmbedVersion          string `json:"embed_version"`
}

type MaterialProcessInput struct {
	CourseID        string `json:"course_id"`
	MaterialPath    string `json:"material_path"`
	ChunkSize       int    `json:"chunk_size"`
	ChunkOverlap    int    `json:"chunk_overlap"`
	ChunkVersion    string `json:"chunk_version"`
	EmbedVersion    string `json:"embed_version"`
	EmbedProviders  int    `json:"embed_providers"`
	LLMProviders    int    `json:"llm_providers"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

type BackfillInput struct {
	CourseID        string `json:"course_id"`
	Mode            string `json:"mode"`
	DataInRoot      string `json:"data_in_root,omitempty"`
	ChunkVersion    string `json:"chunk_version,omitempty"`
	EmbedVersion    string `json:"embed_version,omitempty"`
	EmbedProviders  int    `json:"embed_providers,omitempty"`
	LLMProviders    int    `json:"llm_providers,omitempty"`
	CooldownSeconds int    `json:"cooldown_seconds,omitempty"`
}

type MaterialStatus struct {
	MaterialID   string            `json:"material_id"`
	MaterialPath string            `json:"material_path"`
	CurrentStep  string            `json:"current_step"`
	Status       string            `json:"status"`
	FailReason   string            `json:"fail_reason,omitempty"`
	ConceptCount int               `json:"concept_count"`
	Providers    []string          `json:"providers_used"`
	RetryCounts  map[string]int    `json:"retry_counts"`
	Steps        map[string]string `json:"steps"`
}

type CourseIngestProgress struct {
	CourseID      string            `json:"course_id"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerMaterial   map[string]string `json:"per_material_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
