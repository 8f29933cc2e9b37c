package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListDocumentsActivity)
	w.RegisterActivity(a.WriteCourseSummaryActivity)
	w.RegisterActivity(a.ListFailedMaterialsActivity)
	w.RegisterActivity(a.ListCourseMaterialsActivity)
	w.RegisterActivity(a.WriteRunManifestActivity)
	w.RegisterActivity(a.ComputeMaterialIDActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.ReadMaterialTextActivity)
	w.RegisterActivity(a.ChunkTextActivity)
	w.RegisterActivity(a.UpsertChunksActivity)
	w.RegisterActivity(a.WriteMaterialArtifactsActivity)
	w.RegisterActivity(a.UpdateMaterialStatusActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.LLMGenerateActivity)
	w.RegisterActivity(a.UpsertConceptsActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
}
