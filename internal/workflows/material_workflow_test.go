package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/AliMusharafbaig/StudybuddyAI/internal/activities"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerMaterialActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "ComputeMaterialIDActivity", func(context.Context, activities.ComputeMaterialIDInput) (activities.ComputeMaterialIDOutput, error) {
		return activities.ComputeMaterialIDOutput{}, nil
	})
	registerActivityName(env, "UpdateMaterialStatusActivity", func(context.Context, activities.UpdateMaterialStatusInput) error { return nil })
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})
	registerActivityName(env, "ChunkTextActivity", func(context.Context, activities.ChunkTextInput) (activities.ChunkTextOutput, error) {
		return activities.ChunkTextOutput{}, nil
	})
	registerActivityName(env, "EmbedChunksActivity", func(context.Context, activities.EmbedChunksInput) (activities.EmbedChunksOutput, error) {
		return activities.EmbedChunksOutput{}, nil
	})
	registerActivityName(env, "UpsertChunksActivity", func(context.Context, activities.UpsertChunksInput) error { return nil })
	registerActivityName(env, "LLMGenerateActivity", func(context.Context, activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, nil
	})
	registerActivityName(env, "UpsertConceptsActivity", func(context.Context, activities.UpsertConceptsInput) (activities.UpsertConceptsOutput, error) {
		return activities.UpsertConceptsOutput{}, nil
	})
	registerActivityName(env, "WriteMaterialArtifactsActivity", func(context.Context, activities.WriteMaterialArtifactsInput) error { return nil })
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })
}

func TestMaterialProcessWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(MaterialProcessWorkflow)
	registerMaterialActivities(env)

	env.OnActivity("ComputeMaterialIDActivity", mock.Anything, activities.ComputeMaterialIDInput{MaterialPath: "/tmp/notes.pdf"}).Return(activities.ComputeMaterialIDOutput{MaterialID: "mat123"}, nil)
	env.OnActivity("UpdateMaterialStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, activities.ExtractTextInput{MaterialPath: "/tmp/notes.pdf"}).Return(activities.ExtractTextOutput{Text: "Week 3: Entropy\nEntropy measures disorder in a system."}, nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.Anything).Return(activities.ChunkTextOutput{Chunks: []activities.ChunkItem{{ChunkID: "c1", MaterialID: "mat123", CourseID: "course-1", ChunkIndex: 0, Text: "chunk"}}}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.Anything).Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1, 0.2}}, ProviderName: "mock", Model: "mock"}, nil)
	env.OnActivity("UpsertChunksActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, mock.Anything).Return(activities.LLMGenerateOutput{
		Text:         `{"concepts":[{"name":"Entropy","definition":"Measure of disorder.","importance":8,"exam_probability":70}]}`,
		ProviderName: "mock",
		Model:        "mock",
	}, nil)
	env.OnActivity("UpsertConceptsActivity", mock.Anything, mock.Anything).Return(activities.UpsertConceptsOutput{ConceptCount: 1}, nil)
	env.OnActivity("WriteMaterialArtifactsActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(MaterialProcessWorkflow, MaterialProcessInput{CourseID: "course-1", MaterialPath: "/tmp/notes.pdf", EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "processed", out)
}

func TestMaterialProcessWorkflowNoTextFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(MaterialProcessWorkflow)
	registerMaterialActivities(env)

	env.OnActivity("ComputeMaterialIDActivity", mock.Anything, mock.Anything).Return(activities.ComputeMaterialIDOutput{MaterialID: "mat123"}, nil)
	env.OnActivity("UpdateMaterialStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{}, errors.New("no extractable text found in document"))

	env.ExecuteWorkflow(MaterialProcessWorkflow, MaterialProcessInput{CourseID: "course-1", MaterialPath: "/tmp/scan.pdf", EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
}

func TestMaterialProcessWorkflowUnparsableConceptsFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(MaterialProcessWorkflow)
	registerMaterialActivities(env)

	env.OnActivity("ComputeMaterialIDActivity", mock.Anything, mock.Anything).Return(activities.ComputeMaterialIDOutput{MaterialID: "mat123"}, nil)
	env.OnActivity("UpdateMaterialStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{Text: "some body text"}, nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.Anything).Return(activities.ChunkTextOutput{Chunks: []activities.ChunkItem{{ChunkID: "c1", ChunkIndex: 0, Text: "chunk"}}}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.Anything).Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1}}, ProviderName: "mock", Model: "mock"}, nil)
	env.OnActivity("UpsertChunksActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, mock.Anything).Return(activities.LLMGenerateOutput{Text: "sorry, I cannot help with that", ProviderName: "mock", Model: "mock"}, nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(MaterialProcessWorkflow, MaterialProcessInput{CourseID: "course-1", MaterialPath: "/tmp/notes.pdf", EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
}

// A failed material must count toward Failed only, matching progress derived
// from material rows where only processed materials count as done.
func TestIngestProgressChildAccounting(t *testing.T) {
	progress := CourseIngestProgress{PerMaterial: map[string]string{}}

	applyChildOutcome(&progress, "a.pdf", "processed", nil)
	applyChildOutcome(&progress, "b.pdf", "failed", nil)
	applyChildOutcome(&progress, "c.pdf", "", errors.New("child workflow terminated"))

	require.Equal(t, 1, progress.Done)
	require.Equal(t, 2, progress.Failed)
	require.Equal(t, "processed", progress.PerMaterial["a.pdf"])
	require.Equal(t, "failed", progress.PerMaterial["b.pdf"])
	require.Equal(t, "failed", progress.PerMaterial["c.pdf"])
}
