package pipelines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processorTypes(p Pipeline) []string {
	var types []string
	for _, proc := range p.Processors {
		for k := range proc {
			types = append(types, k)
		}
	}
	return types
}

func TestNormalizerPipeline(t *testing.T) {
	p := DefaultSettings().NormalizerPipeline()

	assert.Equal(t, "es-crawler-normalizer-pipeline", p.ID)
	assert.Equal(t,
		[]string{"join", "set", "script", "script", "uri_parts", "script", "remove"},
		processorTypes(p))

	uriParts, ok := p.Processors[4]["uri_parts"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "temp_url_parts", uriParts["target_field"])
	assert.Equal(t, true, uriParts["keep_original"])

	normalize, ok := p.Processors[5]["script"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ctx.containsKey('temp_url_parts')", normalize["if"])
	assert.Contains(t, normalize["source"], "ctx.normalized_url = normalized;")
}

func TestEmbeddingPipeline(t *testing.T) {
	p := DefaultSettings().EmbeddingPipeline()

	require.Len(t, p.Processors, 1)
	inference, ok := p.Processors[0]["inference"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "vertexai_embeddings", inference["model_id"])
	assert.Equal(t, map[string]any{
		"input_field":  "text",
		"output_field": "embeddings.text-embedding-005",
	}, inference["input_output"])
}

func TestCompositePipelineReferencesByName(t *testing.T) {
	p := DefaultSettings().CompositePipeline()

	var names []any
	for _, proc := range p.Processors {
		ref, ok := proc["pipeline"].(map[string]any)
		require.True(t, ok)
		names = append(names, ref["name"])
	}
	assert.Equal(t, []any{
		"search-default-ingestion",
		"es-crawler-normalizer-pipeline",
		"es-crawler-embedding-pipeline",
	}, names)
}

func TestSettingsAreValues(t *testing.T) {
	s := DefaultSettings()
	s.NormalizerPipelineID = "custom"

	assert.Equal(t, "es-crawler-normalizer-pipeline", DefaultSettings().NormalizerPipelineID)
	assert.Equal(t, "custom", s.CompositePipeline().Processors[1]["pipeline"].(map[string]any)["name"])
}
