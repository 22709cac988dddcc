package pipelines

// Processor is one ingest processor definition. It is sent to the cluster
// as is and never evaluated locally.
type Processor map[string]any

// Pipeline is an ingest pipeline definition.
type Pipeline struct {
	ID          string      `json:"-" yaml:"id"`
	Description string      `json:"description" yaml:"description"`
	Processors  []Processor `json:"processors" yaml:"processors"`
}

// InferenceEndpoint is a text embedding endpoint backed by Vertex AI.
type InferenceEndpoint struct {
	ID              string          `json:"-" yaml:"id"`
	TaskType        string          `json:"-" yaml:"task_type"`
	Service         string          `json:"service" yaml:"service"`
	ServiceSettings ServiceSettings `json:"service_settings" yaml:"service_settings"`
}

// ServiceSettings configures the Vertex AI service. ServiceAccountJSON is
// filled in from the secret store at provisioning time.
type ServiceSettings struct {
	ModelID            string `json:"model_id" yaml:"model_id"`
	ServiceAccountJSON string `json:"service_account_json" yaml:"service_account_json"`
	Location           string `json:"location" yaml:"location"`
	ProjectID          string `json:"project_id" yaml:"project_id"`
}

// Settings holds every fixed identifier and literal the assembler uses.
type Settings struct {
	NormalizerPipelineID     string
	EmbeddingPipelineID      string
	CompositePipelineID      string
	DefaultIngestionPipeline string

	InferenceID       string
	InferenceTaskType string
	InferenceService  string
	EmbeddingModelID  string
	VertexLocation    string
	VertexProjectID   string
}

// DefaultSettings returns the identifiers used by the self-served crawler.
func DefaultSettings() Settings {
	return Settings{
		NormalizerPipelineID:     "es-crawler-normalizer-pipeline",
		EmbeddingPipelineID:      "es-crawler-embedding-pipeline",
		CompositePipelineID:      "self-served-crawler-pipeline",
		DefaultIngestionPipeline: "search-default-ingestion",

		InferenceID:       "vertexai_embeddings",
		InferenceTaskType: "text_embedding",
		InferenceService:  "googlevertexai",
		EmbeddingModelID:  "text-embedding-005",
		VertexLocation:    "us-central1",
		VertexProjectID:   "snippets-api-434014",
	}
}

const setBodyTemplate = `
      Meta Description: {{{meta_description}}}
      Headings: {{{headings}}}
      Body: {{{body}}} {{{body_content}}}
    `

const removeFieldsScript = `
          String[] fieldsToRemove = new String[] {
            "body",
            "body_content",
            "meta_description",
            "headings",
            "links",
            "url_port",
            "url_host",
            "url_path",
            "url_path_dir1",
            "url_path_dir2",
            "url_path_dir3",
            "additional_urls",
            "domains",
            "url_scheme"
          };
          for (field in fieldsToRemove) {
              if (ctx.containsKey(field)) {
                  ctx.remove(field);
              }
          }
        `

const setDatesScript = `
        if (ctx.containsKey("last_crawled_at") && ctx.last_crawled_at != null) {
            ctx.date = ctx.last_crawled_at;
        } else {
            ctx.date = (new Date()).getTime();
            ctx.last_crawled_at = ctx.date;
        }
        `

const normalizedURLScript = `
    def parts = ctx.temp_url_parts;
    String path = parts.path;
    
    // 1. Handle the path (remove trailing slash)
    if (path != null && path.endsWith('/') && path.length() > 0) {
      path = path.substring(0, path.length() - 1);
    } else if (path == null) {
      path = "";
    }
    
    // 2. Rebuild the normalized URL
    String normalized = parts.scheme + "://" + parts.domain;
    
    // 3. Add port only if it exists
    if (parts.port != null) {
      normalized += ":" + parts.port;
    }
    
    // 4. Add the cleaned path
    normalized += path;
    ctx.normalized_url = normalized;
  `

// NormalizerPipeline cleans crawled documents and derives text, date and normalized_url.
func (s Settings) NormalizerPipeline() Pipeline {
	return Pipeline{
		ID:          s.NormalizerPipelineID,
		Description: "Pipeline to normalize crawled data",
		Processors: []Processor{
			{"join": map[string]any{
				"field":      "headings",
				"separator":  ", ",
				"on_failure": []Processor{{"set": map[string]any{"field": "headings", "value": ""}}},
			}},
			{"set": map[string]any{
				"field": "text",
				"value": setBodyTemplate,
			}},
			{"script": map[string]any{
				"source":      removeFieldsScript,
				"description": "Runs a script to remove unnecessary fields",
			}},
			{"script": map[string]any{
				"source":      setDatesScript,
				"description": "Sets the date field based on last_crawled_at or current time",
			}},
			{"uri_parts": map[string]any{
				"field":          "url",
				"target_field":   "temp_url_parts",
				"keep_original":  true,
				"ignore_failure": true,
			}},
			{"script": map[string]any{
				"if":     "ctx.containsKey('temp_url_parts')",
				"source": normalizedURLScript,
			}},
			{"remove": map[string]any{
				"field":          "temp_url_parts",
				"ignore_failure": true,
			}},
		},
	}
}

// EmbeddingPipeline runs the inference endpoint over the text field.
func (s Settings) EmbeddingPipeline() Pipeline {
	return Pipeline{
		ID:          s.EmbeddingPipelineID,
		Description: "Pipeline to generate embeddings for crawled data",
		Processors: []Processor{
			{"inference": map[string]any{
				"model_id": s.InferenceID,
				"input_output": map[string]any{
					"input_field":  "text",
					"output_field": "embeddings." + s.EmbeddingModelID,
				},
			}},
		},
	}
}

// CompositePipeline chains the default ingestion, normalizer and embedding
// pipelines by name. The default ingestion pipeline is assumed to exist.
func (s Settings) CompositePipeline() Pipeline {
	return Pipeline{
		ID:          s.CompositePipelineID,
		Description: "Pipeline for self-served crawler to normalize and generate embeddings",
		Processors: []Processor{
			{"pipeline": map[string]any{"name": s.DefaultIngestionPipeline}},
			{"pipeline": map[string]any{"name": s.NormalizerPipelineID}},
			{"pipeline": map[string]any{"name": s.EmbeddingPipelineID}},
		},
	}
}

// InferenceEndpoint returns the endpoint definition authenticated with serviceAccountJSON.
func (s Settings) InferenceEndpoint(serviceAccountJSON string) InferenceEndpoint {
	return InferenceEndpoint{
		ID:       s.InferenceID,
		TaskType: s.InferenceTaskType,
		Service:  s.InferenceService,
		ServiceSettings: ServiceSettings{
			ModelID:            s.EmbeddingModelID,
			ServiceAccountJSON: serviceAccountJSON,
			Location:           s.VertexLocation,
			ProjectID:          s.VertexProjectID,
		},
	}
}
