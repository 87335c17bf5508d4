package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/refundo/pkg/adapter"
	"github.com/m-mizutani/refundo/pkg/repository"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	// Repository
	project    string
	database   string
	collection string
	memory     bool

	// Adapters
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string
	bucket          string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Firestore collection for stored invoices",
			Value:       repository.DefaultCollection,
			Sources:     cli.EnvVars("REFUNDO_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.BoolFlag{
			Name:        "memory",
			Usage:       "Use an in-process store instead of Firestore (data is lost on exit)",
			Sources:     cli.EnvVars("REFUNDO_MEMORY_STORE"),
			Destination: &cfg.memory,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model used for policy evaluation and answers",
			Sources:     cli.EnvVars("REFUNDO_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model used for embeddings; must stay consistent with already stored vectors",
			Sources:     cli.EnvVars("REFUNDO_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// storageFlags returns flags for the optional source archive
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for archiving uploaded sources (disabled when empty)",
			Sources:     cli.EnvVars("REFUNDO_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// newRepository creates a new repository instance and its cleanup function
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func() error, error) {
	if cfg.memory {
		return repository.NewMemory(), func() error { return nil }, nil
	}

	if cfg.project == "" {
		return nil, nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database,
		repository.WithCollection(cfg.collection))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, repo.Close, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newStorage creates the archive adapter, or nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// fileConfig is the YAML config file schema for the serve command. A file
// value applies to any flag the user did not set through an argument or
// environment variable, including flags that carry non-empty defaults.
type fileConfig struct {
	Addr            string `yaml:"addr"`
	Project         string `yaml:"project"`
	Database        string `yaml:"database"`
	Collection      string `yaml:"collection"`
	GeminiProject   string `yaml:"gemini_project"`
	GeminiLocation  string `yaml:"gemini_location"`
	GenerativeModel string `yaml:"generative_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	Bucket          string `yaml:"bucket"`
}

// flagSource reports whether a flag was set explicitly. *cli.Command
// satisfies it.
type flagSource interface {
	IsSet(name string) bool
}

func (cfg *config) applyFile(path string, flags flagSource, addr *string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.Value("path", path))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.Value("path", path))
	}

	fields := []struct {
		flag  string
		dst   *string
		value string
	}{
		{"project", &cfg.project, fc.Project},
		{"database", &cfg.database, fc.Database},
		{"collection", &cfg.collection, fc.Collection},
		{"gemini-project", &cfg.geminiProject, fc.GeminiProject},
		{"gemini-location", &cfg.geminiLocation, fc.GeminiLocation},
		{"generative-model", &cfg.generativeModel, fc.GenerativeModel},
		{"embedding-model", &cfg.embeddingModel, fc.EmbeddingModel},
		{"bucket", &cfg.bucket, fc.Bucket},
	}
	if addr != nil {
		fields = append(fields, struct {
			flag  string
			dst   *string
			value string
		}{"addr", addr, fc.Addr})
	}

	for _, f := range fields {
		if f.value != "" && !flags.IsSet(f.flag) {
			*f.dst = f.value
		}
	}

	return nil
}
