package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kirillkom/docsearch-summarizer/internal/config"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
	"github.com/kirillkom/docsearch-summarizer/internal/core/report"
	"github.com/kirillkom/docsearch-summarizer/internal/core/usecase"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/chunking"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/extractor"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/extractor/htmltext"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/llm/openai"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/render/pdf"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/resilience"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/searchengine"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/session/memory"
	redisstore "github.com/kirillkom/docsearch-summarizer/internal/infrastructure/session/redis"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/storage/gcs"
	"github.com/kirillkom/docsearch-summarizer/internal/infrastructure/storage/localfs"
)

type Options struct {
	// Observer receives retry and circuit breaker events from every outbound client.
	Observer resilience.Observer
	Logger   *slog.Logger
}

type App struct {
	Config  config.Config
	Prompts config.Prompts

	CatalogUC ports.CatalogService
	QueryUC   ports.QueryService
	UploadUC  ports.UploadService
	ReportUC  ports.ReportService
	SessionUC ports.SessionService

	closers []func()
}

// New wires the API process: search backend, language model, object storage,
// upload history, event publishing and session state.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}
	if err := app.build(ctx, cfg, opts); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, cfg config.Config, opts Options) error {
	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	a.Prompts = prompts

	exec := newExecutors(cfg, opts)
	search := newSearchClient(cfg, exec.search)

	summarizer, titles, err := newLanguageModel(cfg, prompts, exec.languageModel)
	if err != nil {
		return err
	}

	storage, err := a.newObjectStorage(ctx, cfg)
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	uploads := postgres.NewUploadRepository(db)
	if err := uploads.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: exec.publish,
		Logger:             opts.Logger,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)

	sessions, err := a.newSessionStore(cfg)
	if err != nil {
		return err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	textExtractor := extractor.NewRouter(
		pdftext.NewExtractor(storage, cfg.PDFMaxPages),
		htmltext.NewExtractor(storage),
		plaintext.NewExtractor(storage),
	)

	a.CatalogUC = usecase.NewCatalogUseCase(search, xlsx.NewExporter())
	a.QueryUC = usecase.NewQueryUseCase(search, sessions, prompts.AnswerPreamble, prompts.SampleQueries)
	a.UploadUC = usecase.NewUploadUseCase(usecase.UploadDeps{
		Catalog:    search,
		Storage:    storage,
		Repo:       uploads,
		Publisher:  queue,
		Extractor:  textExtractor,
		Chunker:    chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		Summarizer: summarizer,
		Sessions:   sessions,
	}, cfg.DefaultBucket, cfg.MaxSummaryChunks)
	a.ReportUC = usecase.NewReportUseCase(report.NewAssembler(renderer), titles, a.CatalogUC, sessions, cfg.MaxReportSources)
	a.SessionUC = usecase.NewSessionUseCase(sessions)
	return nil
}

// Worker consumes upload events and indexes the uploaded objects.
type Worker struct {
	Config   config.Config
	Queue    *nats.Queue
	ImportUC ports.UploadImporter
}

func NewWorker(cfg config.Config, opts Options) (*Worker, error) {
	exec := newExecutors(cfg, opts)
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: exec.publish,
		Logger:             opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	return &Worker{
		Config:   cfg,
		Queue:    queue,
		ImportUC: usecase.NewImportUseCase(newSearchClient(cfg, exec.search)),
	}, nil
}

func (w *Worker) Close() {
	w.Queue.Close()
}

// Search holds the read-only services that need nothing but the search backend.
type Search struct {
	CatalogUC ports.CatalogService
	QueryUC   ports.QueryService
}

func NewSearch(cfg config.Config, opts Options) (*Search, error) {
	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	search := newSearchClient(cfg, newExecutors(cfg, opts).search)
	return &Search{
		CatalogUC: usecase.NewCatalogUseCase(search, xlsx.NewExporter()),
		QueryUC:   usecase.NewQueryUseCase(search, nil, prompts.AnswerPreamble, prompts.SampleQueries),
	}, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type executors struct {
	search        *resilience.Executor
	languageModel *resilience.Executor
	publish       *resilience.Executor
}

func newExecutors(cfg config.Config, opts Options) executors {
	search, languageModel, publish := resilience.NewExecutors(cfg.Resilience)
	if opts.Observer != nil {
		search.WithObserver(opts.Observer)
		languageModel.WithObserver(opts.Observer)
		publish.WithObserver(opts.Observer)
	}
	return executors{search: search, languageModel: languageModel, publish: publish}
}

func newSearchClient(cfg config.Config, executor *resilience.Executor) *searchengine.Client {
	return searchengine.New(searchengine.Options{
		BaseURL:     cfg.SearchBaseURL,
		ProjectID:   cfg.SearchProjectID,
		Location:    cfg.SearchLocation,
		DataStoreID: cfg.SearchDataStoreID,
		EngineID:    cfg.SearchEngineID,
		AccessToken: cfg.SearchAccessToken,
		PageSize:    cfg.SearchPageSize,
		Timeout:     cfg.SearchTimeout,
		Executor:    executor,
	})
}

func newLanguageModel(
	cfg config.Config,
	prompts config.Prompts,
	executor *resilience.Executor,
) (ports.Summarizer, ports.TitleGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", "ollama":
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, executor)
		return ollama.NewSummarizer(client, prompts.SummaryInstruction),
			ollama.NewTitleGenerator(client, prompts.TitleInstruction), nil
	case "openai":
		client, err := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init openai client: %w", err)
		}
		return openai.NewSummarizer(client, prompts.SummaryInstruction),
			openai.NewTitleGenerator(client, prompts.TitleInstruction), nil
	default:
		return nil, nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func (a *App) newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "local":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		return storage, nil
	case "gcs":
		storage, err := gcs.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		a.closers = append(a.closers, func() { _ = storage.Close() })
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func (a *App) newSessionStore(cfg config.Config) (ports.SessionStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.SessionBackend)) {
	case "", "memory":
		return memory.New(cfg.SessionTTL), nil
	case "redis":
		client, err := redisstore.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return redisstore.New(client, "", cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}
}

func newRenderer(cfg config.Config) (*pdf.Renderer, error) {
	var opts pdf.Options
	if path := strings.TrimSpace(cfg.ReportLogoPath); path != "" {
		logo, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report logo: %w", err)
		}
		opts.Logo = logo
	}
	return pdf.NewRenderer(opts), nil
}
