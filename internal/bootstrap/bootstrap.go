package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/eco-invoice-tracker/internal/config"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/impact"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/usecase"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/extractor"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/extractor/spreadsheet"
	neo4jgraph "github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/materials"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/queue/nats"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/resilience"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue      *nats.Queue
	FileTypes  *extractor.Router
	Resilience *resilience.Executor

	UploadUC    ports.InvoiceUploader
	ProcessUC   *usecase.ProcessInvoiceUseCase
	ReprocessUC ports.InvoiceReprocessor
	InvoiceUC   ports.InvoiceService
	MaterialUC  ports.MaterialService

	closeFn func()
}

// Engine is the storage-free part of the app: material table, recognizer and processor.
type Engine struct {
	Table     *domain.MaterialTable
	Materials *usecase.MaterialUseCase
	Processor *impact.Processor
}

func NewEngine(cfg config.Config, executor *resilience.Executor) (*Engine, error) {
	table, err := materials.Load(cfg.MaterialsFile)
	if err != nil {
		return nil, fmt.Errorf("load material table: %w", err)
	}

	recognizer, err := newEntityRecognizer(cfg, executor)
	if err != nil {
		return nil, err
	}

	processor := impact.NewProcessor(table, recognizer)
	return &Engine{
		Table:     table,
		Materials: usecase.NewMaterialUseCase(table, processor),
		Processor: processor,
	}, nil
}

func newEntityRecognizer(cfg config.Config, executor *resilience.Executor) (ports.EntityRecognizer, error) {
	switch cfg.NERMode {
	case config.NERModeNone, "":
		return nil, nil
	case config.NERModeOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaNERModel, ollama.Options{
			Timeout:            cfg.OllamaTimeout,
			ResilienceExecutor: executor,
		})
		slog.Info("entity_recognizer_enabled", "mode", cfg.NERMode, "model", cfg.OllamaNERModel)
		return ollama.NewEntityRecognizer(client), nil
	default:
		return nil, fmt.Errorf("unsupported NER_MODE %q", cfg.NERMode)
	}
}

type Options struct {
	// OnQueueDelivery observes publish-to-delivery lag of consumed invoice events.
	OnQueueDelivery func(lag time.Duration)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithOptions(ctx, cfg, Options{})
}

func NewWithOptions(ctx context.Context, cfg config.Config, options Options) (*App, error) {
	executor := resilience.NewExecutor(cfg.Resilience)

	engine, err := NewEngine(cfg, executor)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInvoiceRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		OnDelivery:         options.OnQueueDelivery,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	fileTypes := extractor.NewRouter(map[string]ports.TextExtractor{
		extractor.KindText:        plaintext.NewExtractor(storage),
		extractor.KindCSV:         spreadsheet.NewCSVExtractor(storage),
		extractor.KindSpreadsheet: spreadsheet.NewExtractor(storage),
	})

	var graph ports.ImpactGraph
	var closeGraph func()
	if cfg.Neo4jURI != "" {
		g, err := neo4jgraph.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			slog.Warn("impact_graph_unavailable", "uri", cfg.Neo4jURI, "error", err)
		} else {
			if err := g.SyncMaterials(ctx, engine.Table.Profiles(), engine.Processor.Alternatives); err != nil {
				slog.Warn("impact_graph_material_sync_failed", "error", err)
			}
			graph = g
			closeGraph = func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = g.Close(closeCtx)
			}
		}
	}

	return &App{
		Config:     cfg,
		Queue:      queue,
		FileTypes:  fileTypes,
		Resilience: executor,

		UploadUC:    usecase.NewUploadInvoiceUseCase(repo, storage, queue),
		ProcessUC:   usecase.NewProcessInvoiceUseCase(repo, fileTypes, engine.Processor, graph),
		ReprocessUC: usecase.NewReprocessInvoiceUseCase(repo, queue),
		InvoiceUC:   usecase.NewInvoiceQueryUseCase(repo, storage),
		MaterialUC:  engine.Materials,

		closeFn: func() {
			queue.Close()
			if closeGraph != nil {
				closeGraph()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
