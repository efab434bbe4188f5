package app

import (
	"io"

	"uploadagent/internal/api"
	"uploadagent/internal/history"
	"uploadagent/internal/llm"
	"uploadagent/internal/metadata"
	"uploadagent/internal/storage"
	"uploadagent/internal/submission"
	"uploadagent/internal/workflow"
	"uploadagent/pkg/config"
)

type Service struct {
	cfg          *config.Config
	llm          llm.Client
	generator    *metadata.Generator
	orchestrator *submission.Orchestrator
	store        storage.Store
	history      *history.Log
}

type ServiceOptions struct {
	Config       *config.Config
	LLM          llm.Client
	Generator    *metadata.Generator
	Orchestrator *submission.Orchestrator
	Store        storage.Store
	History      *history.Log
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:          opts.Config,
		llm:          opts.LLM,
		generator:    opts.Generator,
		orchestrator: opts.Orchestrator,
		store:        opts.Store,
		history:      opts.History,
	}
}

func (s *Service) Config() *config.Config                 { return s.cfg }
func (s *Service) LLM() llm.Client                        { return s.llm }
func (s *Service) Generator() *metadata.Generator         { return s.generator }
func (s *Service) Orchestrator() *submission.Orchestrator { return s.orchestrator }
func (s *Service) Store() storage.Store                   { return s.store }
func (s *Service) History() *history.Log                  { return s.history }

// NewController returns a workflow controller running generation and
// submission in-process.
func (s *Service) NewController() *workflow.Controller {
	return workflow.NewController(
		workflow.LocalMetadata{Generator: s.generator},
		workflow.LocalSubmitter{Orchestrator: s.orchestrator},
	)
}

func (s *Service) NewServer() *api.Server {
	return api.NewServer(api.Options{
		Generator:      s.generator,
		Orchestrator:   s.orchestrator,
		Store:          s.store,
		Sessions:       workflow.NewRegistry(s.NewController),
		History:        s.history,
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		MaxUploadBytes: s.cfg.Server.MaxUploadMB << 20,
	})
}

// Close releases clients that hold connections, such as the GCS store.
func (s *Service) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
