package services

import (
	"context"
	"sync"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/workflow"
)

// DefinitionService loads and caches parsed workflow definitions per service.
// A definition that fails validation is never cached, so a fixed definition
// becomes visible on the next load.
type DefinitionService struct {
	source ports.DefinitionSource
	eval   workflow.ConditionEvaluator

	mu    sync.RWMutex
	cache map[string]*workflow.Definition
}

// NewDefinitionService creates a new DefinitionService
func NewDefinitionService(source ports.DefinitionSource, eval workflow.ConditionEvaluator) *DefinitionService {
	return &DefinitionService{
		source: source,
		eval:   eval,
		cache:  make(map[string]*workflow.Definition),
	}
}

// Definition returns the parsed workflow definition for a service key
func (s *DefinitionService) Definition(ctx context.Context, serviceKey string) (*workflow.Definition, error) {
	s.mu.RLock()
	if def, ok := s.cache[serviceKey]; ok {
		s.mu.RUnlock()
		return def, nil
	}
	s.mu.RUnlock()

	raw, err := s.source.LoadWorkflowDefinition(ctx, serviceKey)
	if err != nil {
		return nil, err
	}

	def, err := workflow.Parse(raw, s.eval)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[serviceKey] = def
	s.mu.Unlock()
	return def, nil
}

// Evaluator exposes the condition evaluator used for traversal
func (s *DefinitionService) Evaluator() workflow.ConditionEvaluator {
	return s.eval
}

// Invalidate drops a cached definition (admin republish)
func (s *DefinitionService) Invalidate(serviceKey string) {
	s.mu.Lock()
	delete(s.cache, serviceKey)
	s.mu.Unlock()
}
