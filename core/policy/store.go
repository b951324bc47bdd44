// Package policy - Policy store
// In-memory registry with an optional durable backend. Mutations are
// atomic per id; readers always get a copied snapshot.
package policy

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
	"finopsguard/internal/logging"
)

// Backend is the optional durable side of the store. Failures are
// logged and do not fail the in-memory mutation.
type Backend interface {
	UpsertPolicy(ctx context.Context, p types.Policy) error
	DeletePolicy(ctx context.Context, id string) error
	ListPolicies(ctx context.Context) ([]types.Policy, error)
}

// MutationAction names a store mutation for hooks.
type MutationAction string

const (
	MutationCreated MutationAction = "created"
	MutationUpdated MutationAction = "updated"
	MutationDeleted MutationAction = "deleted"
)

// MutationHook observes committed mutations. The composition root wires
// this to audit logging and webhook event emission.
type MutationHook func(action MutationAction, p types.Policy)

// Store holds the policy registry.
type Store struct {
	mu       sync.RWMutex
	policies map[string]types.Policy
	order    []string

	backend Backend
	hooks   []MutationHook
	log     *zap.Logger
}

// NewStore creates an empty store. Backend may be nil.
func NewStore(backend Backend) *Store {
	return &Store{
		policies: make(map[string]types.Policy),
		backend:  backend,
		log:      logging.Named("policy.store"),
	}
}

// OnMutation registers a mutation hook.
func (s *Store) OnMutation(hook MutationHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// LoadPersisted merges durable policies into the registry. Called once
// at startup after the defaults are seeded.
func (s *Store) LoadPersisted(ctx context.Context) {
	if s.backend == nil {
		return
	}
	persisted, err := s.backend.ListPolicies(ctx)
	if err != nil {
		s.log.Warn("loading persisted policies failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range persisted {
		if _, exists := s.policies[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.policies[p.ID] = p
	}
}

// Add inserts a new policy. Fails when the id is taken.
func (s *Store) Add(ctx context.Context, p types.Policy) error {
	if p.ID == "" || p.Name == "" {
		return errors.Validation("invalid_request", "policy id and name are required")
	}
	s.mu.Lock()
	if _, exists := s.policies[p.ID]; exists {
		s.mu.Unlock()
		return errors.Newf(errors.TypeValidation, "policy %q already exists", p.ID)
	}
	s.policies[p.ID] = p
	s.order = append(s.order, p.ID)
	s.mu.Unlock()

	s.persist(ctx, p)
	s.notify(MutationCreated, p)
	return nil
}

// Update replaces an existing policy.
func (s *Store) Update(ctx context.Context, p types.Policy) error {
	s.mu.Lock()
	if _, exists := s.policies[p.ID]; !exists {
		s.mu.Unlock()
		return errors.Newf(errors.TypeNotFound, "policy %q not found", p.ID)
	}
	s.policies[p.ID] = p
	s.mu.Unlock()

	s.persist(ctx, p)
	s.notify(MutationUpdated, p)
	return nil
}

// Delete removes a policy by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	p, exists := s.policies[id]
	if !exists {
		s.mu.Unlock()
		return errors.Newf(errors.TypeNotFound, "policy %q not found", id)
	}
	delete(s.policies, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.DeletePolicy(ctx, id); err != nil {
			s.log.Warn("durable policy delete failed", zap.String("policy_id", id), zap.Error(err))
		}
	}
	s.notify(MutationDeleted, p)
	return nil
}

// Get returns a policy by id.
func (s *Store) Get(id string) (types.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	return p, ok
}

// List returns a snapshot of all policies in insertion order.
func (s *Store) List() []types.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Policy, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.policies[id])
	}
	return out
}

func (s *Store) persist(ctx context.Context, p types.Policy) {
	if s.backend == nil {
		return
	}
	if err := s.backend.UpsertPolicy(ctx, p); err != nil {
		s.log.Warn("durable policy write failed", zap.String("policy_id", p.ID), zap.Error(err))
	}
}

func (s *Store) notify(action MutationAction, p types.Policy) {
	s.mu.RLock()
	hooks := make([]MutationHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()
	for _, hook := range hooks {
		hook(action, p)
	}
}
