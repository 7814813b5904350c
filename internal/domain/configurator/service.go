// internal/domain/configurator/service.go
package configurator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/prescription"
	"github.com/your-org/eyewear-backend/internal/domain/summary"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

// Service manages wizard sessions. Live sessions are kept in process and every
// change is written through to the store so a session survives a restart.
type Service struct {
	deps   *Dependencies
	store  Store
	ttl    time.Duration
	logger logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a new configurator service. Sessions idle for longer than
// ttl are dropped from memory; the store expires them on its own.
func NewService(deps Dependencies, store Store, ttl time.Duration) *Service {
	return &Service{
		deps:     &deps,
		store:    store,
		ttl:      ttl,
		logger:   deps.Logger,
		sessions: map[string]*Session{},
	}
}

// View is what a client renders for one session
type View struct {
	ID                string                `json:"id"`
	Loading           bool                  `json:"loading"`
	State             wizard.State          `json:"state"`
	Summary           *summary.Summary      `json:"summary,omitempty"`
	Config            *lens.ResolvedConfig  `json:"config,omitempty"`
	TreatmentGroups   []lens.TreatmentGroup `json:"treatment_groups,omitempty"`
	PrescriptionDraft *prescription.Form    `json:"prescription_draft,omitempty"`
	CanAddToCart      bool                  `json:"can_add_to_cart"`
}

// Open starts a wizard for a product
func (s *Service) Open(ctx context.Context, productID uint) (*Session, error) {
	session := NewSession(uuid.New().String(), s.deps)
	s.register(session)

	if err := session.Load(ctx, productID); err != nil {
		s.forget(session.ID)
		return nil, err
	}

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"product_id": productID,
	}).Info("Wizard session opened")

	return session, nil
}

// Get returns a live session, resuming it from the store when needed
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return session, nil
	}

	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	session = NewSession(id, s.deps)
	if err := session.Resume(ctx, snapshot); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have resumed it meanwhile
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = session
	return session, nil
}

// Dispatch applies an event to a session and persists the result
func (s *Service) Dispatch(ctx context.Context, id string, event wizard.Event) (*Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	_, dispatchErr := session.Dispatch(ctx, event)
	if err := s.settle(ctx, session); err != nil {
		return nil, err
	}
	return session, dispatchErr
}

// RemoveItem removes a summary line from a session
func (s *Service) RemoveItem(ctx context.Context, id, itemID string) (*Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	_, removeErr := session.RemoveItem(itemID)
	if err := s.settle(ctx, session); err != nil {
		return nil, err
	}
	return session, removeErr
}

// AddToCart submits a session's configuration to the owner's cart
func (s *Service) AddToCart(ctx context.Context, id string, owner cart.Owner) (*Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	_, submitErr := session.AddToCart(ctx, owner)
	if err := s.settle(ctx, session); err != nil {
		return nil, err
	}
	if submitErr == nil {
		s.logger.WithFields(logrus.Fields{
			"session_id": id,
			"product_id": session.State().ProductID,
		}).Info("Wizard completed")
	}
	return session, submitErr
}

// Close cancels a session and drops it from the store
func (s *Service) Close(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		// The snapshot exists but its catalog cannot be resolved; drop it anyway
		s.logger.WithError(err).WithField("session_id", id).Warn("Closing wizard session without resuming it")
		return s.store.Delete(ctx, id)
	}

	session.Close(ctx)
	return s.settle(ctx, session)
}

// ViewOf builds the client view of a session
func (s *Service) ViewOf(session *Session) View {
	view := View{
		ID:      session.ID,
		Loading: session.Loading(),
		State:   session.State(),
	}

	catalog := session.Catalog()
	if catalog == nil || view.State.Step.IsTerminal() {
		return view
	}

	sum := summary.Compute(view.State, catalog)
	view.Summary = &sum
	view.Config = catalog.Config
	view.TreatmentGroups = lens.GroupTreatments(catalog.Config.Treatments)
	view.CanAddToCart = wizard.CanAddToCart(view.State, catalog)
	if view.State.Step == wizard.StepPrescription {
		draft := view.State.PrescriptionDraft(catalog)
		view.PrescriptionDraft = &draft
	}
	return view
}

// settle writes the session through to the store, or removes it once finished
func (s *Service) settle(ctx context.Context, session *Session) error {
	if session.State().Step.IsTerminal() {
		s.forget(session.ID)
		return s.store.Delete(ctx, session.ID)
	}
	return s.persist(ctx, session)
}

func (s *Service) persist(ctx context.Context, session *Session) error {
	return s.store.Save(ctx, session.Snapshot())
}

func (s *Service) register(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 {
		cutoff := time.Now().UTC().Add(-s.ttl)
		for id, existing := range s.sessions {
			if existing.idleSince().Before(cutoff) {
				delete(s.sessions, id)
			}
		}
	}
	s.sessions[session.ID] = session
}

func (s *Service) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
