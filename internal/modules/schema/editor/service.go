package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/modules/schema/contenttype"
	"github.com/mx-space/fieldkit/internal/pkg/metrics"
	"go.uber.org/zap"
)

type Options struct {
	PlaceholderLabel string
	Policy           builder.IdentifierPolicy
	// IdleTimeout is both the sweep threshold and the snapshot TTL.
	IdleTimeout time.Duration
	Catalog     *builder.Catalog
	Metrics     *metrics.Metrics
}

// Service owns the live builder sessions of this instance.
type Service struct {
	types ContentTypes
	store Store
	log   *zap.Logger
	opts  Options

	notifyMu sync.RWMutex
	notifier Notifier

	mu       sync.Mutex
	sessions map[string]*session
	// closed remembers ids closed on this instance so a snapshot that is
	// still being deleted is never restored.
	closed map[string]time.Time

	now func() time.Time
}

func NewService(types ContentTypes, store Store, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if opts.Catalog == nil {
		opts.Catalog = builder.DefaultCatalog()
	}
	if opts.PlaceholderLabel == "" {
		opts.PlaceholderLabel = builder.DefaultPlaceholderLabel
	}
	return &Service{
		types:    types,
		store:    store,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*session),
		closed:   make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetNotifier attaches the gateway once it exists.
func (s *Service) SetNotifier(n Notifier) {
	s.notifyMu.Lock()
	s.notifier = n
	s.notifyMu.Unlock()
}

func (s *Service) Catalog() *builder.Catalog { return s.opts.Catalog }

// Open starts a session, seeded from a stored content type when one is named.
func (s *Service) Open(ctx context.Context, req OpenRequest) (View, error) {
	snap := Snapshot{ID: uuid.New().String(), Name: strings.TrimSpace(req.Name)}
	if req.ContentTypeID != "" {
		ct, err := s.types.GetByID(ctx, req.ContentTypeID)
		if err != nil {
			return View{}, err
		}
		snap.ContentTypeID = ct.ID
		snap.Description = ct.Description
		snap.Fields = fieldsFromModels(ct.Fields)
		if snap.Name == "" {
			snap.Name = ct.Name
		}
	}

	sess := newSession(snap, s.opts.Catalog, s.opts, s.log)
	sess.lastActive = s.now()
	if err := s.store.Save(ctx, sess.snapshot(sess.lastActive), s.opts.IdleTimeout); err != nil {
		return View{}, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.mu.Unlock()
	s.opts.Metrics.SetSessionsActive(active)

	s.log.Info("builder session opened",
		zap.String("session", sess.id),
		zap.String("contentType", sess.contentTypeID),
		zap.Int("fields", sess.ctrl.Fields().Len()),
	)
	return sess.view(), nil
}

// View returns the rendered state of a session.
func (s *Service) View(ctx context.Context, id string) (View, error) {
	var v View
	err := s.with(ctx, id, func(sess *session) error {
		v = sess.view()
		return nil
	})
	return v, err
}

// Input feeds one gesture step to the session's controller.
func (s *Service) Input(ctx context.Context, id string, in Input) (InputResult, error) {
	var res InputResult
	err := s.with(ctx, id, func(sess *session) error {
		label, out, err := dispatch(sess, in)
		if err != nil {
			return err
		}
		s.opts.Metrics.ObserveInput(label, out.Accepted)
		if out.Mutation.Type != "" && out.Mutation.Type != builder.MutationNone {
			s.opts.Metrics.ObserveDrop(string(out.Mutation.Type))
		}
		res = InputResult{Outcome: out, View: sess.view()}
		return nil
	})
	return res, err
}

func dispatch(sess *session, in Input) (string, builder.Outcome, error) {
	switch {
	case in.Event != nil:
		return "event", sess.ctrl.Handle(*in.Event), nil
	case in.Pointer != nil:
		switch in.Surface {
		case SurfacePalette:
			return in.Surface, sess.palette.Pointer(*in.Pointer), nil
		case SurfaceList:
			return in.Surface, sess.list.Pointer(*in.Pointer), nil
		}
	case in.Key != nil:
		switch in.Surface {
		case SurfacePalette:
			return in.Surface, sess.palette.Key(*in.Key), nil
		case SurfaceList:
			return in.Surface, sess.list.Key(*in.Key), nil
		}
	default:
		return "", builder.Outcome{}, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	return "", builder.Outcome{}, fmt.Errorf("%w: unknown surface %q", ErrInvalidInput, in.Surface)
}

func (s *Service) Rename(ctx context.Context, id, fieldID, label string) (View, error) {
	return s.UpdateField(ctx, id, fieldID, FieldPatch{Label: &label})
}

func (s *Service) SetIdentifier(ctx context.Context, id, fieldID, identifier string) (View, error) {
	return s.UpdateField(ctx, id, fieldID, FieldPatch{APIIdentifier: &identifier})
}

func (s *Service) ChangeKind(ctx context.Context, id, fieldID, kind string) (View, error) {
	return s.UpdateField(ctx, id, fieldID, FieldPatch{Kind: &kind})
}

func (s *Service) SetRequired(ctx context.Context, id, fieldID string, required bool) (View, error) {
	return s.UpdateField(ctx, id, fieldID, FieldPatch{IsRequired: &required})
}

// ToggleRequired flips a field's required flag.
func (s *Service) ToggleRequired(ctx context.Context, id, fieldID string) (View, error) {
	return s.edit(ctx, id, func(sess *session) error {
		i := sess.ctrl.Fields().IndexOf(fieldID)
		f, ok := sess.ctrl.Fields().At(i)
		if !ok {
			return ErrFieldNotFound
		}
		sess.ctrl.SetRequired(fieldID, !f.IsRequired)
		return nil
	})
}

// UpdateField applies a patch. The kind is validated before anything
// changes, so a rejected patch leaves the field untouched.
func (s *Service) UpdateField(ctx context.Context, id, fieldID string, patch FieldPatch) (View, error) {
	return s.edit(ctx, id, func(sess *session) error {
		if !sess.hasField(fieldID) {
			return ErrFieldNotFound
		}
		var kind builder.Kind
		if patch.Kind != nil {
			k, err := builder.ParseKind(*patch.Kind)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			kind = k
		}
		if patch.Label != nil {
			sess.ctrl.Rename(fieldID, strings.TrimSpace(*patch.Label))
		}
		if patch.APIIdentifier != nil {
			sess.ctrl.SetIdentifier(fieldID, strings.TrimSpace(*patch.APIIdentifier))
		}
		if patch.Kind != nil {
			sess.ctrl.ChangeKind(fieldID, kind)
		}
		if patch.IsRequired != nil {
			sess.ctrl.SetRequired(fieldID, *patch.IsRequired)
		}
		return nil
	})
}

// Remove deletes a field. The field under an active drag is refused.
func (s *Service) Remove(ctx context.Context, id, fieldID string) (View, error) {
	return s.edit(ctx, id, func(sess *session) error {
		if !sess.hasField(fieldID) {
			return ErrFieldNotFound
		}
		if sess.dragging(fieldID) {
			return ErrFieldBusy
		}
		sess.ctrl.Remove(fieldID)
		return nil
	})
}

// Update sets the content type's name and description.
func (s *Service) Update(ctx context.Context, id string, patch SessionPatch) (View, error) {
	var v View
	err := s.with(ctx, id, func(sess *session) error {
		if patch.Name == nil && patch.Description == nil {
			v = sess.view()
			return nil
		}
		if patch.Name != nil {
			sess.name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			sess.description = strings.TrimSpace(*patch.Description)
		}
		if err := s.persist(ctx, sess); err != nil {
			return err
		}
		s.broadcast(sess.id, EventSessionUpdated, sessionPayload{
			SessionID:     sess.id,
			ContentTypeID: sess.contentTypeID,
			Name:          sess.name,
			Description:   sess.description,
		})
		v = sess.view()
		return nil
	})
	return v, err
}

func (s *Service) SetName(ctx context.Context, id, name string) (View, error) {
	return s.Update(ctx, id, SessionPatch{Name: &name})
}

func (s *Service) SetDescription(ctx context.Context, id, description string) (View, error) {
	return s.Update(ctx, id, SessionPatch{Description: &description})
}

// Submit saves the session's schema as a content type: created on the first
// submit, updated afterwards. The session stays open and bound to the result.
func (s *Service) Submit(ctx context.Context, id string) (SubmitResult, error) {
	var res SubmitResult
	err := s.with(ctx, id, func(sess *session) error {
		fields := fieldDTOs(sess.ctrl.Fields().Fields())

		if sess.contentTypeID == "" {
			ct, err := s.types.Create(ctx, &contenttype.CreateContentTypeDTO{
				Name:        sess.name,
				Description: sess.description,
				Fields:      fields,
			})
			if err != nil {
				return err
			}
			res.ContentType = ct
		} else {
			ct, err := s.types.Update(ctx, sess.contentTypeID, &contenttype.UpdateContentTypeDTO{
				Name:        &sess.name,
				Description: &sess.description,
				Fields:      &fields,
			})
			if err != nil {
				return err
			}
			res.ContentType = ct
		}

		sess.contentTypeID = res.ContentType.ID
		sess.name = res.ContentType.Name
		if err := s.persist(ctx, sess); err != nil {
			return err
		}
		s.broadcast(sess.id, EventSessionSubmitted, sessionPayload{
			SessionID:     sess.id,
			ContentTypeID: sess.contentTypeID,
			Name:          sess.name,
		})
		s.log.Info("builder session submitted",
			zap.String("session", sess.id),
			zap.String("contentType", sess.contentTypeID),
			zap.Int("fields", len(fields)),
		)
		res.View = sess.view()
		return nil
	})
	return res, err
}

// Close discards a session and its snapshot.
func (s *Service) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.closed[id] = s.now()
	active := len(s.sessions)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		sess.closed = true
		sess.mu.Unlock()
	} else if _, err := s.store.Load(ctx, id); err != nil {
		s.mu.Lock()
		delete(s.closed, id)
		s.mu.Unlock()
		return err
	}
	s.opts.Metrics.SetSessionsActive(active)

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.broadcast(id, EventSessionClosed, sessionPayload{SessionID: id})
	return nil
}

// Sweep drops sessions idle longer than the idle timeout and reports how
// many it closed.
func (s *Service) Sweep(ctx context.Context) int {
	if s.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	var stale []*session
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastActive.Before(cutoff) {
			sess.closed = true
			stale = append(stale, sess)
			delete(s.sessions, id)
			s.closed[id] = s.now()
		}
		sess.mu.Unlock()
	}
	// Snapshots outlive a close by at most one TTL.
	for id, at := range s.closed {
		if at.Before(cutoff) {
			delete(s.closed, id)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()
	s.opts.Metrics.SetSessionsActive(active)

	for _, sess := range stale {
		if err := s.store.Delete(ctx, sess.id); err != nil {
			s.log.Warn("builder: delete idle snapshot failed", zap.String("session", sess.id), zap.Error(err))
		}
		s.broadcast(sess.id, EventSessionClosed, sessionPayload{SessionID: sess.id})
	}
	if len(stale) > 0 {
		s.log.Info("builder idle sessions swept", zap.Int("closed", len(stale)), zap.Int("active", active))
	}
	return len(stale)
}

// Active counts sessions live on this instance.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) edit(ctx context.Context, id string, fn func(*session) error) (View, error) {
	var v View
	err := s.with(ctx, id, func(sess *session) error {
		if err := fn(sess); err != nil {
			return err
		}
		v = sess.view()
		return nil
	})
	return v, err
}

// with runs fn holding the session's lock. Field changes made by fn are
// persisted and broadcast before the lock is released.
func (s *Service) with(ctx context.Context, id string, fn func(*session) error) error {
	sess, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()

	sess.lastActive = s.now()
	fnErr := fn(sess)

	if sess.dirty {
		sess.dirty = false
		if err := s.persist(ctx, sess); err != nil {
			return err
		}
		fields := sess.ctrl.Fields().Fields()
		s.broadcast(sess.id, EventFieldsChanged, fieldsChangedPayload{SessionID: sess.id, Fields: fields})
	} else if err := s.store.Touch(ctx, sess.id, s.opts.IdleTimeout); err != nil {
		s.log.Warn("builder: refresh snapshot ttl failed", zap.String("session", sess.id), zap.Error(err))
	}
	return fnErr
}

// acquire returns the session locked, restoring it from its snapshot when
// this instance does not hold it.
func (s *Service) acquire(ctx context.Context, id string) (*session, error) {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		s.mu.Unlock()

		if !ok {
			restored, err := s.restore(ctx, id)
			if err != nil {
				return nil, err
			}
			sess = restored
		}

		sess.mu.Lock()
		if !sess.closed {
			return sess, nil
		}
		sess.mu.Unlock()
		if !ok {
			return nil, ErrSessionNotFound
		}
	}
}

func (s *Service) restore(ctx context.Context, id string) (*session, error) {
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	if _, gone := s.closed[id]; gone {
		return nil, ErrSessionNotFound
	}
	sess := newSession(snap, s.opts.Catalog, s.opts, s.log)
	sess.lastActive = s.now()
	s.sessions[id] = sess
	s.opts.Metrics.SetSessionsActive(len(s.sessions))
	s.log.Info("builder session restored", zap.String("session", id), zap.Int("fields", len(snap.Fields)))
	return sess, nil
}

func (s *Service) persist(ctx context.Context, sess *session) error {
	if err := s.store.Save(ctx, sess.snapshot(s.now()), s.opts.IdleTimeout); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *Service) broadcast(sessionID, event string, payload interface{}) {
	s.notifyMu.RLock()
	n := s.notifier
	s.notifyMu.RUnlock()
	if n != nil {
		n.BroadcastSession(sessionID, event, payload)
	}
}

func fieldDTOs(fields []builder.FieldDefinition) []contenttype.FieldDTO {
	out := make([]contenttype.FieldDTO, 0, len(fields))
	for _, f := range fields {
		out = append(out, contenttype.FieldDTO{
			ID:            f.ID,
			Label:         f.Label,
			APIIdentifier: f.APIIdentifier,
			Kind:          string(f.Kind),
			IsRequired:    f.IsRequired,
		})
	}
	return out
}
