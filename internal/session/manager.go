package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/units"
	"github.com/2beens/fitcoach/internal/workouts"
	"github.com/2beens/fitcoach/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

const (
	DefaultTickInterval     = time.Second
	DefaultAutosaveInterval = 30 * time.Second
	DefaultIdleTimeout      = 5 * time.Minute

	autosaveTimeout = 10 * time.Second
)

var (
	ErrNoLiveSession = errors.New("no live session for this workout")
	ErrUnknownAction = errors.New("unknown session action")
)

//go:generate mockgen -source=$GOFILE -destination=manager_mocks_test.go -package=session_test

type sessionStore interface {
	Save(ctx context.Context, as ActiveSession) (*ActiveSession, error)
	Get(ctx context.Context, userID, workoutID int) (*ActiveSession, error)
	GetByID(ctx context.Context, userID, id int) (*ActiveSession, error)
	ListUnfinished(ctx context.Context, userID int) ([]ActiveSession, error)
	Delete(ctx context.Context, userID, id int) error
	Complete(ctx context.Context, userID, workoutID int, completedDate time.Time, durationMinutes int, sections []workouts.Section) error
}

type workoutSource interface {
	Get(ctx context.Context, userID, id int) (*workouts.Workout, error)
	LastPerformed(ctx context.Context, userID int, exerciseIDs []int) (map[int][]workouts.Performance, error)
}

type sessionKey struct {
	userID    int
	workoutID int
}

// Manager keeps the live sessions in memory, drives their timers from a
// single ticker and autosaves them to the store.
type Manager struct {
	store            sessionStore
	workouts         workoutSource
	metricsManager   *metrics.Manager
	tickInterval     time.Duration
	autosaveInterval time.Duration
	idleTimeout      time.Duration
	now              func() time.Time

	mu       sync.RWMutex
	sessions map[sessionKey]*Session
}

func NewManager(
	store sessionStore,
	source workoutSource,
	metricsManager *metrics.Manager,
	tickInterval time.Duration,
	autosaveInterval time.Duration,
	idleTimeout time.Duration,
) *Manager {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if autosaveInterval <= 0 {
		autosaveInterval = DefaultAutosaveInterval
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		store:            store,
		workouts:         source,
		metricsManager:   metricsManager,
		tickInterval:     tickInterval,
		autosaveInterval: autosaveInterval,
		idleTimeout:      idleTimeout,
		now:              time.Now,
		sessions:         map[sessionKey]*Session{},
	}
}

// Run blocks until ctx is done. Callers should Shutdown afterwards to flush.
func (m *Manager) Run(ctx context.Context) {
	tickTicker := time.NewTicker(m.tickInterval)
	defer tickTicker.Stop()
	autosaveTicker := time.NewTicker(m.autosaveInterval)
	defer autosaveTicker.Stop()

	log.Debugf("session manager running, tick %s, autosave %s, idle timeout %s", m.tickInterval, m.autosaveInterval, m.idleTimeout)
	lastTick := m.now()
	for {
		select {
		case <-ctx.Done():
			log.Debugln("session manager stopped")
			return
		case <-tickTicker.C:
			now := m.now()
			m.Tick(now.Sub(lastTick))
			lastTick = now
		case <-autosaveTicker.C:
			saveCtx, cancel := context.WithTimeout(ctx, autosaveTimeout)
			if err := m.Autosave(saveCtx); err != nil {
				log.Errorf("session autosave: %s", err)
			}
			if err := m.EvictIdle(saveCtx, m.now()); err != nil {
				log.Errorf("session idle eviction: %s", err)
			}
			cancel()
		}
	}
}

func (m *Manager) live() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	return list
}

func (m *Manager) lookup(userID, workoutID int) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionKey{userID: userID, workoutID: workoutID}]
}

// add keeps an already live session for the same key if there is one.
func (m *Manager) add(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{userID: s.userID, workoutID: s.workoutID}
	if existing, ok := m.sessions[key]; ok {
		return existing
	}
	m.sessions[key] = s
	m.metricsManager.GaugeLiveSessions.Set(float64(len(m.sessions)))
	return s
}

// drop closes s and removes it from the live set. Callers hold s.persistMu.
func (m *Manager) drop(s *Session) {
	s.closed = true
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey{userID: s.userID, workoutID: s.workoutID}
	if m.sessions[key] == s {
		delete(m.sessions, key)
	}
	m.metricsManager.GaugeLiveSessions.Set(float64(len(m.sessions)))
}

func (m *Manager) LiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Tick advances every live session by d.
func (m *Manager) Tick(d time.Duration) {
	for _, s := range m.live() {
		if outcome := s.Tick(d); outcome == OutcomeAdvanced {
			log.Tracef("session %d/%d: rest over, advanced", s.userID, s.workoutID)
		}
	}
}

// save stores s unless it was closed in the meantime.
func (m *Manager) save(ctx context.Context, s *Session) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.closed {
		return nil
	}
	return m.saveLocked(ctx, s)
}

func (m *Manager) saveLocked(ctx context.Context, s *Session) error {
	now := m.now()
	as, version := s.persistable(now)
	saved, err := m.store.Save(ctx, as)
	if err != nil {
		m.metricsManager.CounterSessionAutosaves.WithLabelValues("error").Inc()
		return fmt.Errorf("save session %d/%d: %w", as.UserID, as.WorkoutID, err)
	}
	s.markSaved(saved.ID, now, version)
	m.metricsManager.CounterSessionAutosaves.WithLabelValues("ok").Inc()
	return nil
}

// Autosave stores every tracking session with unsaved changes. Failed saves
// stay dirty and are retried on the next call.
func (m *Manager) Autosave(ctx context.Context) error {
	var errs error
	for _, s := range m.live() {
		if s.Phase() != PhaseTracking || !s.Dirty() {
			continue
		}
		if err := m.save(ctx, s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// EvictIdle saves and drops every session that had no request for longer
// than the idle timeout. A session whose save fails stays live.
func (m *Manager) EvictIdle(ctx context.Context, now time.Time) error {
	var errs error
	for _, s := range m.live() {
		if now.Sub(s.LastActivity()) < m.idleTimeout {
			continue
		}
		if err := m.evictIdle(ctx, s, now); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (m *Manager) evictIdle(ctx context.Context, s *Session, now time.Time) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.closed || now.Sub(s.LastActivity()) < m.idleTimeout {
		return nil
	}
	if s.Phase() == PhaseTracking && s.Dirty() {
		if err := m.saveLocked(ctx, s); err != nil {
			return err
		}
	}
	m.drop(s)
	log.Debugf("session %d/%d idle, evicted", s.userID, s.workoutID)
	return nil
}

// Shutdown flushes all sessions with unsaved changes.
func (m *Manager) Shutdown(ctx context.Context) error {
	log.Debugf("session manager shutdown, flushing %d live sessions", m.LiveCount())
	return m.Autosave(ctx)
}

// Start returns the live session for the workout. A stored unfinished session
// is resumed; otherwise a fresh one is created in the overview phase.
func (m *Manager) Start(ctx context.Context, userID, workoutID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.manager.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	if s := m.lookup(userID, workoutID); s != nil {
		s.Seen(m.now())
		return s, nil
	}

	stored, err := m.store.Get(ctx, userID, workoutID)
	if err == nil {
		log.Debugf("resuming stored session %d for user %d", stored.ID, userID)
		return m.addSeen(Restore(*stored)), nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("get stored session: %w", err)
	}

	workout, err := m.workouts.Get(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	return m.addSeen(New(userID, workout, m.now())), nil
}

func (m *Manager) addSeen(s *Session) *Session {
	s = m.add(s)
	s.Seen(m.now())
	return s
}

// Resume loads a stored unfinished session, found by its id, into the manager.
func (m *Manager) Resume(ctx context.Context, userID, sessionID int) (*Session, error) {
	stored, err := m.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if s := m.lookup(userID, stored.WorkoutID); s != nil {
		s.Seen(m.now())
		return s, nil
	}
	return m.addSeen(Restore(*stored)), nil
}

// Get returns the live session and counts as activity on it.
func (m *Manager) Get(userID, workoutID int) (*Session, error) {
	s := m.lookup(userID, workoutID)
	if s == nil {
		return nil, ErrNoLiveSession
	}
	s.Seen(m.now())
	return s, nil
}

// Action is one user interaction with a live session.
type Action struct {
	Type          string    `json:"type"`
	Direction     Direction `json:"direction"`
	SectionIndex  int       `json:"section_index"`
	ExerciseIndex int       `json:"exercise_index"`
	SetIndex      int       `json:"set_index"`
	Field         string    `json:"field"`
	Value         string    `json:"value"`
	Delta         float64   `json:"delta"`
	UnitSystem    string    `json:"unit_system"`
}

const (
	ActionBegin        = "begin"
	ActionNavigate     = "navigate"
	ActionToggleSet    = "toggle_set"
	ActionSkipRest     = "skip_rest"
	ActionUpdateSet    = "update_set"
	ActionAdjustWeight = "adjust_weight"
	ActionAdjustReps   = "adjust_reps"
	ActionAddSet       = "add_set"
	ActionRemoveSet    = "remove_set"
	ActionSetFeedback  = "set_feedback"
	ActionSetNote      = "set_note"
	ActionExerciseNote = "exercise_note"
	ActionPrefill      = "prefill"
)

// Apply runs an action on the live session and returns its new view.
// Entering the tracking phase saves the session right away.
func (m *Manager) Apply(ctx context.Context, userID, workoutID int, action Action) (_ *View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.manager.apply")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("action", action.Type))

	s, err := m.Get(userID, workoutID)
	if err != nil {
		return nil, err
	}

	system := units.ParseSystem(action.UnitSystem)
	outcome := OutcomeNone
	switch action.Type {
	case ActionBegin:
		wasTracking := s.Phase() == PhaseTracking
		s.Begin(m.now())
		if !wasTracking {
			if err := m.save(ctx, s); err != nil {
				log.Errorf("save session on begin: %s", err)
			}
		}
	case ActionNavigate:
		if action.Direction != Next && action.Direction != Prev {
			return nil, fmt.Errorf("%w: direction %q", ErrUnknownAction, action.Direction)
		}
		s.Navigate(action.Direction)
	case ActionToggleSet:
		outcome, err = s.ToggleSet(action.SectionIndex, action.ExerciseIndex, action.SetIndex)
	case ActionSkipRest:
		s.SkipRest()
	case ActionUpdateSet:
		err = s.UpdateSet(action.SectionIndex, action.ExerciseIndex, action.SetIndex, action.Field, action.Value, system)
	case ActionAdjustWeight:
		err = s.QuickAdjustWeight(action.SetIndex, action.Delta, system)
	case ActionAdjustReps:
		err = s.QuickAdjustReps(action.SetIndex, int(math.Round(action.Delta)))
	case ActionAddSet:
		err = s.AddSet(action.SectionIndex, action.ExerciseIndex)
	case ActionRemoveSet:
		err = s.RemoveSet(action.SectionIndex, action.ExerciseIndex, action.SetIndex)
	case ActionSetFeedback:
		err = s.SetFeedback(action.SetIndex, action.Value)
	case ActionSetNote:
		err = s.SetNote(action.SetIndex, action.Value)
	case ActionExerciseNote:
		err = s.SetExerciseNote(action.Value)
	case ActionPrefill:
		err = m.prefill(ctx, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
	if err != nil {
		return nil, err
	}

	view := s.View()
	view.Outcome = outcome
	return &view, nil
}

func (m *Manager) prefill(ctx context.Context, s *Session) error {
	exerciseID := s.CurrentExerciseID()
	if exerciseID == 0 {
		return nil
	}
	lastPerformed, err := m.workouts.LastPerformed(ctx, s.userID, []int{exerciseID})
	if err != nil {
		return fmt.Errorf("get last performed: %w", err)
	}
	s.Prefill(lastPerformed[exerciseID])
	return nil
}

// Exit saves a tracking session immediately and drops it from memory.
func (m *Manager) Exit(ctx context.Context, userID, workoutID int) error {
	s, err := m.Get(userID, workoutID)
	if err != nil {
		return err
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.closed {
		return ErrNoLiveSession
	}
	if s.Phase() == PhaseTracking {
		if err := m.saveLocked(ctx, s); err != nil {
			return err
		}
	}
	m.drop(s)
	return nil
}

type CompletionResult struct {
	WorkoutID       int      `json:"workout_id"`
	CompletedDate   string   `json:"completed_date"`
	DurationMinutes int      `json:"duration_minutes"`
	Progress        Progress `json:"progress"`
}

// Complete finishes the live (or stored) session: the workout is marked
// completed today with the session's sets, and the stored session is removed.
func (m *Manager) Complete(ctx context.Context, userID, workoutID int) (_ *CompletionResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.manager.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	s := m.lookup(userID, workoutID)
	if s == nil {
		stored, err := m.store.Get(ctx, userID, workoutID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return nil, ErrNoLiveSession
			}
			return nil, err
		}
		s = Restore(*stored)
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.closed {
		return nil, ErrNoLiveSession
	}

	today := m.now()
	durationMinutes := int(math.Round(float64(s.ElapsedSeconds()) / 60))
	if err := m.store.Complete(ctx, userID, workoutID, today, durationMinutes, s.Sections()); err != nil {
		return nil, fmt.Errorf("complete workout: %w", err)
	}

	m.drop(s)
	m.metricsManager.CounterWorkoutsCompleted.Inc()
	log.Debugf("user %d completed workout %d in %d min", userID, workoutID, durationMinutes)

	return &CompletionResult{
		WorkoutID:       workoutID,
		CompletedDate:   pkg.FormatDate(today),
		DurationMinutes: durationMinutes,
		Progress:        s.Progress(),
	}, nil
}

func (m *Manager) ListUnfinished(ctx context.Context, userID int) ([]ActiveSession, error) {
	sessions, err := m.store.ListUnfinished(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []ActiveSession{}
	}
	return sessions, nil
}

// CompleteUnfinished completes a stored session with a user given date and
// duration, keeping the sets as they were last saved.
func (m *Manager) CompleteUnfinished(
	ctx context.Context,
	userID, sessionID int,
	completedDate time.Time,
	durationMinutes int,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.manager.complete_unfinished")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	stored, err := m.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	live, unlock := m.lockLive(userID, stored.WorkoutID)
	defer unlock()
	if live != nil && live.closed {
		return ErrSessionNotFound
	}

	workout := stored.SessionData.WorkoutData
	workouts.Normalize(&workout)
	if err := m.store.Complete(ctx, userID, stored.WorkoutID, completedDate, durationMinutes, workout.Sections); err != nil {
		return fmt.Errorf("complete workout: %w", err)
	}

	if live != nil {
		m.drop(live)
	}
	m.metricsManager.CounterWorkoutsCompleted.Inc()
	return nil
}

// Discard drops a stored unfinished session without completing its workout.
func (m *Manager) Discard(ctx context.Context, userID, sessionID int) error {
	stored, err := m.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	live, unlock := m.lockLive(userID, stored.WorkoutID)
	defer unlock()
	if live != nil && live.closed {
		return ErrSessionNotFound
	}
	if err := m.store.Delete(ctx, userID, sessionID); err != nil {
		return err
	}
	if live != nil {
		m.drop(live)
	}
	return nil
}

// lockLive holds the persist lock of the live session for the workout, if any,
// until unlock is called.
func (m *Manager) lockLive(userID, workoutID int) (*Session, func()) {
	s := m.lookup(userID, workoutID)
	if s == nil {
		return nil, func() {}
	}
	s.persistMu.Lock()
	return s, s.persistMu.Unlock
}
