package session

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2beens/fitcoach/internal/units"
	"github.com/2beens/fitcoach/internal/workouts"
)

var (
	ErrInvalidSection  = errors.New("invalid section index")
	ErrInvalidExercise = errors.New("invalid exercise index")
	ErrInvalidSet      = errors.New("invalid set index")
	ErrInvalidField    = errors.New("invalid set field")
	ErrInvalidFeedback = errors.New("invalid feedback, use easy, okay, hard or max")
	ErrNoExercise      = errors.New("no current exercise")
)

type Phase string

const (
	PhaseOverview Phase = "overview"
	PhaseTracking Phase = "tracking"
)

type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

// Outcome tells the caller what a state transition triggered on its own.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeRestStarted Outcome = "rest_started"
	OutcomeRestCleared Outcome = "rest_cleared"
	OutcomeAdvanced    Outcome = "advanced"
	OutcomeWorkoutDone Outcome = "workout_done"
)

// Set fields editable through UpdateSet.
const (
	FieldWeight   = "weight"
	FieldReps     = "reps"
	FieldRPE      = "rpe"
	FieldRIR      = "rir"
	FieldTempo    = "tempo"
	FieldNote     = "note"
	FieldFeedback = "feedback"
)

// Session is one in-progress workout. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id          int
	userID      int
	workoutID   int
	workoutName string

	workout       workouts.Workout
	phase         Phase
	sectionIndex  int
	exerciseIndex int
	elapsed       int
	restSet       *int
	restRemaining int
	carry         time.Duration

	startTime    time.Time
	lastSaved    time.Time
	lastActivity time.Time

	// changes counts mutations; the session is dirty until a save covers the latest one
	changes      uint64
	savedChanges uint64

	// persistMu serializes writes of this session to the store; closed is
	// guarded by it and set once the session was completed, discarded or exited
	persistMu sync.Mutex
	closed    bool
}

// New starts a session in the overview phase on a normalized copy of w.
func New(userID int, w *workouts.Workout, now time.Time) *Session {
	workout := cloneWorkout(w)
	workouts.Normalize(&workout)
	name := workout.Name
	if name == "" {
		name = "Workout"
	}
	return &Session{
		userID:       userID,
		workoutID:    w.ID,
		workoutName:  name,
		workout:      workout,
		phase:        PhaseOverview,
		sectionIndex: firstSectionWithExercises(workout.Sections),
		startTime:    now,
		lastActivity: now,
	}
}

func firstSectionWithExercises(sections []workouts.Section) int {
	for i := range sections {
		if len(sections[i].Exercises) > 0 {
			return i
		}
	}
	return 0
}

// Seen records a client request on the session at now.
func (s *Session) Seen(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActivity) {
		s.lastActivity = now
	}
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) UserID() int {
	return s.userID
}

func (s *Session) WorkoutID() int {
	return s.workoutID
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Begin moves the session from overview to tracking and starts the clocks.
func (s *Session) Begin(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseTracking {
		return
	}
	s.phase = PhaseTracking
	s.elapsed = 0
	s.carry = 0
	s.startTime = now
	s.touch()
}

func (s *Session) clearRest() {
	s.restSet = nil
	s.restRemaining = 0
}

// Navigate moves to the next or previous exercise, crossing section
// boundaries and skipping sections without exercises. It is a no-op at either
// end of the workout. Moving clears the rest timer.
func (s *Session) Navigate(dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(dir)
}

func (s *Session) navigate(dir Direction) bool {
	sections := s.workout.Sections
	if s.sectionIndex < 0 || s.sectionIndex >= len(sections) {
		return false
	}

	newSection, newExercise := s.sectionIndex, s.exerciseIndex
	switch dir {
	case Next:
		if s.exerciseIndex < len(sections[s.sectionIndex].Exercises)-1 {
			newExercise++
			break
		}
		next := s.sectionIndex + 1
		for next < len(sections) && len(sections[next].Exercises) == 0 {
			next++
		}
		if next >= len(sections) {
			return false
		}
		newSection, newExercise = next, 0
	case Prev:
		if s.exerciseIndex > 0 {
			newExercise--
			break
		}
		prev := s.sectionIndex - 1
		for prev >= 0 && len(sections[prev].Exercises) == 0 {
			prev--
		}
		if prev < 0 {
			return false
		}
		newSection, newExercise = prev, len(sections[prev].Exercises)-1
	default:
		return false
	}

	if newSection == s.sectionIndex && newExercise == s.exerciseIndex {
		return false
	}
	s.sectionIndex = newSection
	s.exerciseIndex = newExercise
	s.clearRest()
	s.touch()
	return true
}

func (s *Session) exercise(sectionIndex, exerciseIndex int) (*workouts.WorkoutExercise, error) {
	if sectionIndex < 0 || sectionIndex >= len(s.workout.Sections) {
		return nil, ErrInvalidSection
	}
	exercises := s.workout.Sections[sectionIndex].Exercises
	if exerciseIndex < 0 || exerciseIndex >= len(exercises) {
		return nil, ErrInvalidExercise
	}
	return &exercises[exerciseIndex], nil
}

func (s *Session) set(sectionIndex, exerciseIndex, setIndex int) (*workouts.WorkoutExercise, *workouts.SetData, error) {
	ex, err := s.exercise(sectionIndex, exerciseIndex)
	if err != nil {
		return nil, nil, err
	}
	if setIndex < 0 || setIndex >= len(ex.SetsData) {
		return nil, nil, ErrInvalidSet
	}
	return ex, &ex.SetsData[setIndex], nil
}

// ToggleSet flips the completion of a set.
// Completing the very last set of the workout reports OutcomeWorkoutDone,
// completing the last set of an exercise moves on to the next one, and any
// other completion starts the rest timer. Un-completing clears the timer.
func (s *Session) ToggleSet(sectionIndex, exerciseIndex, setIndex int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, set, err := s.set(sectionIndex, exerciseIndex, setIndex)
	if err != nil {
		return OutcomeNone, err
	}
	set.Completed = !set.Completed
	s.touch()

	if !set.Completed {
		s.clearRest()
		return OutcomeRestCleared, nil
	}

	allDone := ex.AllSetsCompleted()
	isLastSet := setIndex == len(ex.SetsData)-1
	isLastSection := sectionIndex == len(s.workout.Sections)-1
	isLastExercise := exerciseIndex == len(s.workout.Sections[sectionIndex].Exercises)-1

	switch {
	case allDone && isLastSet && isLastSection && isLastExercise:
		return OutcomeWorkoutDone, nil
	case allDone && isLastSet:
		if s.navigate(Next) {
			return OutcomeAdvanced, nil
		}
		return OutcomeNone, nil
	case ex.RestPeriodSeconds > 0:
		restSet := setIndex
		s.restSet = &restSet
		s.restRemaining = ex.RestPeriodSeconds
		return OutcomeRestStarted, nil
	}
	return OutcomeNone, nil
}

// Tick advances the clocks by d while tracking. Sub-second remainders are
// carried over to the next tick. When the rest countdown runs out the timer
// is cleared and the session moves to the next exercise.
func (s *Session) Tick(d time.Duration) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTracking || d <= 0 {
		return OutcomeNone
	}

	s.carry += d
	seconds := int(s.carry / time.Second)
	s.carry -= time.Duration(seconds) * time.Second

	outcome := OutcomeNone
	for i := 0; i < seconds; i++ {
		s.elapsed++
		if s.restSet == nil || s.restRemaining <= 0 {
			continue
		}
		if s.restRemaining <= 1 {
			s.clearRest()
			s.navigate(Next)
			outcome = OutcomeAdvanced
			continue
		}
		s.restRemaining--
	}
	if seconds > 0 {
		s.touch()
	}
	return outcome
}

func (s *Session) SkipRest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restSet != nil || s.restRemaining != 0 {
		s.touch()
	}
	s.clearRest()
}

func parseOptionalNumber(value string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// UpdateSet sets one field of a set from raw user input. Weight is read in
// the given unit system and stored as kg; unparsable weight becomes 0,
// unparsable or zero rpe/rir become null.
func (s *Session) UpdateSet(sectionIndex, exerciseIndex, setIndex int, field, value string, system units.System) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, set, err := s.set(sectionIndex, exerciseIndex, setIndex)
	if err != nil {
		return err
	}
	if err := updateSetField(set, field, value, system); err != nil {
		return err
	}
	s.touch()
	return nil
}

func updateSetField(set *workouts.SetData, field, value string, system units.System) error {
	switch field {
	case FieldWeight:
		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		set.Weight = units.WeightToMetric(weight, system)
	case FieldRPE:
		set.RPE = parseOptionalNumber(value)
	case FieldRIR:
		set.RIR = parseOptionalNumber(value)
	case FieldReps:
		set.Reps = value
	case FieldTempo:
		set.Tempo = value
	case FieldNote:
		set.Note = value
	case FieldFeedback:
		if value == "" {
			set.Feedback = nil
			return nil
		}
		if !workouts.ValidFeedback(value) {
			return ErrInvalidFeedback
		}
		feedback := value
		set.Feedback = &feedback
	default:
		return ErrInvalidField
	}
	return nil
}

// QuickAdjustWeight changes a set of the current exercise by delta, given in
// the user's unit system. The result never drops below 0.
func (s *Session) QuickAdjustWeight(setIndex int, delta float64, system units.System) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, set, err := s.set(s.sectionIndex, s.exerciseIndex, setIndex)
	if err != nil {
		return err
	}
	current := units.WeightFromMetric(set.Weight, system)
	adjusted := math.Max(0, current+delta)
	set.Weight = units.WeightToMetric(adjusted, system)
	s.touch()
	return nil
}

// QuickAdjustReps changes the reps of a set of the current exercise by delta, clamped at 0.
func (s *Session) QuickAdjustReps(setIndex, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, set, err := s.set(s.sectionIndex, s.exerciseIndex, setIndex)
	if err != nil {
		return err
	}
	reps := max(0, workouts.ParseReps(set.Reps)+delta)
	set.Reps = strconv.Itoa(reps)
	s.touch()
	return nil
}

// AddSet appends a set that copies reps, weight, rpe and rir of the last one.
func (s *Session) AddSet(sectionIndex, exerciseIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.exercise(sectionIndex, exerciseIndex)
	if err != nil {
		return err
	}

	newSet := workouts.SetData{
		SetNumber: len(ex.SetsData) + 1,
		Reps:      workouts.DefaultReps,
	}
	if n := len(ex.SetsData); n > 0 {
		last := ex.SetsData[n-1]
		if last.Reps != "" {
			newSet.Reps = last.Reps
		}
		newSet.Weight = last.Weight
		newSet.RPE = copyFloat(last.RPE)
		newSet.RIR = copyFloat(last.RIR)
	}
	ex.SetsData = append(ex.SetsData, newSet)
	s.touch()
	return nil
}

// RemoveSet drops a set and renumbers the remaining ones from 1.
func (s *Session) RemoveSet(sectionIndex, exerciseIndex, setIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, _, err := s.set(sectionIndex, exerciseIndex, setIndex)
	if err != nil {
		return err
	}
	ex.SetsData = append(ex.SetsData[:setIndex], ex.SetsData[setIndex+1:]...)
	for i := range ex.SetsData {
		ex.SetsData[i].SetNumber = i + 1
	}
	if s.restSet != nil && *s.restSet == setIndex && s.sectionIndex == sectionIndex && s.exerciseIndex == exerciseIndex {
		s.clearRest()
	}
	s.touch()
	return nil
}

// SetFeedback records the post-set feedback on a set of the current exercise.
func (s *Session) SetFeedback(setIndex int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, set, err := s.set(s.sectionIndex, s.exerciseIndex, setIndex)
	if err != nil {
		return err
	}
	if err := updateSetField(set, FieldFeedback, feedback, units.Metric); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) SetNote(setIndex int, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, set, err := s.set(s.sectionIndex, s.exerciseIndex, setIndex)
	if err != nil {
		return err
	}
	set.Note = note
	s.touch()
	return nil
}

func (s *Session) SetExerciseNote(note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.exercise(s.sectionIndex, s.exerciseIndex)
	if err != nil {
		return ErrNoExercise
	}
	ex.WorkoutNotes = note
	s.touch()
	return nil
}

// CurrentExerciseID is 0 when the current exercise is not from the library.
func (s *Session) CurrentExerciseID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.exercise(s.sectionIndex, s.exerciseIndex)
	if err != nil {
		return 0
	}
	return ex.ExerciseID
}

// Prefill copies weight, reps and rir, set by set, from the most recent
// performance onto the current exercise. Sets without a counterpart stay
// untouched. It reports whether anything was copied.
func (s *Session) Prefill(performances []workouts.Performance) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(performances) == 0 {
		return false
	}
	ex, err := s.exercise(s.sectionIndex, s.exerciseIndex)
	if err != nil {
		return false
	}

	copied := false
	for i, lastSet := range performances[0].Sets {
		if i >= len(ex.SetsData) {
			break
		}
		ex.SetsData[i].Weight = lastSet.Weight
		ex.SetsData[i].Reps = lastSet.Reps
		ex.SetsData[i].RIR = copyFloat(lastSet.RIR)
		copied = true
	}
	if copied {
		s.touch()
	}
	return copied
}

type Progress struct {
	ExercisesCompleted int `json:"exercises_completed"`
	ExercisesTotal     int `json:"exercises_total"`
	SetsCompleted      int `json:"sets_completed"`
	SetsTotal          int `json:"sets_total"`
}

func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress()
}

func (s *Session) progress() Progress {
	var p Progress
	for _, section := range s.workout.Sections {
		for i := range section.Exercises {
			ex := &section.Exercises[i]
			p.ExercisesTotal++
			if ex.AllSetsCompleted() {
				p.ExercisesCompleted++
			}
			for _, set := range ex.SetsData {
				p.SetsTotal++
				if set.Completed {
					p.SetsCompleted++
				}
			}
		}
	}
	return p
}

// Sections returns a copy of the workout sections as they are now.
func (s *Session) Sections() []workouts.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := cloneWorkout(&s.workout)
	return w.Sections
}

func (s *Session) touch() {
	s.changes++
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes != s.savedChanges
}

func (s *Session) markSaved(id int, at time.Time, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.lastSaved = at
	if version > s.savedChanges {
		s.savedChanges = version
	}
}

// Volume is the sum of weight*reps over the completed sets of an exercise.
func Volume(ex *workouts.WorkoutExercise) float64 {
	if ex == nil {
		return 0
	}
	return ex.Volume()
}

// OneRepMax estimates a one-rep max with the Epley formula.
func OneRepMax(weight float64, reps int) float64 {
	if weight < 1 || reps < 1 {
		return 0
	}
	return weight * (1 + float64(reps)/30)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneWorkout(w *workouts.Workout) workouts.Workout {
	c := *w
	c.Sections = cloneExercisesIn(w.Sections)
	if w.Exercises != nil {
		c.Exercises = cloneExercises(w.Exercises)
	}
	return c
}

func cloneExercisesIn(sections []workouts.Section) []workouts.Section {
	if sections == nil {
		return nil
	}
	out := make([]workouts.Section, len(sections))
	for i, section := range sections {
		out[i] = workouts.Section{
			SectionName: section.SectionName,
			Exercises:   cloneExercises(section.Exercises),
		}
	}
	return out
}

func cloneExercises(exercises []workouts.WorkoutExercise) []workouts.WorkoutExercise {
	if exercises == nil {
		return nil
	}
	out := make([]workouts.WorkoutExercise, len(exercises))
	for i, ex := range exercises {
		out[i] = ex
		if ex.SetsData != nil {
			out[i].SetsData = make([]workouts.SetData, len(ex.SetsData))
			copy(out[i].SetsData, ex.SetsData)
		}
	}
	return out
}
