package coach

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fitcoach/internal/plans"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/users"
	"github.com/2beens/fitcoach/internal/workouts"

	log "github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=coach_test

type invoker interface {
	Invoke(ctx context.Context, prompt, schemaHint string, out any) error
}

type trainerLogsRepo interface {
	Add(ctx context.Context, l TrainerLog) (*TrainerLog, error)
	Get(ctx context.Context, userID, id int) (*TrainerLog, error)
	List(ctx context.Context, userID, limit int) ([]TrainerLog, error)
	SetAccepted(ctx context.Context, userID, id int, accepted bool) error
}

type profileStore interface {
	Get(ctx context.Context, id int) (*users.User, error)
	UpdateMacroGoals(ctx context.Context, userID int, goals users.MacroGoals) error
}

type planCreator interface {
	Create(ctx context.Context, p plans.WorkoutPlan, templates []workouts.Workout) (*plans.WorkoutPlan, error)
}

// Service is the AI trainer: check-in questions, plans built from the
// answers and per exercise training parameters.
type Service struct {
	llm      invoker
	logs     trainerLogsRepo
	profiles profileStore
	plans    planCreator
	markdown goldmark.Markdown
}

func NewService(llm invoker, logs trainerLogsRepo, profiles profileStore, plans planCreator) *Service {
	return &Service{
		llm:      llm,
		logs:     logs,
		profiles: profiles,
		plans:    plans,
		markdown: goldmark.New(
			goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
		),
	}
}

func (s *Service) renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		log.Warnf("render coach feedback: %s", err)
		return ""
	}
	return buf.String()
}

func (s *Service) GenerateQuestions(ctx context.Context, userID int) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.generate_questions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	recent, err := s.logs.List(ctx, userID, RecentLogs)
	if err != nil {
		return nil, fmt.Errorf("list trainer logs: %w", err)
	}

	var answer questionsAnswer
	if err := s.llm.Invoke(ctx, questionsPrompt(user, recent), questionsSchema, &answer); err != nil {
		return nil, err
	}

	questions := make([]string, 0, QuestionsCount)
	for _, q := range answer.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
		if len(questions) == QuestionsCount {
			break
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in answer", ErrLLMFailed)
	}
	span.SetAttributes(attribute.Int("questions", len(questions)))

	return questions, nil
}

// GeneratePlan asks for feedback, a workout plan and macros for the given
// check-in answers and stores the result as a new trainer log.
func (s *Service) GeneratePlan(ctx context.Context, userID int, responses []Answer) (_ *TrainerLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.generate_plan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	answered := make([]Answer, 0, len(responses))
	for _, a := range responses {
		a.Question = strings.TrimSpace(a.Question)
		a.Answer = strings.TrimSpace(a.Answer)
		if a.Question != "" {
			answered = append(answered, a)
		}
	}
	if len(answered) == 0 {
		return nil, fmt.Errorf("%w: no responses", ErrInvalidRequest)
	}

	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var answer planAnswer
	if err := s.llm.Invoke(ctx, planPrompt(user, answered), planSchema, &answer); err != nil {
		return nil, err
	}

	questions := make([]string, len(answered))
	for i, a := range answered {
		questions[i] = a.Question
	}

	return s.logs.Add(ctx, TrainerLog{
		UserID:          userID,
		Questions:       questions,
		Responses:       answered,
		Feedback:        answer.Feedback,
		FeedbackHTML:    s.renderMarkdown(answer.Feedback),
		WorkoutPlan:     answer.WorkoutPlan,
		SuggestedMacros: answer.SuggestedMacros,
	})
}

func (s *Service) Logs(ctx context.Context, userID int) ([]TrainerLog, error) {
	return s.logs.List(ctx, userID, RecentLogs)
}

// Accept takes over the suggested macros as the user's goals.
func (s *Service) Accept(ctx context.Context, userID, logID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.accept")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", logID))

	l, err := s.logs.Get(ctx, userID, logID)
	if err != nil {
		return err
	}
	if l.SuggestedMacros != nil {
		if err := s.profiles.UpdateMacroGoals(ctx, userID, l.SuggestedMacros.OrDefaults()); err != nil {
			return fmt.Errorf("update macro goals: %w", err)
		}
	}
	return s.logs.SetAccepted(ctx, userID, logID, true)
}

func (s *Service) Deny(ctx context.Context, userID, logID int) error {
	return s.logs.SetAccepted(ctx, userID, logID, false)
}

// ImportPlan turns the plan of a trainer log into a workout plan with one
// template workout per plan day.
func (s *Service) ImportPlan(ctx context.Context, userID, logID int) (_ *plans.WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.import_plan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", logID))

	l, err := s.logs.Get(ctx, userID, logID)
	if err != nil {
		return nil, err
	}
	if l.WorkoutPlan == nil || len(l.WorkoutPlan.Workouts) == 0 {
		return nil, ErrNoPlanToImport
	}

	goal := ""
	if user, err := s.profiles.Get(ctx, userID); err != nil {
		log.Warnf("import plan: get user %d: %s", userID, err)
	} else {
		goal = user.FitnessGoal
	}

	generated := l.WorkoutPlan
	p := plans.WorkoutPlan{
		UserID:      userID,
		Name:        generated.PlanName,
		Description: generated.ExperienceNotes,
		Goal:        goal,
		DaysPerWeek: len(generated.Workouts),
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = DefaultImportedPlanName
	}
	plans.Normalize(&p)

	templates := make([]workouts.Workout, 0, len(generated.Workouts))
	for _, gw := range generated.Workouts {
		name := strings.TrimSpace(gw.Name)
		if name == "" {
			name = gw.Day
		}
		templates = append(templates, workouts.Workout{
			UserID:     userID,
			Name:       name,
			Day:        gw.Day,
			IsTemplate: true,
			Sections:   gw.Sections,
		})
	}

	return s.plans.Create(ctx, p, templates)
}

func (s *Service) SuggestExerciseParams(ctx context.Context, goal, exerciseName string) (_ *ExerciseSuggestion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.suggest_exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return nil, fmt.Errorf("%w: exercise name empty", ErrInvalidRequest)
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		goal = plans.DefaultGoal
	}

	var answer exerciseAnswer
	if err := s.llm.Invoke(ctx, exercisePrompt(goal, exerciseName), exerciseSchema, &answer); err != nil {
		return nil, err
	}
	return newExerciseSuggestion(answer), nil
}
