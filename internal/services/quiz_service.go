package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/PPLKelompok1-2025/lms-service/internal/authz"
	"github.com/PPLKelompok1-2025/lms-service/internal/models"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
)

// quizQuestion is one entry of the quiz's question document. The answer key
// is the index into Options; points default to 1 when omitted.
type quizQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
	Points  int      `json:"points"`
}

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.BusinessValidator) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, userID string) (*QuizResponse, error) {
	if errs := s.validator.ValidateQuizCreate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, _, err := lessonSnapshot(ctx, s.repo, nil, req.LessonID, actor)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Quiz.Create(actor, req.LessonID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, req.LessonID, "quiz", "create", "not the course owner")
	}

	questions, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}
	if _, err := parseQuestions(questions); err != nil {
		return nil, fmt.Errorf("malformed question document: %w", err)
	}

	quiz := &models.Quiz{
		LessonID:     req.LessonID,
		Title:        req.Title,
		DueDate:      req.DueDate,
		PassingScore: req.PassingScore,
		Questions:    questions,
	}
	if req.Description != "" {
		quiz.Description = &req.Description
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "lesson_id", req.LessonID)
	return &QuizResponse{Quiz: quiz}, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint, userID string) (*QuizResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, quiz, err := quizSnapshot(ctx, s.repo, nil, id, actor)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	now := time.Now()
	allowed, err := evaluator.Can(actor, authz.ActionView, authz.QuizRef(id), now)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "quiz", "view", "enrollment required")
	}

	// Students never see the answer key.
	if actor != nil && actor.Role == authz.RoleStudent {
		sanitized, err := stripAnswerKey(quiz.Questions)
		if err != nil {
			return nil, fmt.Errorf("failed to sanitize questions: %w", err)
		}
		quiz.Questions = sanitized
	}

	canSubmit, _ := evaluator.Can(actor, authz.ActionSubmit, authz.QuizRef(id), now)
	return &QuizResponse{Quiz: quiz, CanSubmit: canSubmit}, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*QuizResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.authorize(ctx, id, userID, authz.ActionUpdate, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.DueDate != nil {
		quiz.DueDate = req.DueDate
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.Questions != nil {
		questions, err := json.Marshal(req.Questions)
		if err != nil {
			return nil, fmt.Errorf("failed to encode questions: %w", err)
		}
		if _, err := parseQuestions(questions); err != nil {
			return nil, fmt.Errorf("malformed question document: %w", err)
		}
		quiz.Questions = questions
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "user_id", userID)
	return &QuizResponse{Quiz: quiz}, nil
}

func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.authorize(ctx, id, userID, authz.ActionDelete, "delete"); err != nil {
		return err
	}
	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	s.logger.Info("Quiz deleted", "quiz_id", id, "user_id", userID)
	return nil
}

func (s *quizService) Restore(ctx context.Context, id uint, userID string) error {
	if _, err := s.authorize(ctx, id, userID, authz.ActionRestore, "restore"); err != nil {
		return err
	}
	if err := s.repo.Quiz().Restore(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to restore quiz: %w", err)
	}
	return nil
}

func (s *quizService) ForceDelete(ctx context.Context, id uint, userID string) error {
	if _, err := s.authorize(ctx, id, userID, authz.ActionForceDelete, "forceDelete"); err != nil {
		return err
	}
	if err := s.repo.Quiz().ForceDelete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to permanently delete quiz: %w", err)
	}
	return nil
}

func (s *quizService) GetByLesson(ctx context.Context, lessonID uint, userID string) ([]*QuizResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, _, err := lessonSnapshot(ctx, s.repo, nil, lessonID, actor)
	if err != nil {
		return nil, err
	}

	// The owning instructor gets the full list; enrolled students get the
	// list through the lesson view gate with answer keys stripped.
	evaluator := authz.NewEvaluator(graph)
	isOwner, err := evaluator.Can(actor, authz.ActionViewAny, authz.QuizRef(lessonID), time.Now())
	if err != nil {
		return nil, err
	}
	if !isOwner {
		canView, err := evaluator.Can(actor, authz.ActionView, authz.LessonRef(lessonID), time.Now())
		if err != nil {
			return nil, err
		}
		if !canView {
			return nil, NewPermissionError(userID, lessonID, "quiz", "list", "enrollment required")
		}
	}

	quizzes, err := s.repo.Quiz().GetByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	responses := make([]*QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		if !isOwner {
			sanitized, err := stripAnswerKey(quiz.Questions)
			if err != nil {
				return nil, fmt.Errorf("failed to sanitize questions: %w", err)
			}
			quiz.Questions = sanitized
		}
		responses = append(responses, &QuizResponse{Quiz: quiz})
	}
	return responses, nil
}

// Generate drafts a quiz skeleton under a lesson for the instructor to fill
// in. The draft starts with no questions and the default passing score.
func (s *quizService) Generate(ctx context.Context, lessonID uint, userID string) (*QuizResponse, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, lesson, err := lessonSnapshot(ctx, s.repo, nil, lessonID, actor)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionGenerate, authz.QuizRef(lessonID), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, lessonID, "quiz", "generate", "not the course owner")
	}

	description := fmt.Sprintf("Checks understanding of the lesson %q.", lesson.Title)
	quiz := &models.Quiz{
		LessonID:     lessonID,
		Title:        "Review: " + lesson.Title,
		Description:  &description,
		PassingScore: 60,
		Questions:    datatypes.JSON([]byte("[]")),
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create generated quiz: %w", err)
	}

	s.logger.Info("Quiz draft generated", "quiz_id", quiz.ID, "lesson_id", lessonID)
	return &QuizResponse{Quiz: quiz}, nil
}

// ===== ATTEMPTS =====

func (s *quizService) Submit(ctx context.Context, quizID uint, req *SubmitQuizRequest, studentID string) (*AttemptResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	actor, err := loadActor(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	graph, quiz, err := quizSnapshot(ctx, s.repo, nil, quizID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, authz.ActionSubmit, authz.QuizRef(quizID), now)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, s.submitDenialReason(ctx, quiz, studentID, now)
	}

	questions, err := parseQuestions(quiz.Questions)
	if err != nil {
		return nil, fmt.Errorf("malformed question document on quiz %d: %w", quizID, err)
	}

	questionIDs := make(map[string]struct{}, len(questions))
	for i := range questions {
		questionIDs[strconv.Itoa(i)] = struct{}{}
	}
	if errs := s.validator.ValidateQuizAnswers(req.Answers, questionIDs); len(errs) > 0 {
		return nil, errs
	}

	score, maxScore := grade(questions, req.Answers)
	percentage := 0.0
	if maxScore > 0 {
		percentage = score / float64(maxScore) * 100
	}
	passed := percentage >= float64(quiz.PassingScore)

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	attempt := &models.QuizAttempt{
		QuizID:      quizID,
		StudentID:   studentID,
		Score:       score,
		MaxScore:    maxScore,
		Percentage:  percentage,
		Passed:      passed,
		Answers:     answers,
		SubmittedAt: now,
	}

	if err := s.repo.QuizAttempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	s.logger.Info("Quiz attempt recorded",
		"quiz_id", quizID,
		"student_id", studentID,
		"percentage", percentage,
		"passed", passed)

	resp := &AttemptResponse{QuizAttempt: attempt}
	if !passed {
		resp.RemainingToPass = float64(quiz.PassingScore) - percentage
	}
	return resp, nil
}

func (s *quizService) GetAttempts(ctx context.Context, quizID uint, userID string) ([]*models.QuizAttempt, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, quiz, err := quizSnapshot(ctx, s.repo, nil, quizID, actor)
	if err != nil {
		return nil, err
	}

	// Owners see every attempt, students only their own.
	evaluator := authz.NewEvaluator(graph)
	isOwner, err := evaluator.Quiz.Update(actor, quizID)
	if err != nil {
		return nil, err
	}
	if isOwner {
		filters := repositories.AttemptFilters{QuizID: &quiz.ID}
		attempts, _, err := s.repo.QuizAttempt().List(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list attempts: %w", err)
		}
		return attempts, nil
	}

	canView, err := evaluator.Can(actor, authz.ActionView, authz.QuizRef(quizID), time.Now())
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, NewPermissionError(userID, quizID, "quiz", "attempts", "enrollment required")
	}

	attempts, err := s.repo.QuizAttempt().GetByQuizAndStudent(ctx, nil, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *quizService) CanSubmit(ctx context.Context, quizID uint, studentID string) (bool, error) {
	actor, err := loadActor(ctx, s.repo, studentID)
	if err != nil {
		return false, err
	}
	graph, _, err := quizSnapshot(ctx, s.repo, nil, quizID, actor)
	if err != nil {
		return false, err
	}
	return authz.NewEvaluator(graph).Can(actor, authz.ActionSubmit, authz.QuizRef(quizID), time.Now())
}

// submitDenialReason maps a submission denial onto the most specific
// sentinel so clients can tell "passed already" from "deadline passed" from
// "not enrolled".
func (s *quizService) submitDenialReason(ctx context.Context, quiz *models.Quiz, studentID string, now time.Time) error {
	passed, err := s.repo.QuizAttempt().HasPassed(ctx, nil, quiz.ID, studentID)
	if err == nil && passed {
		return ErrQuizAlreadyPassed
	}
	if quiz.DueDate != nil && now.After(*quiz.DueDate) {
		return ErrQuizClosed
	}
	return NewPermissionError(studentID, quiz.ID, "quiz", "submit", "enrollment required")
}

// ===== GRADING =====

func parseQuestions(doc datatypes.JSON) ([]quizQuestion, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	var questions []quizQuestion
	if err := json.Unmarshal(doc, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// grade scores the submitted answers against the answer key. Answers are
// keyed by the question's index; a missing answer scores zero.
func grade(questions []quizQuestion, answers map[string]interface{}) (float64, int) {
	score := 0.0
	maxScore := 0

	for i, question := range questions {
		points := question.Points
		if points <= 0 {
			points = 1
		}
		maxScore += points

		raw, ok := answers[strconv.Itoa(i)]
		if !ok {
			continue
		}
		selected, ok := answerIndex(raw)
		if ok && selected == question.Answer {
			score += float64(points)
		}
	}

	return score, maxScore
}

// answerIndex coerces a submitted answer to an option index. JSON numbers
// decode as float64; clients sending strings are tolerated.
func answerIndex(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// stripAnswerKey rewrites the question document without the answer field so
// student-facing payloads never carry the key.
func stripAnswerKey(doc datatypes.JSON) (datatypes.JSON, error) {
	questions, err := parseQuestions(doc)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		return doc, nil
	}

	type publicQuestion struct {
		Text    string   `json:"text"`
		Options []string `json:"options"`
		Points  int      `json:"points"`
	}

	public := make([]publicQuestion, 0, len(questions))
	for _, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		public = append(public, publicQuestion{Text: q.Text, Options: q.Options, Points: points})
	}

	out, err := json.Marshal(public)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *quizService) authorize(ctx context.Context, id uint, userID string, action authz.Action, name string) (*models.Quiz, error) {
	actor, err := loadActor(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	graph, quiz, err := quizSnapshot(ctx, s.repo, nil, id, actor)
	if err != nil {
		return nil, err
	}

	evaluator := authz.NewEvaluator(graph)
	allowed, err := evaluator.Can(actor, action, authz.QuizRef(id), time.Now())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, NewPermissionError(userID, id, "quiz", name, "not the course owner")
	}
	return quiz, nil
}
