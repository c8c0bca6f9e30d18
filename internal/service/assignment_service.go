package service

import (
	"errors"
	"strings"
	"time"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyGraded      = errors.New("submission already graded")
	ErrInvalidPoints      = errors.New("points out of range")
)

type AssignmentService struct {
	courseRepo *repository.CourseRepository
}

func NewAssignmentService(courseRepo *repository.CourseRepository) *AssignmentService {
	return &AssignmentService{courseRepo: courseRepo}
}

// manages mirrors the course-mutation gate: owning teacher or admin.
func (s *AssignmentService) manages(courseID, requesterID string, role models.Role) error {
	course, err := s.courseRepo.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrCourseNotFound
	}
	if role == models.RoleAdmin {
		return nil
	}
	if course.TeacherID != requesterID {
		return ErrNotCourseTeacher
	}
	return nil
}

func (s *AssignmentService) CreateAssignment(courseID, requesterID string, role models.Role, title, instructions string, dueAt *time.Time, maxPoints int) (*models.Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidCourseInput
	}
	if maxPoints <= 0 {
		maxPoints = 100
	}

	if err := s.manages(courseID, requesterID, role); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:     courseID,
		Title:        title,
		Instructions: instructions,
		DueAt:        dueAt,
		MaxPoints:    maxPoints,
	}
	if err := s.courseRepo.CreateAssignment(assignment); err != nil {
		logger.Log.Error("Failed to create assignment",
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("course_id", courseID),
	)

	return assignment, nil
}

// UpdateAssignment revises title, instructions, due date or max points.
// Shrinking MaxPoints below an already-recorded grade is allowed; the grade
// stands as given.
func (s *AssignmentService) UpdateAssignment(assignmentID, requesterID string, role models.Role, title, instructions string, dueAt *time.Time, maxPoints int) (*models.Assignment, error) {
	assignment, err := s.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.manages(assignment.CourseID, requesterID, role); err != nil {
		return nil, err
	}

	if title = strings.TrimSpace(title); title != "" {
		assignment.Title = title
	}
	if instructions != "" {
		assignment.Instructions = instructions
	}
	if dueAt != nil {
		assignment.DueAt = dueAt
	}
	if maxPoints > 0 {
		assignment.MaxPoints = maxPoints
	}

	if err := s.courseRepo.UpdateAssignment(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) GetAssignment(id string) (*models.Assignment, error) {
	assignment, err := s.courseRepo.GetAssignmentByID(id)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *AssignmentService) ListAssignments(courseID string) ([]models.Assignment, error) {
	course, err := s.courseRepo.GetCourseByID(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return s.courseRepo.ListAssignments(courseID)
}

// Submit stores the student's answer. The student must hold an active
// enrollment; resubmission before grading overwrites the previous body,
// resubmission after grading is rejected. Late submissions are accepted,
// the recorded timestamp tells the grader.
func (s *AssignmentService) Submit(assignmentID, studentID, body, fileURL string) (*models.Submission, error) {
	assignment, err := s.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.courseRepo.GetEnrollment(assignment.CourseID, studentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status != models.EnrollmentActive {
		return nil, ErrNotEnrolled
	}

	existing, err := s.courseRepo.GetSubmission(assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsGraded() {
		return nil, ErrAlreadyGraded
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		UserID:       studentID,
		Body:         body,
		FileURL:      fileURL,
		SubmittedAt:  time.Now(),
	}
	if err := s.courseRepo.SaveSubmission(submission); err != nil {
		return nil, err
	}

	logger.Log.Info("Submission stored",
		zap.String("assignment_id", assignmentID),
		zap.String("student_id", studentID),
	)

	return submission, nil
}

// Grade records points and feedback on a submission. Only the owning teacher
// or an admin may grade, and points must fit in [0, MaxPoints].
func (s *AssignmentService) Grade(assignmentID, studentID, graderID string, role models.Role, points int, feedback string) (*models.Submission, error) {
	assignment, err := s.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.manages(assignment.CourseID, graderID, role); err != nil {
		return nil, err
	}

	if points < 0 || points > assignment.MaxPoints {
		return nil, ErrInvalidPoints
	}

	submission, err := s.courseRepo.GetSubmission(assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}

	now := time.Now()
	submission.Points = &points
	submission.Feedback = feedback
	submission.GradedByID = &graderID
	submission.GradedAt = &now

	if err := s.courseRepo.SaveSubmission(submission); err != nil {
		return nil, err
	}

	logger.Log.Info("Submission graded",
		zap.String("assignment_id", assignmentID),
		zap.String("student_id", studentID),
		zap.String("graded_by", graderID),
		zap.Int("points", points),
	)

	return submission, nil
}

func (s *AssignmentService) ListSubmissions(assignmentID, requesterID string, role models.Role) ([]models.Submission, error) {
	assignment, err := s.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.manages(assignment.CourseID, requesterID, role); err != nil {
		return nil, err
	}
	return s.courseRepo.ListSubmissions(assignmentID)
}

// GetOwnSubmission lets a student fetch their submission and grade.
func (s *AssignmentService) GetOwnSubmission(assignmentID, studentID string) (*models.Submission, error) {
	if _, err := s.GetAssignment(assignmentID); err != nil {
		return nil, err
	}
	submission, err := s.courseRepo.GetSubmission(assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	return submission, nil
}
