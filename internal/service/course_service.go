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
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseCodeExists   = errors.New("course code already exists")
	ErrCourseInactive     = errors.New("course is not active")
	ErrCourseFull         = errors.New("course has no free seats")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrNotCourseTeacher   = errors.New("not the teacher of this course")
	ErrInvalidCourseInput = errors.New("course code and title are required")
)

type CourseService struct {
	courseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo}
}

func (s *CourseService) CreateCourse(teacherID, code, title, description string, capacity int) (*models.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	title = strings.TrimSpace(title)
	if code == "" || title == "" {
		return nil, ErrInvalidCourseInput
	}
	if capacity < 0 {
		capacity = 0
	}

	existing, err := s.courseRepo.GetCourseByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCourseCodeExists
	}

	course := &models.Course{
		Code:        code,
		Title:       title,
		Description: description,
		TeacherID:   teacherID,
		Capacity:    capacity,
		IsActive:    true,
	}
	if err := s.courseRepo.CreateCourse(course); err != nil {
		logger.Log.Error("Failed to create course",
			zap.String("code", code),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Course created",
		zap.String("course_id", course.ID),
		zap.String("code", code),
		zap.String("teacher_id", teacherID),
	)

	return course, nil
}

func (s *CourseService) GetCourse(id string) (*models.Course, error) {
	course, err := s.courseRepo.GetCourseByID(id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) ListCourses(activeOnly bool) ([]models.Course, error) {
	return s.courseRepo.ListCourses(activeOnly)
}

// requireManages gates course mutations: the owning teacher or an admin.
func (s *CourseService) requireManages(course *models.Course, requesterID string, role models.Role) error {
	if role == models.RoleAdmin {
		return nil
	}
	if course.TeacherID != requesterID {
		return ErrNotCourseTeacher
	}
	return nil
}

func (s *CourseService) UpdateCourse(courseID, requesterID string, role models.Role, title, description string, capacity int) (*models.Course, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManages(course, requesterID, role); err != nil {
		return nil, err
	}

	if title = strings.TrimSpace(title); title != "" {
		course.Title = title
	}
	if description != "" {
		course.Description = description
	}
	if capacity >= 0 {
		course.Capacity = capacity
	}

	if err := s.courseRepo.UpdateCourse(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeactivateCourse(courseID, requesterID string, role models.Role) error {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return err
	}
	if err := s.requireManages(course, requesterID, role); err != nil {
		return err
	}

	course.IsActive = false
	return s.courseRepo.UpdateCourse(course)
}

// Enroll adds the student if the course is active and a seat is free.
// Capacity zero means unlimited. Enrolling while already active is success;
// a dropped enrollment is reactivated after the capacity check.
func (s *CourseService) Enroll(courseID, userID string) (*models.Enrollment, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, ErrCourseInactive
	}

	existing, err := s.courseRepo.GetEnrollment(courseID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.EnrollmentActive {
		return existing, nil
	}

	if course.Capacity > 0 {
		count, err := s.courseRepo.CountActiveEnrollments(courseID)
		if err != nil {
			return nil, err
		}
		if count >= int64(course.Capacity) {
			logger.Log.Warn("Enrollment rejected: course full",
				zap.String("course_id", courseID),
				zap.String("user_id", userID),
				zap.Int64("enrolled", count),
				zap.Int("capacity", course.Capacity),
			)
			return nil, ErrCourseFull
		}
	}

	if existing != nil {
		if err := s.courseRepo.SetEnrollmentStatus(courseID, userID, models.EnrollmentActive); err != nil {
			return nil, err
		}
		existing.Status = models.EnrollmentActive
		return existing, nil
	}

	enrollment := &models.Enrollment{
		CourseID:   courseID,
		UserID:     userID,
		Status:     models.EnrollmentActive,
		EnrolledAt: time.Now(),
	}
	created, err := s.courseRepo.CreateEnrollment(enrollment)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the insert race, the row exists now.
		return s.courseRepo.GetEnrollment(courseID, userID)
	}

	logger.Log.Info("Student enrolled",
		zap.String("course_id", courseID),
		zap.String("user_id", userID),
	)

	return enrollment, nil
}

// Drop marks the enrollment DROPPED, freeing the seat. History is kept.
func (s *CourseService) Drop(courseID, userID string) error {
	enrollment, err := s.courseRepo.GetEnrollment(courseID, userID)
	if err != nil {
		return err
	}
	if enrollment == nil || enrollment.Status != models.EnrollmentActive {
		return ErrNotEnrolled
	}
	return s.courseRepo.SetEnrollmentStatus(courseID, userID, models.EnrollmentDropped)
}

func (s *CourseService) Roster(courseID, requesterID string, role models.Role) ([]models.Enrollment, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManages(course, requesterID, role); err != nil {
		return nil, err
	}
	return s.courseRepo.ListRoster(courseID)
}

func (s *CourseService) ListEnrollmentsForUser(userID string) ([]models.Enrollment, error) {
	return s.courseRepo.ListEnrollmentsForUser(userID)
}

// IsEnrolled reports whether the user holds an ACTIVE enrollment.
func (s *CourseService) IsEnrolled(courseID, userID string) (bool, error) {
	enrollment, err := s.courseRepo.GetEnrollment(courseID, userID)
	if err != nil {
		return false, err
	}
	return enrollment != nil && enrollment.Status == models.EnrollmentActive, nil
}

// CreateAnnouncement posts to a course (owning teacher or admin) or
// campus-wide (admin only) when courseID is nil.
func (s *CourseService) CreateAnnouncement(authorID string, role models.Role, courseID *string, title, body string) (*models.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, ErrInvalidCourseInput
	}

	if courseID == nil {
		if role != models.RoleAdmin {
			return nil, ErrNotCourseTeacher
		}
	} else {
		course, err := s.GetCourse(*courseID)
		if err != nil {
			return nil, err
		}
		if err := s.requireManages(course, authorID, role); err != nil {
			return nil, err
		}
	}

	announcement := &models.Announcement{
		CourseID: courseID,
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}
	if err := s.courseRepo.CreateAnnouncement(announcement); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *CourseService) ListAnnouncements(courseID *string) ([]models.Announcement, error) {
	if courseID != nil {
		course, err := s.GetCourse(*courseID)
		if err != nil {
			return nil, err
		}
		return s.courseRepo.ListAnnouncements(&course.ID)
	}
	return s.courseRepo.ListAnnouncements(nil)
}

func (s *CourseService) AddMaterial(courseID, uploaderID string, role models.Role, title, fileURL, contentType string) (*models.Material, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(fileURL) == "" {
		return nil, ErrInvalidCourseInput
	}

	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManages(course, uploaderID, role); err != nil {
		return nil, err
	}

	material := &models.Material{
		CourseID:    courseID,
		UploaderID:  uploaderID,
		Title:       title,
		FileURL:     fileURL,
		ContentType: contentType,
	}
	if err := s.courseRepo.CreateMaterial(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *CourseService) ListMaterials(courseID string) ([]models.Material, error) {
	if _, err := s.GetCourse(courseID); err != nil {
		return nil, err
	}
	return s.courseRepo.ListMaterials(courseID)
}
