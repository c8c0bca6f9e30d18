package repository

import (
	"errors"

	"github.com/acadia-lms/acadia/internal/models"
	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) CreateCourse(course *models.Course) error {
	return r.db.Create(course).Error
}

func (r *CourseRepository) GetCourseByID(id string) (*models.Course, error) {
	var course models.Course
	err := r.db.Preload("Teacher").First(&course, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) GetCourseByCode(code string) (*models.Course, error) {
	var course models.Course
	err := r.db.Where("code = ?", code).First(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) ListCourses(activeOnly bool) ([]models.Course, error) {
	var courses []models.Course
	q := r.db.Preload("Teacher").Order("code ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) UpdateCourse(course *models.Course) error {
	return r.db.Save(course).Error
}

func (r *CourseRepository) CountActiveEnrollments(courseID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentActive).
		Count(&count).Error
	return count, err
}

func (r *CourseRepository) GetEnrollment(courseID, userID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.
		Where("course_id = ? AND user_id = ?", courseID, userID).
		First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &enrollment, nil
}

// CreateEnrollment inserts the enrollment row. A concurrent duplicate insert
// on the (course, user) composite key is reported as already-existing.
func (r *CourseRepository) CreateEnrollment(enrollment *models.Enrollment) (created bool, err error) {
	err = r.db.Create(enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *CourseRepository) SetEnrollmentStatus(courseID, userID string, status models.EnrollmentStatus) error {
	return r.db.Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Update("status", status).Error
}

func (r *CourseRepository) ListRoster(courseID string) ([]models.Enrollment, error) {
	var roster []models.Enrollment
	err := r.db.
		Preload("User").
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentActive).
		Order("enrolled_at ASC").
		Find(&roster).Error
	return roster, err
}

// ListEnrollmentsForUser returns the user's full enrollment history,
// dropped rows included. Seat accounting uses CountActiveEnrollments.
func (r *CourseRepository) ListEnrollmentsForUser(userID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.
		Where("user_id = ?", userID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *CourseRepository) CreateAssignment(assignment *models.Assignment) error {
	return r.db.Create(assignment).Error
}

func (r *CourseRepository) GetAssignmentByID(id string) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.First(&assignment, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *CourseRepository) ListAssignments(courseID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *CourseRepository) UpdateAssignment(assignment *models.Assignment) error {
	return r.db.Save(assignment).Error
}

// SaveSubmission creates or overwrites the student's submission for an
// assignment (resubmission before grading replaces the body).
func (r *CourseRepository) SaveSubmission(submission *models.Submission) error {
	return r.db.Save(submission).Error
}

func (r *CourseRepository) GetSubmission(assignmentID, userID string) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		First(&submission).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

func (r *CourseRepository) ListSubmissions(assignmentID string) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *CourseRepository) CreateAnnouncement(announcement *models.Announcement) error {
	return r.db.Create(announcement).Error
}

// ListAnnouncements returns course announcements when courseID is non-nil,
// campus-wide ones otherwise. Newest first.
func (r *CourseRepository) ListAnnouncements(courseID *string) ([]models.Announcement, error) {
	var announcements []models.Announcement
	q := r.db.Preload("Author").Order("created_at DESC")
	if courseID != nil {
		q = q.Where("course_id = ?", *courseID)
	} else {
		q = q.Where("course_id IS NULL")
	}
	err := q.Find(&announcements).Error
	return announcements, err
}

func (r *CourseRepository) CreateMaterial(material *models.Material) error {
	return r.db.Create(material).Error
}

func (r *CourseRepository) ListMaterials(courseID string) ([]models.Material, error) {
	var materials []models.Material
	err := r.db.
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&materials).Error
	return materials, err
}
