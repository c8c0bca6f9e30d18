package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive  EnrollmentStatus = "ACTIVE"
	EnrollmentDropped EnrollmentStatus = "DROPPED"
)

// Course capacity of zero means unlimited seats.
type Course struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Code        string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	TeacherID   string    `gorm:"type:varchar(36);not null;index" json:"teacher_id"`
	Capacity    int       `gorm:"not null;default:0" json:"capacity"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Teacher User `gorm:"foreignKey:TeacherID" json:"teacher"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Enrollment links a student to a course. Dropping keeps the row with
// status DROPPED; re-enrolling reactivates it.
type Enrollment struct {
	CourseID   string           `gorm:"type:varchar(36);primaryKey" json:"course_id"`
	UserID     string           `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	Status     EnrollmentStatus `gorm:"type:varchar(10);not null;default:'ACTIVE'" json:"status"`
	EnrolledAt time.Time        `json:"enrolled_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

type Assignment struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseID     string     `gorm:"type:varchar(36);not null;index" json:"course_id"`
	Title        string     `gorm:"type:varchar(200);not null" json:"title"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	MaxPoints    int        `gorm:"not null;default:100" json:"max_points"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Submission holds a student's answer and, once graded, the grade inline.
type Submission struct {
	AssignmentID string     `gorm:"type:varchar(36);primaryKey" json:"assignment_id"`
	UserID       string     `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	Body         string     `gorm:"type:text" json:"body"`
	FileURL      string     `gorm:"type:varchar(255)" json:"file_url"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Points       *int       `json:"points,omitempty"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedByID   *string    `gorm:"type:varchar(36)" json:"graded_by_id,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`

	Student User `gorm:"foreignKey:UserID" json:"student"`
}

// IsGraded reports whether a grade has been recorded.
func (s *Submission) IsGraded() bool {
	return s.Points != nil
}

// Announcement with a nil CourseID is campus-wide.
type Announcement struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseID  *string   `gorm:"type:varchar(36);index" json:"course_id,omitempty"`
	AuthorID  string    `gorm:"type:varchar(36);not null" json:"author_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

type Material struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseID    string    `gorm:"type:varchar(36);not null;index" json:"course_id"`
	UploaderID  string    `gorm:"type:varchar(36);not null" json:"uploader_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	FileURL     string    `gorm:"type:varchar(255);not null" json:"file_url"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
