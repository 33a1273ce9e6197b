// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"

	"marksportal/backend/internal/grading"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a login account (admin, faculty, or student)
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string    `bson:"role" json:"role"`
	Name         string    `bson:"name" json:"name"`
	RollNo       string    `bson:"roll_no,omitempty" json:"roll_no,omitempty"` // students only
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Session represents an issued token, kept for server-side revocation
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsExpired checks if a session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================================
// Directory Models
// ============================================================================

// Student is a directory record. RollNumber is a legacy field some
// records carry instead of RollNo.
type Student struct {
	ID         string `bson:"_id" json:"id"`
	RollNo     string `bson:"roll_no,omitempty" json:"roll_no,omitempty"`
	RollNumber string `bson:"roll_number,omitempty" json:"roll_number,omitempty"`
	Name       string `bson:"name" json:"name"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Semester   string `bson:"semester,omitempty" json:"semester,omitempty"`
	UserID     string `bson:"user_id,omitempty" json:"user_id,omitempty"`
}

// Roll returns the student's roll number, falling back to the legacy field.
func (s Student) Roll() string {
	if s.RollNo != "" {
		return s.RollNo
	}
	return s.RollNumber
}

// Subject is a course offered by a department
type Subject struct {
	ID         string `bson:"_id" json:"id"`
	Code       string `bson:"code" json:"code"`
	Name       string `bson:"name" json:"name"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Credits    int32  `bson:"credits,omitempty" json:"credits,omitempty"`
	Semester   string `bson:"semester,omitempty" json:"semester,omitempty"`
}

// FacultyProfile carries a faculty member's department and assigned subject
// codes. ProfileSubjects supersedes the legacy Subjects list when non-empty.
type FacultyProfile struct {
	ID              string    `bson:"_id" json:"id"`
	UserID          string    `bson:"user_id" json:"user_id"`
	Name            string    `bson:"name" json:"name"`
	Email           string    `bson:"email,omitempty" json:"email,omitempty"`
	Department      string    `bson:"department,omitempty" json:"department,omitempty"`
	ProfileSubjects []string  `bson:"profile_subjects,omitempty" json:"profile_subjects,omitempty"`
	Subjects        []string  `bson:"subjects,omitempty" json:"subjects,omitempty"`
	UpdatedAt       time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Marksheet Models
// ============================================================================

// MarksheetEntry holds one student's scores for one subject. There is at
// most one entry per (StudentID, SubjectID).
type MarksheetEntry struct {
	ID          string `bson:"_id" json:"id"`
	StudentID   string `bson:"student_id" json:"student_id"`
	SubjectID   string `bson:"subject_id" json:"subject_id"`
	StudentName string `bson:"student_name" json:"student_name"`
	RollNo      string `bson:"roll_no" json:"roll_no"`
	SubjectName string `bson:"subject_name" json:"subject_name"`
	SubjectCode string `bson:"subject_code" json:"subject_code"`

	grading.Scores `bson:",inline"`

	// Grade is stored at save time and never recomputed on read
	Grade grading.Grade `bson:"grade" json:"grade"`

	UpdatedBy string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MarkRow is a marksheet entry prepared for display
type MarkRow struct {
	MarksheetEntry
	BestOfTwo float64 `json:"best_of_two"`
	Total     float64 `json:"total"`
	Editable  bool    `json:"editable"`
}

// ============================================================================
// Constants
// ============================================================================

const (
	// User roles
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
	RoleStudent = "student"
)

// IsValidRole reports whether role is one of the known user roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}
