package models

type UserRole string

const (
	RoleAdmin     UserRole = "Admin"
	RoleUploader  UserRole = "Uploader"
	RoleQuizTaker UserRole = "QuizTaker"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUploader, RoleQuizTaker:
		return true
	}
	return false
}

// CanAuthor reports whether the role may author quizzes and read every result.
func (r UserRole) CanAuthor() bool {
	return r == RoleAdmin || r == RoleUploader
}

// Identity is the resolved caller of a request. Authentication happens outside the core;
// every operation receives the identity explicitly.
type Identity struct {
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	DepartmentID *uint    `json:"department_id,omitempty"`
}
