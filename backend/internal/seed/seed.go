// Package seed holds the demo directory loaded by the seeder and by
// services running on the in-memory store.
package seed

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"marksportal/backend/internal/auth"
	"marksportal/backend/internal/marksheet"
	"marksportal/backend/internal/shared"
)

// DemoPassword is shared by every demo account
const DemoPassword = "password"

const (
	FacultyCSE = "usr_fac_cse"
	FacultyME  = "usr_fac_me"
	StudentCSE = "usr_stu_cse"
)

// Users returns the demo accounts with DemoPassword hashed at cost.
func Users(cost int) ([]shared.User, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := auth.HashPassword(DemoPassword, cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now().UTC()
	return []shared.User{
		{ID: FacultyCSE, Name: "Dr. Meera Sen", Email: "faculty@example.com", PasswordHash: hash, Role: shared.RoleFaculty, IsActive: true, CreatedAt: now},
		{ID: FacultyME, Name: "Prof. Arun Iyer", Email: "faculty2@example.com", PasswordHash: hash, Role: shared.RoleFaculty, IsActive: true, CreatedAt: now},
		{ID: StudentCSE, Name: "Asha Rao", Email: "student@example.com", RollNo: "CS2023001", PasswordHash: hash, Role: shared.RoleStudent, IsActive: true, CreatedAt: now},
	}, nil
}

func Students() []shared.Student {
	return []shared.Student{
		{ID: "stu_cs2023001", RollNo: "CS2023001", Name: "Asha Rao", Email: "student@example.com", Department: "CSE", Semester: "3", UserID: StudentCSE},
		{ID: "stu_cs2023002", RollNo: "CS2023002", Name: "Vikram Das", Email: "vikram@example.com", Department: "CSE", Semester: "3"},
		// Legacy record that only carries rollNumber
		{ID: "stu_me2023007", RollNumber: "ME2023007", Name: "Ravi Kumar", Email: "ravi@example.com", Department: "ME", Semester: "3"},
	}
}

func Subjects() []shared.Subject {
	return []shared.Subject{
		{ID: "sub_cs101", Code: "CS101", Name: "Programming in C", Department: "CSE", Credits: 4, Semester: "3"},
		{ID: "sub_cs102", Code: "CS102", Name: "Data Structures", Department: "CSE", Credits: 4, Semester: "3"},
		{ID: "sub_ma101", Code: "MA101", Name: "Engineering Mathematics", Credits: 3, Semester: "3"},
		{ID: "sub_me201", Code: "ME201", Name: "Thermodynamics", Department: "ME", Credits: 3, Semester: "3"},
	}
}

func Faculty() []shared.FacultyProfile {
	now := time.Now().UTC()
	return []shared.FacultyProfile{
		{ID: "fac_cse", UserID: FacultyCSE, Name: "Dr. Meera Sen", Email: "faculty@example.com", Department: "CSE", ProfileSubjects: []string{"CS101", "CS102", "MA101"}, UpdatedAt: now},
		{ID: "fac_me", UserID: FacultyME, Name: "Prof. Arun Iyer", Email: "faculty2@example.com", Department: "ME", Subjects: []string{"ME201", "MA101"}, UpdatedAt: now},
	}
}

// MarksStore returns an in-memory marks store holding the demo directory.
func MarksStore() *marksheet.MemoryStore {
	store := marksheet.NewMemoryStore()
	store.AddStudents(Students()...)
	store.AddSubjects(Subjects()...)
	for _, f := range Faculty() {
		store.PutFaculty(f)
	}
	return store
}

// UserStore returns an in-memory account store holding the demo users.
func UserStore(cost int) (*auth.MemoryUserStore, error) {
	users, err := Users(cost)
	if err != nil {
		return nil, err
	}
	return auth.NewMemoryUserStore(users...), nil
}
