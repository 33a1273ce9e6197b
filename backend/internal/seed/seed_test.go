package seed

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"marksportal/backend/internal/marksheet"
)

func TestDemoDirectoryIsConsistent(t *testing.T) {
	codes := map[string]bool{}
	for _, s := range Subjects() {
		codes[s.Code] = true
	}

	for _, f := range Faculty() {
		for _, code := range marksheet.AssignedSubjectCodes(f) {
			if !codes[code] {
				t.Errorf("faculty %s is assigned unknown subject %s", f.ID, code)
			}
		}
	}

	store := MarksStore()
	students, err := store.ListStudents(context.Background())
	if err != nil || len(students) != len(Students()) {
		t.Fatalf("ListStudents: %d, %v", len(students), err)
	}
	if _, err := store.StudentByUserID(context.Background(), StudentCSE); err != nil {
		t.Errorf("demo student account has no student record: %v", err)
	}
}

func TestDemoUsersShareThePassword(t *testing.T) {
	users, err := Users(bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(DemoPassword)); err != nil {
			t.Errorf("%s: %v", u.Email, err)
		}
	}
}
