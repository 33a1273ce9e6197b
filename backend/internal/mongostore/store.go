// Package mongostore implements the marksheet and account stores on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marksportal/backend/internal/auth"
	"marksportal/backend/internal/marksheet"
	"marksportal/backend/internal/shared"
)

const queryTimeout = 10 * time.Second

// Store is backed by one MongoDB database
type Store struct {
	db            *mongo.Database
	studentsCol   *mongo.Collection
	subjectsCol   *mongo.Collection
	facultyCol    *mongo.Collection
	marksheetsCol *mongo.Collection
	usersCol      *mongo.Collection
	sessionsCol   *mongo.Collection
}

var (
	_ marksheet.Store     = (*Store)(nil)
	_ marksheet.Directory = (*Store)(nil)
	_ auth.UserStore      = (*Store)(nil)
)

// New creates a new Store instance
func New(db *mongo.Database) *Store {
	return &Store{
		db:            db,
		studentsCol:   db.Collection("students"),
		subjectsCol:   db.Collection("subjects"),
		facultyCol:    db.Collection("faculty"),
		marksheetsCol: db.Collection("marksheets"),
		usersCol:      db.Collection("users"),
		sessionsCol:   db.Collection("sessions"),
	}
}

// EnsureIndexes creates the indexes the stores rely on. The unique
// (student_id, subject_id) index makes concurrent first saves of a pair
// collapse into one entry.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	indexes := []struct {
		col   *mongo.Collection
		model mongo.IndexModel
	}{
		{s.marksheetsCol, mongo.IndexModel{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "subject_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.studentsCol, mongo.IndexModel{Keys: bson.D{{Key: "roll_no", Value: 1}}}},
		{s.facultyCol, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.usersCol, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.sessionsCol, mongo.IndexModel{Keys: bson.D{{Key: "token", Value: 1}}}},
		{s.sessionsCol, mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.col.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.col.Name(), err)
		}
	}
	return nil
}

// ============================================================================
// Directory
// ============================================================================

func (s *Store) ListStudents(ctx context.Context) ([]shared.Student, error) {
	var students []shared.Student
	if err := s.findAll(ctx, s.studentsCol, bson.M{}, options.Find().SetSort(bson.D{{Key: "roll_no", Value: 1}}), &students); err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	return students, nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]shared.Subject, error) {
	var subjects []shared.Subject
	if err := s.findAll(ctx, s.subjectsCol, bson.M{}, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}), &subjects); err != nil {
		return nil, fmt.Errorf("find subjects: %w", err)
	}
	return subjects, nil
}

func (s *Store) FacultyByUserID(ctx context.Context, userID string) (shared.FacultyProfile, error) {
	var profile shared.FacultyProfile
	if err := s.findOne(ctx, s.facultyCol, bson.M{"user_id": userID}, &profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.FacultyProfile{}, marksheet.ErrFacultyNotFound
		}
		return shared.FacultyProfile{}, fmt.Errorf("find faculty %s: %w", userID, err)
	}
	return profile, nil
}

func (s *Store) StudentByUserID(ctx context.Context, userID string) (shared.Student, error) {
	var student shared.Student
	if err := s.findOne(ctx, s.studentsCol, bson.M{"user_id": userID}, &student); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.Student{}, marksheet.ErrStudentNotFound
		}
		return shared.Student{}, fmt.Errorf("find student for user %s: %w", userID, err)
	}
	return student, nil
}

// ============================================================================
// Marksheets
// ============================================================================

func (s *Store) FindByStudentAndSubject(ctx context.Context, studentID, subjectID string) (shared.MarksheetEntry, error) {
	var entry shared.MarksheetEntry
	err := s.findOne(ctx, s.marksheetsCol, bson.M{"student_id": studentID, "subject_id": subjectID}, &entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.MarksheetEntry{}, marksheet.ErrEntryNotFound
		}
		return shared.MarksheetEntry{}, fmt.Errorf("find marksheet entry: %w", err)
	}
	return entry, nil
}

// Upsert writes the entry keyed on (student_id, subject_id). Every score
// component is overwritten, so a missing component clears the stored one.
func (s *Store) Upsert(ctx context.Context, entry shared.MarksheetEntry) (shared.MarksheetEntry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{
		"student_name": entry.StudentName,
		"roll_no":      entry.RollNo,
		"subject_name": entry.SubjectName,
		"subject_code": entry.SubjectCode,
		"grade":        entry.Grade,
		"updated_by":   entry.UpdatedBy,
		"updated_at":   now,
	}
	unset := bson.M{}
	for field, v := range map[string]*float64{
		"mid1":       entry.Mid1,
		"mid2":       entry.Mid2,
		"assignment": entry.Assignment,
		"attendance": entry.Attendance,
		"external":   entry.External,
	} {
		if v != nil {
			set[field] = *v
		} else {
			unset[field] = ""
		}
	}

	id := entry.ID
	if id == "" {
		id = shared.GenerateID("ms")
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        id,
			"student_id": entry.StudentID,
			"subject_id": entry.SubjectID,
			"created_at": now,
		},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"student_id": entry.StudentID, "subject_id": entry.SubjectID}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved shared.MarksheetEntry
	err := s.marksheetsCol.FindOneAndUpdate(queryCtx, filter, update, opts).Decode(&saved)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost a race to insert the same pair; the retry updates it.
		err = s.marksheetsCol.FindOneAndUpdate(queryCtx, filter, update, opts).Decode(&saved)
	}
	if err != nil {
		return shared.MarksheetEntry{}, fmt.Errorf("upsert marksheet entry: %w", err)
	}
	return saved, nil
}

func (s *Store) ListByStudent(ctx context.Context, studentID string) ([]shared.MarksheetEntry, error) {
	var entries []shared.MarksheetEntry
	opts := options.Find().SetSort(bson.D{{Key: "subject_code", Value: 1}})
	if err := s.findAll(ctx, s.marksheetsCol, bson.M{"student_id": studentID}, opts, &entries); err != nil {
		return nil, fmt.Errorf("find marksheet entries: %w", err)
	}
	return entries, nil
}

// ============================================================================
// Users & Sessions
// ============================================================================

func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (shared.User, error) {
	pattern := "^" + regexp.QuoteMeta(identifier) + "$"
	filter := bson.M{
		"$or": []bson.M{
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
			{"roll_no": bson.M{"$regex": pattern, "$options": "i"}},
		},
	}

	var user shared.User
	if err := s.findOne(ctx, s.usersCol, filter, &user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.User{}, auth.ErrUserNotFound
		}
		return shared.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (shared.User, error) {
	var user shared.User
	if err := s.findOne(ctx, s.usersCol, bson.M{"_id": id}, &user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return shared.User{}, auth.ErrUserNotFound
		}
		return shared.User{}, fmt.Errorf("find user %s: %w", id, err)
	}
	return user, nil
}

func (s *Store) CreateSession(ctx context.Context, session shared.Session) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.sessionsCol.InsertOne(queryCtx, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) DeleteSessionsByToken(ctx context.Context, token string) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.sessionsCol.DeleteMany(queryCtx, bson.M{"token": token})
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *Store) SessionExists(ctx context.Context, token string) (bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	count, err := s.sessionsCol.CountDocuments(queryCtx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}
	return count > 0, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (s *Store) findOne(ctx context.Context, col *mongo.Collection, filter interface{}, out interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return col.FindOne(queryCtx, filter).Decode(out)
}

func (s *Store) findAll(ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions, out interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := col.Find(queryCtx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(queryCtx)

	return cursor.All(queryCtx, out)
}
