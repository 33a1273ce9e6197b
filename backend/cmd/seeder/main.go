package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marksportal/backend/internal/grading"
	"marksportal/backend/internal/marksheet"
	"marksportal/backend/internal/mongostore"
	"marksportal/backend/internal/seed"
	"marksportal/backend/internal/shared"
)

// sampleMarks are saved through the marks service so they carry computed grades.
var sampleMarks = []struct {
	facultyUserID string
	rollNo        string
	subjectCode   string
	scores        grading.ScoreComponents
}{
	{seed.FacultyCSE, "CS2023001", "CS101", grading.ScoreComponents{Mid1: 18, Mid2: 16, Assignment: 9, Attendance: 10, External: 42}},
	{seed.FacultyCSE, "CS2023001", "CS102", grading.ScoreComponents{Mid1: 12, Mid2: 17, Assignment: 7, Attendance: 8, External: 35}},
	{seed.FacultyCSE, "CS2023002", "CS101", grading.ScoreComponents{Mid1: 9, Mid2: 11, Assignment: 6, Attendance: 7, External: 24}},
	{seed.FacultyME, "ME2023007", "ME201", grading.ScoreComponents{Mid1: 20, Mid2: 19, Assignment: 10, Attendance: 10, External: 47}},
}

func main() {
	log.Println("Starting Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	if shared.GetBoolEnv("SEED_DROP_DATABASE", true) {
		if err := db.Drop(context.Background()); err != nil {
			log.Fatalf("Failed to drop database: %v", err)
		}
		log.Println("Database cleared successfully.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store := mongostore.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// --- 1. Seed Users ---
	users, err := seed.Users(cfg.Security.BCryptCost)
	if err != nil {
		log.Fatalf("Failed to prepare users: %v", err)
	}
	for _, u := range users {
		upsertByID(ctx, db.Collection("users"), u.ID, u)
		log.Printf("Seeded %s: %s", u.Role, u.Email)
	}

	// --- 2. Seed Directory ---
	log.Println("--- Seeding Students, Subjects & Faculty ---")
	for _, s := range seed.Students() {
		upsertByID(ctx, db.Collection("students"), s.ID, s)
	}
	for _, s := range seed.Subjects() {
		upsertByID(ctx, db.Collection("subjects"), s.ID, s)
	}
	for _, f := range seed.Faculty() {
		upsertByID(ctx, db.Collection("faculty"), f.ID, f)
	}

	// --- 3. Seed Marks ---
	log.Println("--- Seeding Marksheets ---")
	svc := marksheet.NewService(store, store)
	for _, m := range sampleMarks {
		entry, err := svc.SaveScore(ctx, m.facultyUserID, marksheet.SaveInput{
			RollNo:      m.rollNo,
			RollNumber:  m.rollNo,
			SubjectCode: m.subjectCode,
			Scores:      m.scores.Scores(),
		})
		if err != nil {
			log.Fatalf("Error seeding marks for %s/%s: %v", m.rollNo, m.subjectCode, err)
		}
		log.Printf("Seeded Marks: %s %s (Grade: %s)", entry.RollNo, entry.SubjectCode, entry.Grade)
	}

	log.Println("All data seeding completed successfully.")
}

func upsertByID(ctx context.Context, col *mongo.Collection, id string, doc interface{}) {
	opts := options.Replace().SetUpsert(true)
	if _, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		log.Fatalf("Error seeding %s %s: %v", col.Name(), id, err)
	}
}
