package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken, PermanentToken from user.go
// - Interview, InterviewQuestion from interview.go
// - SavedAnswer from answer.go
// - CVFile, AnalysisResult from resume.go

// Database schema overview:
// 1. users - Managed by cookie-based authentication
// 2. interviews - Mock interview templates owned by a user
// 3. interview_questions - The ordered question/reference-answer pairs of an interview
// 4. saved_answers - One finalized, AI-graded answer per (interview, user, question index)
// 5. cv_files - Uploaded resume metadata
// 6. analysis_results - The AI resume analysis, one per cv_file
