package model

import "time"

// Submission is the payload handed to the submission collaborator
type Submission struct {
	ID          string            `json:"id" bson:"_id,omitempty"`
	SessionID   string            `json:"sessionId" bson:"sessionId"`
	Answers     map[string]Answer `json:"answers" bson:"answers"`
	Contact     Contact           `json:"contact" bson:"contact"`
	SubmittedAt time.Time         `json:"submittedAt" bson:"submittedAt"`
}

// SubmitAnswerRequest is the request body for answering the current question
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"` // optional guard against stale clients
	AnswerInput
}

// SubmitContactRequest is the request body for the contact capture step
type SubmitContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
