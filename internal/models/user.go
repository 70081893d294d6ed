package models

import "time"

// User is an identity seen by the API. Profiles and auth live elsewhere.
type User struct {
	ID          string    `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// WeeklyCheckin is a subjective recovery questionnaire.
type WeeklyCheckin struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            time.Time `json:"date"`
	FeelingFlat     bool      `json:"feeling_flat"`
	JointPain       bool      `json:"joint_pain"`
	PerformanceDrop bool      `json:"performance_drop"`
	NeedsDeload     bool      `json:"needs_deload"`
}
