package events

// TopicAuthEvents is the Kafka topic carrying authentication events
const TopicAuthEvents = "dormitory.auth.events"

// PasswordResetRequestedData is the payload for auth.password_reset_requested
type PasswordResetRequestedData struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// PasswordChangedData is the payload for auth.password_changed.
// Method distinguishes a logged-in change from a token reset.
type PasswordChangedData struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Method string `json:"method"`
}

// UserLoggedInData is the payload for auth.user_logged_in
type UserLoggedInData struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
