package domain

// Participant is the snapshot of a user stored in a room's member list.
// It is taken at join time and never re-synced with the user profile.
type Participant struct {
	ID         UserID `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	Email      string `json:"email"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
func NewParticipant(u *User) Participant {
	return Participant{
		ID:         u.ID,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		Email:      u.Email,
	}
}
