package domain

// PlanTier is the subscription tier of a user
type PlanTier string

const (
	PlanFree PlanTier = "free"
	PlanPro  PlanTier = "pro"
	PlanTeam PlanTier = "team"
)

// User is the cached snapshot of the signed-in user.
// The authentication collaborator owns the real record.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Avatar string   `json:"avatar,omitempty"`
	Plan   PlanTier `json:"plan,omitempty"`
}

// Ref returns the denormalized display snapshot embedded in spaces
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// UserRef is a denormalized copy of a user's display fields. It is not kept
// in sync with the User automatically; see SpaceRepository.ReconcileUser.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}
