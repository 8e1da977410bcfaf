package domain

// User is owned by the identity side of the system and is read-only here.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Tier     int    `json:"tier"` // 0 basic, 1 manager, >1 administrator
}

// IsAdmin reports whether the user may edit or delete any project.
func (u *User) IsAdmin() bool {
	return u != nil && u.Tier > 1
}

// IsManager reports whether the user may manage membership of any project.
func (u *User) IsManager() bool {
	return u != nil && u.Tier > 0
}
