package domain

type Username string
type SessionID string

type Role string

const (
	RoleStudent Role = "user"
	RoleTutor   Role = "tutor"
)
