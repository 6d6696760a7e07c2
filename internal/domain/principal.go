package domain

import "github.com/google/uuid"

// Role роль аутентифицированного пользователя
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Principal пользователь из токена провайдера идентификации
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (p Principal) IsTeacher() bool {
	return p.Role == RoleTeacher
}

func (p Principal) IsStudent() bool {
	return p.Role == RoleStudent
}

// Actor инициатор переходов статуса для этого пользователя
func (p Principal) Actor() Actor {
	if p.IsTeacher() {
		return ActorTeacher
	}
	return ActorStudent
}
