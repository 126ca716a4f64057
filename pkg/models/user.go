package models

// User is an employee account: a login identity and an allocation target.
type User struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Fullname     string `json:"fullname" db:"fullname"`
	Department   string `json:"department" db:"department"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

type CreateUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Fullname   string `json:"fullname"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

type UpdateUserRequest struct {
	Password   *string `json:"password"`
	Fullname   *string `json:"fullname"`
	Department *string `json:"department"`
	Role       *string `json:"role"`
}

type UserChanges struct {
	PasswordHash *string
	Fullname     *string
	Department   *string
	Role         *string
}

func (c *UserChanges) HasChanges() bool {
	return c.PasswordHash != nil || c.Fullname != nil || c.Department != nil || c.Role != nil
}

func (u *User) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   u.ID,
		ResourceType: "user",
	}
}
