package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID         string `db:"id"`
	Email      string `db:"email"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Hash       string `db:"password_hash"`
	Role       string `db:"role"`
	Address    string `db:"address"`
	City       string `db:"city"`
	PostalCode string `db:"postal_code"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return u.Email
	}
	return u.FirstName
}
