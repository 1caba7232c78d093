package models

import (
	"strings"
	"time"
)

// User is one registered account. Name and Surname are derived from
// FirstName/LastName by SetNames and stored; they are never recomputed on read.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Name         string
	Surname      string
	Phone        string
	Country      string
	City         string
	Address      string
	Gender       string
	ProfileImage string
	Roles        RoleSet
	CreatedAt    time.Time
}

// Profile holds the contact fields shared by sign-up and profile updates.
type Profile struct {
	Phone        string
	Country      string
	City         string
	Address      string
	Gender       string
	ProfileImage string
}

// NewUser builds a fully formed identity. When username is empty it is
// derived as lower-case "first.last" with whitespace removed.
func NewUser(email, username, firstName, lastName string, p Profile, roles RoleSet) *User {
	u := &User{
		Email:        strings.TrimSpace(email),
		Username:     strings.TrimSpace(username),
		Phone:        p.Phone,
		Country:      p.Country,
		City:         p.City,
		Address:      p.Address,
		Gender:       p.Gender,
		ProfileImage: p.ProfileImage,
		Roles:        roles,
	}
	u.SetNames(firstName, lastName)
	if u.Username == "" {
		u.Username = DeriveUsername(u.FirstName, u.LastName)
	}
	if len(u.Roles) == 0 {
		u.Roles = NewRoleSet(RoleUser)
	}
	return u
}

// SetNames updates first/last name and the derived display fields.
func (u *User) SetNames(firstName, lastName string) {
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	u.Surname = u.LastName
}

// HasRole reports whether the user holds r.
func (u *User) HasRole(r Role) bool {
	return u.Roles.Contains(r)
}

func DeriveUsername(firstName, lastName string) string {
	s := strings.ToLower(firstName + "." + lastName)
	return strings.Join(strings.Fields(s), "")
}
