package model

import (
	"errors"
	"strings"
	"time"

	"sainmakosam/internal/core/util"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for operator passwords.
const PasswordCost = 12

type User struct {
	ID        string    `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Password  string    `bson:"password" json:"-"` // bcrypt hash, never plaintext once saved
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	plainPassword   string
	passwordChanged bool
}

func NewUser(username, password string) *User {
	u := &User{
		ID:        util.GenerateID(),
		Username:  strings.TrimSpace(username),
		CreatedAt: time.Now(),
	}
	u.SetPassword(password)
	return u
}

// SetPassword stages a new plaintext password. It is hashed by
// PrepareForSave; a stored hash that was never replaced is left untouched.
func (u *User) SetPassword(password string) {
	u.plainPassword = password
	u.passwordChanged = true
}

// PrepareForSave validates the account and hashes a staged password.
func (u *User) PrepareForSave() error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if !u.passwordChanged {
		if u.Password == "" {
			return errors.New("password is required")
		}
		return nil
	}
	if u.plainPassword == "" {
		return errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.plainPassword), PasswordCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.plainPassword = ""
	u.passwordChanged = false
	return nil
}

// CheckPassword reports whether candidate matches the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}
