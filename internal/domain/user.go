package domain

import "time"

type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id"`
	Email          string    `json:"email,omitempty" dynamodbav:"email"`
	Mobile         string    `json:"mobile,omitempty" dynamodbav:"mobile"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	EmailVerified  bool      `json:"email_verified" dynamodbav:"email_verified"`
	MobileVerified bool      `json:"mobile_verified" dynamodbav:"mobile_verified"`
	Enable         int       `json:"enable" dynamodbav:"enable"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

// HasUsablePassword reports whether the account carries a real password.
// Users created through alias registration never do; they can only sign in
// with a callback token.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}

// Alias returns the user's contact value for the given alias type.
func (u *User) Alias(at AliasType) string {
	if at == AliasMobile {
		return u.Mobile
	}
	return u.Email
}

// AliasVerified reports whether the user's alias of the given type has been
// confirmed through a VERIFY token exchange.
func (u *User) AliasVerified(at AliasType) bool {
	if at == AliasMobile {
		return u.MobileVerified
	}
	return u.EmailVerified
}
