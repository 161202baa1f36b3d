package account

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/carbonschool/dashboard/core"
)

// Account is the sign-in of one school. Its ID is the school id, the local
// part of the sign-in email.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	District     string    `json:"district"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (acc *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	return nil
}

func (acc *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(pwd))
}

// CanEdit reports whether the account may save the documents of schoolID.
func (acc *Account) CanEdit(schoolID string) bool {
	return acc.IsAdmin || acc.ID == core.CleanSchoolID(schoolID)
}

// SchoolIDFromEmail returns the local part of a sign-in email.
func SchoolIDFromEmail(email string) string {
	email = core.CleanSchoolID(email)
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// LoginEmail turns what is typed in the sign-in form into the sign-in email:
// a bare school name gets the login domain appended.
func LoginEmail(login, domain string) string {
	login = core.CleanSchoolID(login)
	if login == "" || strings.Contains(login, "@") {
		return login
	}
	return login + "@" + strings.ToLower(domain)
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	SchoolID        string `json:"school_id" validate:"required,schoolid"`
	Name            string `json:"name"`
	District        string `json:"district"`
	IsAdmin         bool   `json:"is_admin"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	email string
}

func (na *NewAccount) Validate(validate *validator.Validate, loginDomain string) error {
	na.SchoolID = core.CleanSchoolID(na.SchoolID)
	na.Name = core.CleanString(na.Name)
	na.District = core.CleanString(na.District)
	na.email = LoginEmail(na.SchoolID, loginDomain)
	return validate.Struct(na)
}

type ResetPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`

	acc Account
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }
