package account

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core"
)

var (
	// errors
	ErrNotFound             = errors.New("account not found")
	ErrExists               = errors.New("an account for this school already exists")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrDeactivated          = errors.New("account deactivated")
)

type (
	Repository interface {
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		// UpdateAccount saves every field but ID and CreatedAt.
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		tokens   tokenGenerator
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
		},
	}
}

func now() time.Time {
	return nowFunc().UTC().Truncate(time.Microsecond)
}

func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	if err := na.Validate(svc.validate, svc.conf.LoginDomain); err != nil {
		return Account{}, err
	}
	if _, err := svc.repo.GetAccountByID(ctx, na.SchoolID); err == nil {
		return Account{}, core.NewValidationError(ErrExists, core.FieldError{Field: "school_id", Error: ErrExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return Account{}, errors.Wrap(err, "checking account uniqueness")
	}

	ts := now()
	acc := Account{
		ID:        na.SchoolID,
		Name:      na.Name,
		Email:     na.email,
		District:  na.District,
		IsActive:  true,
		IsAdmin:   na.IsAdmin,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAccount(ctx, acc)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, core.CleanSchoolID(id))
}

// GetByLogin finds an account by school name or sign-in email.
func (svc *Service) GetByLogin(ctx context.Context, login string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, LoginEmail(login, svc.conf.LoginDomain))
}

// Authenticate checks the credentials typed in the sign-in form and records the login.
func (svc *Service) Authenticate(ctx context.Context, login, pwd string) (Account, error) {
	acc, err := svc.GetByLogin(ctx, login)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrAuthenticationFailed
		}
		return Account{}, errors.Wrap(err, "finding account by login")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrAuthenticationFailed
	}
	if !acc.IsActive {
		return Account{}, ErrDeactivated
	}
	acc.LastLogin = now()
	return svc.repo.UpdateAccount(ctx, acc)
}

// SetPassword replaces the password without applying the policy (operator use).
func (svc *Service) SetPassword(ctx context.Context, login, pwd string) (Account, error) {
	acc, err := svc.GetByLogin(ctx, login)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Account{}, errors.Wrap(err, "finding account by login")
		}
		if acc, err = svc.GetByID(ctx, login); err != nil {
			return Account{}, err
		}
	}
	if err := acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = now()
	return svc.repo.UpdateAccount(ctx, acc)
}

// SetActive activates or deactivates an account.
func (svc *Service) SetActive(ctx context.Context, id string, active bool) (Account, error) {
	acc, err := svc.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acc.IsActive = active
	acc.UpdatedAt = now()
	return svc.repo.UpdateAccount(ctx, acc)
}

// RequestPasswordReset mails a reset link to the account signing in with login
// (school name or email).
func (svc *Service) RequestPasswordReset(ctx context.Context, login string) error {
	acc, err := svc.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return ErrNotFound
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: acc.Name, Address: acc.Email}},
		Subject:      "비밀번호 재설정 안내",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  displayName(acc),
			"UID":   EncodeUID(acc),
			"Token": svc.tokens.makeToken(acc),
		},
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func displayName(acc Account) string {
	if acc.Name != "" {
		return acc.Name
	}
	return acc.ID
}

// ResetPassword sets a new password after checking the reset token.
func (svc *Service) ResetPassword(ctx context.Context, data ResetPassword) (Account, error) {
	invalid := func() error {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})
	}

	id, err := decodeUID(data.UID)
	if err != nil {
		return Account{}, invalid()
	}
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, invalid()
		}
		return Account{}, errors.Wrap(err, "finding account by ID")
	}
	if err = svc.tokens.verifyToken(acc, data.Token); err != nil {
		return Account{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	data.acc = acc
	if err = data.Validate(svc.validate); err != nil {
		return Account{}, err
	}

	if err = acc.SetPassword(data.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = now()
	return svc.repo.UpdateAccount(ctx, acc)
}
