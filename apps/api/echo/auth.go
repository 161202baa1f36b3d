package echoapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/account"
)

const (
	contextTokenKey   = "accountToken"
	contextAccountKey = "account"
	tokenAudience     = "schools"
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the school id of the signed-in account.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

func NewClaims(conf *core.Config, acc account.Account, origIat ...int64) *Claims {
	now := time.Now()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   acc.ID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Name:         acc.Name,
		Email:        acc.Email,
		IsAdmin:      acc.IsAdmin,
	}
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(echojwt.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

type authenticator struct {
	conf *core.Config
	svc  *account.Service
	jwt  echo.MiddlewareFunc
}

func newAuthenticator(conf *core.Config, svc *account.Service) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		jwt: echojwt.WithConfig(echojwt.Config{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: echojwt.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			// EventSource cannot set headers: score streams pass the token in the query.
			TokenLookup: "header:Authorization:Bearer ,query:token",
			NewClaimsFunc: func(echo.Context) jwt.Claims {
				return new(Claims)
			},
		}),
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func (a *authenticator) getContextAccount(ctx echo.Context, clms ...Claims) (account.Account, error) {
	if acc, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acc, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return account.Account{}, errors.Wrap(err, "getting context claims")
		}
	}

	acc, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, errUnauthorized
		}
		return account.Account{}, errors.Wrap(err, "finding account by ID")
	}
	ctx.Set(contextAccountKey, acc)
	return acc, nil
}

func (a *authenticator) authenticate(ctx echo.Context, login, pwd string) (string, account.Account, error) {
	acc, err := a.svc.Authenticate(ctx.Request().Context(), login, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case account.ErrAuthenticationFailed:
			return "", account.Account{}, errAuthenticationFailed
		case account.ErrDeactivated:
			return "", account.Account{}, errAccountDeactivated
		}
		return "", account.Account{}, errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(a.conf, NewClaims(a.conf, acc))
	return token, acc, errors.Wrap(err, "generating token")
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	acc, err := a.getContextAccount(ctx, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context account")
	}

	// check if account is still active
	if !acc.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(a.conf, NewClaims(a.conf, acc, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
