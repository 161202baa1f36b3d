package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/carbonschool/dashboard/core/account"
)

const accountColumns = `id, name, email, district, is_active, is_admin, password_hash, created_at, updated_at, last_login`

type accountRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	District     string    `db:"district"`
	IsActive     bool      `db:"is_active"`
	IsAdmin      bool      `db:"is_admin"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func toAccountRow(acc account.Account) accountRow {
	row := accountRow{
		ID:           acc.ID,
		Name:         acc.Name,
		Email:        acc.Email,
		District:     acc.District,
		IsActive:     acc.IsActive,
		IsAdmin:      acc.IsAdmin,
		PasswordHash: string(acc.PasswordHash),
		CreatedAt:    acc.CreatedAt.UTC(),
		UpdatedAt:    acc.UpdatedAt.UTC(),
	}
	if !acc.LastLogin.IsZero() {
		row.LastLogin = null.TimeFrom(acc.LastLogin.UTC())
	}
	return row
}

func (row accountRow) account() account.Account {
	acc := account.Account{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		District:  row.District,
		IsActive:  row.IsActive,
		IsAdmin:   row.IsAdmin,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.PasswordHash != "" {
		acc.PasswordHash = []byte(row.PasswordHash)
	}
	if row.LastLogin.Valid {
		acc.LastLogin = row.LastLogin.Time.UTC()
	}
	return acc
}

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `INSERT INTO account (` + accountColumns + `)
		VALUES (:id, :name, :email, :district, :is_active, :is_admin, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, toAccountRow(acc)); err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return repo.GetAccountByID(ctx, acc.ID)
}

func (repo *accountRepository) getBy(ctx context.Context, column, value string) (account.Account, error) {
	var row accountRow
	q := repo.db.Rebind(`SELECT ` + accountColumns + ` FROM account WHERE ` + column + ` = ?`)
	if err := repo.db.GetContext(ctx, &row, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrapf(err, "selecting account by %s", column)
	}
	return row.account(), nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return repo.getBy(ctx, "email", email)
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	q := `UPDATE account SET
		name = :name, email = :email, district = :district, is_active = :is_active, is_admin = :is_admin,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toAccountRow(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrExists
		}
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.GetAccountByID(ctx, acc.ID)
}
