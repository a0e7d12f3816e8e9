package sqldb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, password_hash, confirmed, token_hash, token_purpose, created_at, updated_at`

type userRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Confirmed    bool           `db:"confirmed"`
	TokenHash    sql.NullString `db:"token_hash"`
	TokenPurpose sql.NullString `db:"token_purpose"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func mapUser(r userRow) domain.User {
	return domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Confirmed:    r.Confirmed,
		TokenHash:    mapNullString(r.TokenHash),
		TokenPurpose: domain.TokenPurpose(mapNullString(r.TokenPurpose)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type usersRepo struct {
	q sqlx.ExtContext
	d Dialect
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *usersRepo) getOne(ctx context.Context, where string, args ...any) (domain.User, error) {
	var row userRow
	query := r.q.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	if err := sqlx.GetContext(ctx, r.q, &row, query, args...); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `email = ?`, normalizeEmail(email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	query := r.q.Rebind(`
		INSERT INTO users (name, email, password_hash, confirmed, token_hash, token_purpose, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := sqlx.GetContext(ctx, r.q, &u.ID, query,
		u.Name, u.Email, u.PasswordHash, u.Confirmed,
		mapStringNull(u.TokenHash), mapStringNull(string(u.TokenPurpose)),
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if r.d.IsUniqueViolation(err) {
			return domain.User{}, store.ErrAlreadyExists
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) SetToken(ctx context.Context, userID int64, hash string, purpose domain.TokenPurpose) error {
	query := r.q.Rebind(`UPDATE users SET token_hash = ?, token_purpose = ?, updated_at = ? WHERE id = ?`)
	return expectOne(r.q.ExecContext(ctx, query, mapStringNull(hash), mapStringNull(string(purpose)), now(), userID))
}

func (r *usersRepo) GetUserByToken(ctx context.Context, hash string, purpose domain.TokenPurpose) (domain.User, error) {
	if hash == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, `token_hash = ? AND token_purpose = ?`, hash, string(purpose))
}

// consumeToken runs set against the holder of hash and clears the token in
// the same statement. The token predicate is repeated in the UPDATE so two
// concurrent consumers cannot both succeed.
func (r *usersRepo) consumeToken(ctx context.Context, hash string, purpose domain.TokenPurpose, set string, args ...any) (domain.User, error) {
	u, err := r.GetUserByToken(ctx, hash, purpose)
	if err != nil {
		return domain.User{}, err
	}

	query := r.q.Rebind(`UPDATE users SET ` + set + `, token_hash = NULL, token_purpose = NULL, updated_at = ?
		WHERE id = ? AND token_hash = ? AND token_purpose = ?`)
	args = append(args, now(), u.ID, hash, string(purpose))
	if err := expectOne(r.q.ExecContext(ctx, query, args...)); err != nil {
		return domain.User{}, err
	}
	return r.GetUserByID(ctx, u.ID)
}

func (r *usersRepo) ConfirmUser(ctx context.Context, hash string) (domain.User, error) {
	return r.consumeToken(ctx, hash, domain.TokenConfirm, `confirmed = ?`, true)
}

func (r *usersRepo) ResetPassword(ctx context.Context, hash string, passwordHash string) (domain.User, error) {
	return r.consumeToken(ctx, hash, domain.TokenReset, `password_hash = ?`, passwordHash)
}
