package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const userCols = `u.id, u.username, u.email, u.password_hash, u.is_superuser, u.date_joined,
	COALESCE(ARRAY(SELECT group_id FROM auth_user_groups g WHERE g.user_id = u.id ORDER BY group_id), '{}')`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsSuperuser, &u.DateJoined, &u.Groups)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (r *Repo) CreateUser(ctx context.Context, u User) (User, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO auth_users(username, email, password_hash, is_superuser, date_joined)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.IsSuperuser, u.DateJoined).Scan(&u.ID)
	if err != nil {
		return User{}, duplicate(err)
	}
	if err := setGroups(ctx, tx, u.ID, u.Groups); err != nil {
		return User{}, err
	}
	return u, tx.Commit(ctx)
}

func (r *Repo) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM auth_users u WHERE u.id=$1`, id))
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM auth_users u WHERE u.username=$1`, username))
}

func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userCols+` FROM auth_users u ORDER BY u.date_joined DESC, u.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateUser(ctx context.Context, u User) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `UPDATE auth_users SET username=$2, email=$3, password_hash=$4, is_superuser=$5 WHERE id=$1`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsSuperuser)
	if err != nil {
		return duplicate(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM auth_user_groups WHERE user_id=$1`, u.ID); err != nil {
		return err
	}
	if err := setGroups(ctx, tx, u.ID, u.Groups); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) DeleteUser(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM auth_users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CreateGroup(ctx context.Context, g Group) (Group, error) {
	err := r.DB.QueryRow(ctx, `INSERT INTO auth_groups(name) VALUES ($1) RETURNING id`, g.Name).Scan(&g.ID)
	return g, duplicate(err)
}

func (r *Repo) GetGroup(ctx context.Context, id int64) (Group, error) {
	var g Group
	err := r.DB.QueryRow(ctx, `SELECT id, name FROM auth_groups WHERE id=$1`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, ErrNotFound
	}
	return g, err
}

func (r *Repo) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM auth_groups ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateGroup(ctx context.Context, g Group) error {
	ct, err := r.DB.Exec(ctx, `UPDATE auth_groups SET name=$2 WHERE id=$1`, g.ID, g.Name)
	if err != nil {
		return duplicate(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// auth_user_groups.group_id is ON DELETE CASCADE.
func (r *Repo) DeleteGroup(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM auth_groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func setGroups(ctx context.Context, tx pgx.Tx, userID int64, groups []int64) error {
	for _, g := range groups {
		if _, err := tx.Exec(ctx, `
			INSERT INTO auth_user_groups(user_id, group_id) VALUES ($1,$2)
			ON CONFLICT DO NOTHING`, userID, g); err != nil {
			return err
		}
	}
	return nil
}

func duplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
