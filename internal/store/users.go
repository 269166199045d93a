package store

import (
	"context"

	"production_report/internal/models"
)

// GetUserByUsername returns the user and its password hash.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	var u models.User
	var hash string
	err := db.QueryRowContext(ctx,
		"SELECT id, username, full_name, role, password FROM users WHERE username = $1", username).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &hash)
	if err != nil {
		return nil, "", mapErr(err)
	}
	return &u, hash, nil
}

func (db *DB) GetUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, "SELECT id, username, full_name, role FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Username, &u.FullName, &u.Role)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, username, full_name, role FROM users ORDER BY full_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *DB) CreateUser(ctx context.Context, u *models.User, passwordHash string) error {
	err := db.QueryRowContext(ctx,
		"INSERT INTO users (username, password, full_name, role) VALUES ($1, $2, $3, $4) RETURNING id",
		u.Username, passwordHash, u.FullName, u.Role).Scan(&u.ID)
	return mapErr(err)
}

// UpdateUser changes profile fields; the password only when passwordHash
// is not empty.
func (db *DB) UpdateUser(ctx context.Context, u *models.User, passwordHash string) error {
	if passwordHash != "" {
		return affected(db.ExecContext(ctx,
			"UPDATE users SET username = $1, full_name = $2, role = $3, password = $4 WHERE id = $5",
			u.Username, u.FullName, u.Role, passwordHash, u.ID))
	}
	return affected(db.ExecContext(ctx,
		"UPDATE users SET username = $1, full_name = $2, role = $3 WHERE id = $4",
		u.Username, u.FullName, u.Role, u.ID))
}

func (db *DB) DeleteUser(ctx context.Context, id int) error {
	return affected(db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id))
}
