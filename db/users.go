package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blaggregator/models"

	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

const writeTimeout = 30 * time.Second

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = sql.ErrNoRows

func (db *DB) CreateUser(ctx context.Context, username string, passwordHash string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	createdAt := time.Now()

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("users").
		Cols("username", "password_hash", "created_at").
		Values(username, passwordHash, createdAt.Unix())
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user error: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("insert user id error: %w", err)
	}

	log.WithFields(log.Fields{
		"id":       id,
		"username": username,
	}).Info("Created user")

	return models.User{
		Id:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "username", "password_hash", "created_at").
		From("users").
		Where(sb.Equal("username", username))
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	return db.scanUser(db.db.QueryRowContext(ctx, query, args...))
}

func (db *DB) GetUserById(ctx context.Context, id int64) (models.User, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "username", "password_hash", "created_at").
		From("users").
		Where(sb.Equal("id", id))
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	return db.scanUser(db.db.QueryRowContext(ctx, query, args...))
}

func (db *DB) scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var createdAt int64
	if err := row.Scan(&user.Id, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return user, nil
}

// CreateHacker creates the member profile for a user and generates the
// feed access token.
func (db *DB) CreateHacker(ctx context.Context, userId int64) (models.Hacker, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	token := uuid.New().String()

	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto("hackers").
		Cols("user_id", "token").
		Values(userId, token)
	query, args := ib.BuildWithFlavor(sqlbuilder.SQLite)

	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Hacker{}, fmt.Errorf("insert hacker error: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Hacker{}, fmt.Errorf("insert hacker id error: %w", err)
	}

	return models.Hacker{
		Id:     id,
		UserId: userId,
		Token:  token,
	}, nil
}

// GetHackerByToken looks up a hacker by feed token. An empty token never
// matches.
func (db *DB) GetHackerByToken(ctx context.Context, token string) (models.Hacker, error) {
	if token == "" {
		return models.Hacker{}, ErrNotFound
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "user_id", "token", "avatar_url").
		From("hackers").
		Where(sb.Equal("token", token))
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	return db.scanHacker(db.db.QueryRowContext(ctx, query, args...))
}

func (db *DB) GetHackerById(ctx context.Context, id int64) (models.Hacker, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "user_id", "token", "avatar_url").
		From("hackers").
		Where(sb.Equal("id", id))
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	return db.scanHacker(db.db.QueryRowContext(ctx, query, args...))
}

func (db *DB) UpdateHackerAvatar(ctx context.Context, id int64, avatarUrl string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ub := sqlbuilder.NewUpdateBuilder()
	ub.Update("hackers").
		Set(ub.Assign("avatar_url", avatarUrl)).
		Where(ub.Equal("id", id))
	query, args := ub.BuildWithFlavor(sqlbuilder.SQLite)

	_, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update avatar error: %w", err)
	}
	return nil
}

func (db *DB) scanHacker(row *sql.Row) (models.Hacker, error) {
	var hacker models.Hacker
	if err := row.Scan(&hacker.Id, &hacker.UserId, &hacker.Token, &hacker.AvatarUrl); err != nil {
		return models.Hacker{}, err
	}
	return hacker, nil
}
