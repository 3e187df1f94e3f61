package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	user User
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*uuid.UUID) = r.user.ID
	*dest[1].(*string) = r.user.Email
	*dest[2].(*string) = r.user.PasswordHash
	*dest[3].(*string) = r.user.FirstName
	*dest[4].(*string) = r.user.LastName
	*dest[5].(*time.Time) = r.user.CreatedAt
	*dest[6].(*time.Time) = r.user.UpdatedAt
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	lastSQL  string
	lastArgs []any
	deadline bool
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	_, q.deadline = ctx.Deadline()
	return q.row
}

func TestRepositoryCreateUser(t *testing.T) {
	want := User{ID: uuid.New(), Email: "a@x.com", PasswordHash: "hash", FirstName: "A", LastName: "X", CreatedAt: time.Now()}
	q := &fakeQuerier{row: fakeRow{user: want}}
	repo := NewRepository(q)

	got, err := repo.CreateUser(context.Background(), NewUser{Email: "a@x.com", PasswordHash: "hash", FirstName: "A", LastName: "X"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Contains(t, q.lastSQL, "INSERT INTO users")
	assert.Equal(t, []any{"a@x.com", "hash", "A", "X"}, q.lastArgs)
	assert.True(t, q.deadline, "queries run with a timeout")
}

func TestRepositoryCreateUserUniqueViolation(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}}}
	repo := NewRepository(q)

	_, err := repo.CreateUser(context.Background(), NewUser{Email: "a@x.com"})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRepositoryCreateUserOtherError(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: errors.New("db down")}}
	repo := NewRepository(q)

	_, err := repo.CreateUser(context.Background(), NewUser{Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, err.Error(), "db down")
}

func TestRepositoryFindUserNotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	repo := NewRepository(q)

	_, err := repo.FindUserByEmail(context.Background(), "a@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.FindUserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepositoryFindUserByID(t *testing.T) {
	want := User{ID: uuid.New(), Email: "a@x.com"}
	q := &fakeQuerier{row: fakeRow{user: want}}
	repo := NewRepository(q)

	got, err := repo.FindUserByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, []any{want.ID}, q.lastArgs)
	assert.Contains(t, q.lastSQL, "WHERE id = $1")
}
