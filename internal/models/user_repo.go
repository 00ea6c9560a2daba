package models

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// IdentityProvider is the hosted authentication service. It only proves who
// a caller is; roles live in the users table.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (uuid.UUID, error)
	SignIn(ctx context.Context, email, password string) (uuid.UUID, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) ([]User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

const userColumns = "user_id,full_name,email,contact_number,role,created_at"

// gotrue-go reports failures as "response status code <n>: <body>".
var gotrueStatus = regexp.MustCompile(`status code (\d{3})`)

func identityError(op string, err error) error {
	ue := UpstreamError{Op: op, Err: err}
	if m := gotrueStatus.FindStringSubmatch(err.Error()); m != nil {
		ue.Code = m[1]
		code, _ := strconv.Atoi(m[1])
		ue.Correctable = code >= 400 && code < 500 && code != 401 && code != 403
	}
	return ue
}

func (su *SupabaseRepo) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (uuid.UUID, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already registered") {
			return uuid.Nil, ValidationError{Field: "email", Msg: "email already in use", Err: err}
		}
		return uuid.Nil, identityError("signup", err)
	}

	// With auto-confirm the provider answers with a session instead of a user.
	id := res.ID
	if id == uuid.Nil {
		id = res.Session.User.ID
	}
	if id == uuid.Nil {
		return uuid.Nil, UpstreamError{Op: "signup", Err: fmt.Errorf("identity provider returned no user id")}
	}
	return id, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (uuid.UUID, error) {
	// Client.SignInWithEmailPassword would install the session on the shared
	// client, so go through the auth client directly.
	res, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return uuid.Nil, AuthError{Msg: "Invalid credentials", Err: err}
	}
	if res.User.ID == uuid.Nil {
		return uuid.Nil, AuthError{Msg: "Invalid credentials"}
	}
	return res.User.ID, nil
}

func (su *SupabaseRepo) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	err := su.supabaseClient.Auth.WithToken(su.serviceKey).AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id})
	if err != nil {
		return identityError("delete identity", err)
	}
	return nil
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	row := map[string]interface{}{
		"user_id":        user.ID,
		"full_name":      user.FullName,
		"email":          user.Email,
		"contact_number": user.ContactNumber,
		"role":           user.Role,
	}

	raw, _, err := su.supabaseClient.From(UsersTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, upstream("insert user", err)
	}

	users, err := decodeRows[User](raw)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return user, nil
	}
	return &users[0], nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, ValidationError{Field: "user_id", Msg: "invalid UUID"}
	}

	raw, _, err := su.supabaseClient.From(UsersTable).
		Select(userColumns, "", false).
		Eq("user_id", id.String()).
		Execute()
	if err != nil {
		return nil, upstream("get user", err)
	}

	users, err := decodeRows[User](raw)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, NotFoundError{Resource: "user"}
	}
	return &users[0], nil
}

func (su *SupabaseRepo) GetUsers(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}

	raw, _, err := su.supabaseClient.From(UsersTable).
		Select(userColumns, "", false).
		In("user_id", values).
		Execute()
	if err != nil {
		return nil, upstream("get users", err)
	}
	return decodeRows[User](raw)
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*User, error) {
	if id == uuid.Nil {
		return nil, ValidationError{Field: "user_id", Msg: "invalid UUID"}
	}
	if len(fields) == 0 {
		return su.GetUser(ctx, id)
	}

	raw, _, err := su.supabaseClient.From(UsersTable).
		Update(fields, "representation", "").
		Eq("user_id", id.String()).
		Execute()
	if err != nil {
		return nil, upstream("update user", err)
	}

	users, err := decodeRows[User](raw)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, NotFoundError{Resource: "user"}
	}
	return &users[0], nil
}

func (su *SupabaseRepo) CountUsers(ctx context.Context) (int, error) {
	raw, _, err := su.supabaseClient.From(UsersTable).
		Select("user_id", "", false).
		Execute()
	if err != nil {
		return 0, upstream("count users", err)
	}
	rows, err := decodeRows[struct {
		UserID uuid.UUID `json:"user_id"`
	}](raw)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
