package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-orders-api/internal/validation"
	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("no active account found with the given credentials")

type Service struct {
	Store  Store
	Tokens *Tokens
	Log    *zap.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Login exchanges credentials for a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.Store.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.Tokens.Issue(u)
}

// Refresh mints a new access token from a refresh token of a still existing user.
func (s *Service) Refresh(ctx context.Context, refresh string) (string, error) {
	c, err := s.Tokens.Parse(refresh, KindRefresh)
	if err != nil {
		return "", err
	}
	u, err := s.userFromClaims(ctx, c)
	if err != nil {
		return "", err
	}
	pair, err := s.Tokens.Issue(u)
	if err != nil {
		return "", err
	}
	return pair.Access, nil
}

// Authenticate resolves a bearer access token to its user.
func (s *Service) Authenticate(ctx context.Context, access string) (User, error) {
	c, err := s.Tokens.Parse(access, KindAccess)
	if err != nil {
		return User{}, err
	}
	return s.userFromClaims(ctx, c)
}

func (s *Service) userFromClaims(ctx context.Context, c Claims) (User, error) {
	id, err := c.UserID()
	if err != nil {
		return User{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	u, err := s.Store.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("%w: user not found", ErrInvalidToken)
	}
	return u, err
}

// EnsureAdmin creates the bootstrap superuser when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.Store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.Store.CreateUser(ctx, User{Username: username, PasswordHash: hash, IsSuperuser: true, DateJoined: s.now()})
	if err == nil && s.Log != nil {
		s.Log.Info("bootstrap admin created", zap.String("username", username))
	}
	return err
}

// ---- users ----

func (s *Service) ListUsers(ctx context.Context) ([]User, error) { return s.Store.ListUsers(ctx) }

func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (User, error) {
	if in.Username == nil {
		return User{}, validation.Field("username", "this field is required.")
	}
	u := User{DateJoined: s.now()}
	if err := s.apply(ctx, &u, in); err != nil {
		return User{}, err
	}
	u, err := s.Store.CreateUser(ctx, u)
	return u, usernameTaken(err)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, in UserInput, partial bool) (User, error) {
	if !partial && in.Username == nil {
		return User{}, validation.Field("username", "this field is required.")
	}
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.apply(ctx, &u, in); err != nil {
		return User{}, err
	}
	return u, usernameTaken(s.Store.UpdateUser(ctx, u))
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error { return s.Store.DeleteUser(ctx, id) }

func (s *Service) apply(ctx context.Context, u *User, in UserInput) error {
	errs := validation.Errors{}
	if err := validation.Struct(in, nil); err != nil {
		v, ok := validation.As(err)
		if !ok {
			return err
		}
		errs = v
	}
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Groups != nil {
		for _, g := range *in.Groups {
			if _, err := s.Store.GetGroup(ctx, g); errors.Is(err, ErrNotFound) {
				errs.Add("groups", fmt.Sprintf("invalid pk %q - object does not exist.", fmt.Sprint(g)))
			} else if err != nil {
				return err
			}
		}
		u.Groups = append([]int64{}, *in.Groups...)
	}
	if u.Groups == nil {
		u.Groups = []int64{}
	}
	if err := errs.Err(); err != nil {
		return err
	}
	if in.Password != nil {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

func usernameTaken(err error) error {
	if errors.Is(err, ErrDuplicate) {
		return validation.Field("username", "a user with that username already exists.")
	}
	return err
}

// ---- groups ----

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) { return s.Store.ListGroups(ctx) }

func (s *Service) GetGroup(ctx context.Context, id int64) (Group, error) {
	return s.Store.GetGroup(ctx, id)
}

func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (Group, error) {
	name, err := groupName(in)
	if err != nil {
		return Group{}, err
	}
	g, err := s.Store.CreateGroup(ctx, Group{Name: name})
	return g, groupTaken(err)
}

// UpdateGroup: name is the only field, so PUT and PATCH behave the same.
func (s *Service) UpdateGroup(ctx context.Context, id int64, in GroupInput) (Group, error) {
	name, err := groupName(in)
	if err != nil {
		return Group{}, err
	}
	g, err := s.Store.GetGroup(ctx, id)
	if err != nil {
		return Group{}, err
	}
	g.Name = name
	return g, groupTaken(s.Store.UpdateGroup(ctx, g))
}

func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	return s.Store.DeleteGroup(ctx, id)
}

func groupName(in GroupInput) (string, error) {
	if in.Name == nil {
		return "", validation.Field("name", "this field is required.")
	}
	if err := validation.Struct(in, nil); err != nil {
		return "", err
	}
	return strings.TrimSpace(*in.Name), nil
}

func groupTaken(err error) error {
	if errors.Is(err, ErrDuplicate) {
		return validation.Field("name", "group with this name already exists.")
	}
	return err
}
