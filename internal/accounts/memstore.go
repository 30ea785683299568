package accounts

import (
	"context"
	"slices"
	"sort"
	"sync"
)

type MemStore struct {
	mu       sync.Mutex
	users    map[int64]User
	groups   map[int64]Group
	userSeq  int64
	groupSeq int64
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{users: map[int64]User{}, groups: map[int64]Group{}}
}

func (s *MemStore) CreateUser(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(u.Username, 0) {
		return User{}, ErrDuplicate
	}
	s.userSeq++
	u.ID = s.userSeq
	u.Groups = slices.Clone(u.Groups)
	s.users[u.ID] = u
	return u, nil
}

func (s *MemStore) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Groups = slices.Clone(u.Groups)
	return u, nil
}

func (s *MemStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u.Groups = slices.Clone(u.Groups)
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		u.Groups = slices.Clone(u.Groups)
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateJoined.Equal(out[j].DateJoined) {
			return out[i].DateJoined.After(out[j].DateJoined)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemStore) UpdateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	if s.usernameTaken(u.Username, u.ID) {
		return ErrDuplicate
	}
	u.Groups = slices.Clone(u.Groups)
	s.users[u.ID] = u
	return nil
}

func (s *MemStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemStore) CreateGroup(_ context.Context, g Group) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupNameTaken(g.Name, 0) {
		return Group{}, ErrDuplicate
	}
	s.groupSeq++
	g.ID = s.groupSeq
	s.groups[g.ID] = g
	return g, nil
}

func (s *MemStore) GetGroup(_ context.Context, id int64) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (s *MemStore) ListGroups(_ context.Context) ([]Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpdateGroup(_ context.Context, g Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID]; !ok {
		return ErrNotFound
	}
	if s.groupNameTaken(g.Name, g.ID) {
		return ErrDuplicate
	}
	s.groups[g.ID] = g
	return nil
}

// DeleteGroup also drops the membership rows, like the FK cascade in Postgres.
func (s *MemStore) DeleteGroup(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return ErrNotFound
	}
	delete(s.groups, id)
	for uid, u := range s.users {
		u.Groups = slices.DeleteFunc(slices.Clone(u.Groups), func(g int64) bool { return g == id })
		s.users[uid] = u
	}
	return nil
}

func (s *MemStore) usernameTaken(name string, except int64) bool {
	for _, u := range s.users {
		if u.ID != except && u.Username == name {
			return true
		}
	}
	return false
}

func (s *MemStore) groupNameTaken(name string, except int64) bool {
	for _, g := range s.groups {
		if g.ID != except && g.Name == name {
			return true
		}
	}
	return false
}
