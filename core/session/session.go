package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/user"
)

// Phase is where the session stands in its lifecycle.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseChecking      Phase = "checking"
	PhaseAuthenticated Phase = "authenticated"
	PhaseAnonymous     Phase = "anonymous"
)

type State struct {
	User            *user.User `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	IsLoading       bool       `json:"isLoading"`
	Phase           Phase      `json:"-"`
	ExpiresAt       time.Time  `json:"-"`
}

type (
	// AuthAPI is the part of the remote API the session depends on.
	AuthAPI interface {
		Login(ctx context.Context, creds user.Credentials) (user.User, error)
		Register(ctx context.Context, reg user.Registration) (user.User, error)
		Logout(ctx context.Context) error
		Verify(ctx context.Context) (user.User, error)
	}

	// Credentials holds the cookies the remote API authenticates requests with.
	Credentials interface {
		Credentials() []*http.Cookie
		SetCredentials(cookies []*http.Cookie)
		ClearCredentials()
	}

	Listener func(State)
)

// record is what gets persisted between runs.
type record struct {
	User            *user.User  `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	Credentials     []cookieRec `json:"credentials,omitempty"`
}

type cookieRec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Store is the process-wide authentication state.
type Store struct {
	api      AuthAPI
	creds    Credentials
	kv       core.KVStore
	key      string
	notifier core.Notifier
	logger   core.Logger

	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

func NewStore(api AuthAPI, creds Credentials, kv core.KVStore, key string, notifier core.Notifier, logger core.Logger) *Store {
	return &Store{
		api:       api,
		creds:     creds,
		kv:        kv,
		key:       key,
		notifier:  notifier,
		logger:    logger,
		state:     State{Phase: PhaseUninitialized},
		listeners: make(map[int]Listener),
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers l to be called after every state change.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Rehydrate restores the persisted record. A missing or unreadable record leaves the session anonymous.
func (s *Store) Rehydrate() {
	data, err := s.kv.Get(s.key)
	if err != nil {
		if errors.Cause(err) != core.ErrKeyNotFound {
			s.logger.Warn("reading session record", errors.Wrap(err, "rehydrate"))
		}
		return
	}
	var rec record
	if err = json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("decoding session record", errors.Wrap(err, "rehydrate"))
		return
	}

	cookies := make([]*http.Cookie, 0, len(rec.Credentials))
	for _, c := range rec.Credentials {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	s.creds.SetCredentials(cookies)

	s.update(func(st *State) {
		st.User = rec.User
		st.IsAuthenticated = rec.IsAuthenticated && rec.User != nil
		st.ExpiresAt = tokenExpiry(cookies)
	}, false)
}

// Login authenticates against the remote API.
// On failure the state is left as it was and the error is returned.
func (s *Store) Login(ctx context.Context, username, password string) error {
	creds := user.Credentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		s.notifier.Error("Username and password are required")
		return err
	}

	s.update(func(st *State) { st.IsLoading = true }, false)
	usr, err := s.api.Login(ctx, creds)
	if err != nil {
		s.update(func(st *State) { st.IsLoading = false }, false)
		s.notifier.Error(core.ErrorMessage(err, "Login failed"))
		return errors.Wrap(err, "logging in")
	}
	s.authenticate(usr)
	s.notifier.Success("Login successful!")
	return nil
}

// Register creates a new user through the remote API, then holds that user as the session user.
func (s *Store) Register(ctx context.Context, reg user.Registration) error {
	if err := reg.Validate(); err != nil {
		s.notifier.Error("Registration failed")
		return err
	}

	s.update(func(st *State) { st.IsLoading = true }, false)
	usr, err := s.api.Register(ctx, reg)
	if err != nil {
		s.update(func(st *State) { st.IsLoading = false }, false)
		s.notifier.Error(core.ErrorMessage(err, "Registration failed"))
		return errors.Wrap(err, "registering")
	}
	s.authenticate(usr)
	s.notifier.Success("Registration successful!")
	return nil
}

// Logout ends the session. Local state is cleared whether or not the remote call succeeds.
func (s *Store) Logout(ctx context.Context) {
	prev := s.State()
	if err := s.api.Logout(ctx); err != nil {
		args := []interface{}{errors.Wrap(err, "logging out")}
		if prev.User != nil {
			args = append(args, *prev.User)
		}
		s.logger.Error("remote logout failed", args...)
	}
	s.creds.ClearCredentials()
	s.update(func(st *State) {
		*st = State{Phase: PhaseAnonymous}
	}, true)
	s.notifier.Success("Logged out")
}

// CheckSession asks the remote API who the current user is. Any failure makes the session anonymous, silently.
// Credentials are dropped only when the remote API rejects them: after an outage, a later check may succeed.
func (s *Store) CheckSession(ctx context.Context) {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Phase = PhaseChecking
	}, false)

	usr, err := s.api.Verify(ctx)
	if err != nil {
		rejected := core.IsUnauthorized(err)
		if rejected {
			s.creds.ClearCredentials()
		} else {
			s.logger.Debug("session check failed", errors.Wrap(err, "verifying session"))
		}
		s.update(func(st *State) {
			*st = State{Phase: PhaseAnonymous}
		}, rejected)
		return
	}
	s.authenticate(usr)
}

func (s *Store) authenticate(usr user.User) {
	cookies := s.creds.Credentials()
	s.update(func(st *State) {
		st.User = &usr
		st.IsAuthenticated = true
		st.IsLoading = false
		st.Phase = PhaseAuthenticated
		st.ExpiresAt = tokenExpiry(cookies)
	}, true)
}

// update applies fn to the state, persists it if asked, then notifies listeners.
func (s *Store) update(fn func(st *State), persist bool) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if persist {
		s.persist(state)
	}
	for _, l := range listeners {
		l(state)
	}
}

func (s *Store) persist(state State) {
	rec := record{User: state.User, IsAuthenticated: state.IsAuthenticated}
	if state.IsAuthenticated {
		for _, c := range s.creds.Credentials() {
			rec.Credentials = append(rec.Credentials, cookieRec{Name: c.Name, Value: c.Value})
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("encoding session record", errors.Wrap(err, "persist"))
		return
	}
	if err = s.kv.Put(s.key, data); err != nil {
		s.logger.Error("writing session record", errors.Wrap(err, "persist"))
	}
}

// Expired reports whether the access token is known to have expired at now.
func (st State) Expired(now time.Time) bool {
	return !st.ExpiresAt.IsZero() && !now.Before(st.ExpiresAt)
}
