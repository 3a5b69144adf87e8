package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jaykhandelwal/pfb-dashboard-sub000/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, store)
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if store.updates == 0 {
		t.Fatalf("expected legacy password to be rehashed")
	}
	users, _ := store.ListUsers(context.Background())
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestCreateStaffStoresPasswordHash(t *testing.T) {
	store := &userStoreStub{users: map[string]domain.UserAccount{}}
	manager := NewAuthManager("test-secret", time.Hour, store)

	staff, err := manager.CreateStaff(context.Background(), domain.StaffCreateRequest{
		Username: "Counter1",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	if staff.Username != "counter1" || staff.Role != RoleStaff {
		t.Fatalf("unexpected staff %+v", staff)
	}

	saved, ok := store.users["counter1"]
	if !ok {
		t.Fatalf("expected staff to be saved")
	}
	if !strings.HasPrefix(saved.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", saved.Password)
	}

	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "counter1", Password: "pass1234"})
	if err != nil {
		t.Fatalf("login with new staff failed: %v", err)
	}
	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "counter1" || actor.Role != RoleStaff {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if listed := manager.ListStaff(context.Background()); len(listed) != 1 || listed[0].Username != "counter1" {
		t.Fatalf("unexpected staff list %+v", listed)
	}
}

func TestCreateStaffValidation(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, &userStoreStub{})
	if _, err := manager.CreateStaff(context.Background(), domain.StaffCreateRequest{Username: "dup1", Password: "pass1234"}); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	cases := []struct {
		name string
		req  domain.StaffCreateRequest
	}{
		{name: "short username", req: domain.StaffCreateRequest{Username: "ab", Password: "pass1234"}},
		{name: "spaces", req: domain.StaffCreateRequest{Username: "two words", Password: "pass1234"}},
		{name: "short password", req: domain.StaffCreateRequest{Username: "counter9", Password: "short"}},
		{name: "duplicate", req: domain.StaffCreateRequest{Username: "DUP1", Password: "pass1234"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := manager.CreateStaff(context.Background(), tc.req); err == nil {
				t.Fatalf("expected error for %+v", tc.req)
			}
		})
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"gone": {Username: "gone", Password: "old-pass-1", Role: RoleStaff, Active: false},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, store)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "gone", Password: "old-pass-1"}); err == nil {
		t.Fatalf("expected inactive account to be rejected")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: "admin123", Role: RoleAdmin, Active: true},
		},
	}
	issuer := NewAuthManager("secret-one", time.Hour, store)
	verifier := NewAuthManager("secret-two", time.Hour, store)

	resp, err := issuer.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
	if _, err := issuer.ParseToken(resp.AccessToken + "x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}
