package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"stayfinder-service/domain"
	"stayfinder-service/utils"
)

func newAuthFixture(t *testing.T) (*memStore, *fakeImages, *utils.TokenIssuer, AuthService) {
	t.Helper()
	store := newMemStore()
	images := &fakeImages{}
	tokens := utils.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return store, images, tokens, NewAuthServiceImpl(memUsers{store}, tokens, images, fixedClock, testTracer())
}

func TestRegister(t *testing.T) {
	_, images, tokens, service := newAuthFixture(t)

	result, err := service.Register(context.Background(), &domain.RegisterInput{
		Name:     " Asha ",
		Email:    " Asha@Example.COM ",
		Password: "secret123",
	}, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.Email != "asha@example.com" || result.User.Name != "Asha" {
		t.Errorf("input not normalized: %+v", result.User)
	}
	if result.User.Role != domain.Guest || result.User.Avatar != domain.DefaultAvatar {
		t.Errorf("unexpected defaults: %+v", result.User)
	}
	if len(images.uploaded) != 0 {
		t.Errorf("uploaded an avatar that was not sent")
	}
	claims, err := tokens.ValidateAccessToken(result.AccessToken)
	if err != nil || claims.Subject != result.User.ID.Hex() {
		t.Errorf("access token does not identify the user: %v", err)
	}
	if _, err := tokens.ValidateRefreshToken(result.RefreshToken); err != nil {
		t.Errorf("refresh token invalid: %v", err)
	}

	_, err = service.Register(context.Background(), &domain.RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "another1",
	}, nil)
	assertKind(t, err, domain.KindConflict)
}

func TestRegisterWithAvatar(t *testing.T) {
	_, images, _, service := newAuthFixture(t)

	result, err := service.Register(context.Background(), &domain.RegisterInput{
		Name:     "Ravi",
		Email:    "ravi@example.com",
		Password: "secret123",
		Role:     domain.Host,
	}, &FileUpload{Name: "me.png", Content: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.Role != domain.Host || len(images.uploaded) != 1 || result.User.Avatar != images.uploaded[0] {
		t.Errorf("unexpected user: %+v", result.User)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		input domain.RegisterInput
	}{
		{name: "missing password", input: domain.RegisterInput{Name: "Asha", Email: "asha@example.com"}},
		{name: "short name", input: domain.RegisterInput{Name: "A", Email: "asha@example.com", Password: "secret123"}},
		{name: "bad email", input: domain.RegisterInput{Name: "Asha", Email: "asha.example.com", Password: "secret123"}},
		{name: "short password", input: domain.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "12345"}},
		{name: "bad role", input: domain.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret123", Role: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, service := newAuthFixture(t)
			_, err := service.Register(context.Background(), &tt.input, nil)
			assertKind(t, err, domain.KindInvalidRequest)
		})
	}
}

func TestLogin(t *testing.T) {
	store, _, _, service := newAuthFixture(t)
	user := store.addUser("meera", domain.Guest)

	_, err := service.Login(context.Background(), &domain.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assertKind(t, err, domain.KindNotFound)

	_, err = service.Login(context.Background(), &domain.LoginInput{Email: user.Email, Password: "wrong-pass"})
	assertKind(t, err, domain.KindUnauthorized)

	_, err = service.Login(context.Background(), &domain.LoginInput{Email: user.Email})
	assertKind(t, err, domain.KindInvalidRequest)

	result, err := service.Login(context.Background(), &domain.LoginInput{Email: strings.ToUpper(user.Email), Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.User.ID != user.ID || result.AccessToken == "" || result.RefreshToken == "" {
		t.Errorf("unexpected login result: %+v", result)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	store, _, tokens, service := newAuthFixture(t)
	user := store.addUser("meera", domain.Guest)

	refresh, _ := tokens.GenerateRefreshToken(user.ID.Hex())
	access, err := service.RefreshAccessToken(context.Background(), refresh)
	if err != nil {
		t.Fatalf("RefreshAccessToken: %v", err)
	}
	resolved, err := service.ResolveSession(context.Background(), access)
	if err != nil || resolved.ID != user.ID {
		t.Fatalf("new access token does not resolve: %v", err)
	}

	_, err = service.RefreshAccessToken(context.Background(), "garbage")
	assertKind(t, err, domain.KindUnauthorized)

	_, err = service.RefreshAccessToken(context.Background(), "")
	assertKind(t, err, domain.KindUnauthorized)

	ghost, _ := tokens.GenerateRefreshToken(store.addUser("ghost", domain.Guest).ID.Hex())
	store.mu.Lock()
	for id, u := range store.users {
		if u.Name == "ghost" {
			delete(store.users, id)
		}
	}
	store.mu.Unlock()
	_, err = service.RefreshAccessToken(context.Background(), ghost)
	assertKind(t, err, domain.KindUnauthorized)
}

func TestResolveSessionRejectsRefreshToken(t *testing.T) {
	store, _, tokens, service := newAuthFixture(t)
	user := store.addUser("meera", domain.Guest)

	refresh, _ := tokens.GenerateRefreshToken(user.ID.Hex())
	_, err := service.ResolveSession(context.Background(), refresh)
	assertKind(t, err, domain.KindUnauthorized)

	_, err = service.ResolveSession(context.Background(), "")
	assertKind(t, err, domain.KindUnauthorized)
}

func TestResetPassword(t *testing.T) {
	store, _, _, service := newAuthFixture(t)
	user := store.addUser("meera", domain.Guest)
	other := store.addUser("kiran", domain.Guest)

	err := service.ResetPassword(context.Background(), user, &domain.ResetPasswordInput{
		Email: other.Email, OldPassword: "secret123", NewPassword: "newsecret",
	})
	assertKind(t, err, domain.KindForbidden)

	err = service.ResetPassword(context.Background(), user, &domain.ResetPasswordInput{
		Email: user.Email, OldPassword: "not-it", NewPassword: "newsecret",
	})
	assertKind(t, err, domain.KindUnauthorized)

	err = service.ResetPassword(context.Background(), user, &domain.ResetPasswordInput{
		Email: user.Email, OldPassword: "secret123", NewPassword: "123",
	})
	assertKind(t, err, domain.KindInvalidRequest)

	err = service.ResetPassword(context.Background(), user, &domain.ResetPasswordInput{
		Email: user.Email, OldPassword: "secret123", NewPassword: "newsecret",
	})
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := service.Login(context.Background(), &domain.LoginInput{Email: user.Email, Password: "newsecret"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	_, err = service.Login(context.Background(), &domain.LoginInput{Email: user.Email, Password: "secret123"})
	assertKind(t, err, domain.KindUnauthorized)
}
