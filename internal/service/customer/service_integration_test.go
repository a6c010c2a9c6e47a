package customer

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"storefront/internal/dbtest"
	customerrepo "storefront/internal/repository/customer"
	tokenrepo "storefront/internal/repository/token"
)

func TestSignupAndLogin_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)

	repo := customerrepo.NewPostgres(pool, zaptest.NewLogger(t))
	tokenRepo := tokenrepo.NewPostgres(pool)
	svc := New(repo, tokenRepo)

	password := "Abcdefg1"
	cust, err := svc.Signup(ctx, SignupInput{
		Email:     "integration@example.com",
		Password:  password,
		FirstName: "Int",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if cust == nil || cust.ID == "" {
		t.Fatalf("expected created customer, got %+v", cust)
	}

	session, err := svc.Login(ctx, "integration@example.com", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", session)
	}

	id, err := svc.Identify(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if id.CustomerID != cust.ID {
		t.Fatalf("identity mismatch: %+v", id)
	}
}
