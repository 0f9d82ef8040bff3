package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tourneygate/internal/dependencies/mocks"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, Config{
		SessionDuration: time.Hour,
		Operators:       map[string]string{"ops": string(hash)},
	})
}

func (s *ServiceSuite) TestLoginSucceeds() {
	session, err := s.service.Login("ops", "s3cret")
	s.Require().NoError(err)
	s.Equal("ops", session.Operator)
	s.NotEmpty(session.Token)
	s.Equal(s.clock.Now().Add(time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestLoginWrongKey() {
	_, err := s.service.Login("ops", "guess")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownOperator() {
	_, err := s.service.Login("nobody", "s3cret")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginWithoutOperators() {
	svc := New(s.clock, DefaultConfig())
	_, err := svc.Login("ops", "s3cret")
	s.ErrorIs(err, ErrNoOperators)
}

func (s *ServiceSuite) TestSessionsAreUnique() {
	a, _ := s.service.Login("ops", "s3cret")
	b, _ := s.service.Login("ops", "s3cret")
	s.NotEqual(a.Token, b.Token)
}

func (s *ServiceSuite) TestValidateSession() {
	session, _ := s.service.Login("ops", "s3cret")

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal("ops", validated.Operator)
}

func (s *ServiceSuite) TestValidateUnknownToken() {
	_, err := s.service.ValidateSession("op_missing")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestSessionExpires() {
	session, _ := s.service.Login("ops", "s3cret")

	s.clock.Advance(time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, _ := s.service.Login("ops", "s3cret")
	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	_, _ = s.service.Login("ops", "s3cret")
	s.clock.Advance(30 * time.Minute)
	fresh, _ := s.service.Login("ops", "s3cret")
	s.clock.Advance(45 * time.Minute)

	s.Equal(1, s.service.CleanExpiredSessions())

	_, err := s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}

func TestParseOperators(t *testing.T) {
	hash, err := HashKey("k")
	if err != nil {
		t.Fatal(err)
	}

	ops, err := ParseOperators("alice:" + hash + ", bob:" + hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 2 || ops["bob"] != hash {
		t.Fatalf("unexpected operators: %v", ops)
	}

	if ops, err := ParseOperators(""); err != nil || len(ops) != 0 {
		t.Fatalf("empty input: %v %v", ops, err)
	}
	if _, err := ParseOperators("alice"); err == nil {
		t.Fatal("expected error for missing hash")
	}
	if _, err := ParseOperators("alice:plaintext"); err == nil {
		t.Fatal("expected error for non-bcrypt hash")
	}
}

func TestHashKeyVerifies(t *testing.T) {
	hash, err := HashKey("operator-key")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("operator-key")) != nil {
		t.Fatal("hash does not verify")
	}
}
