package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = SignUpInput{Email: "a@x.com", Password: "secret123", FirstName: "A", LastName: "B"}

func TestSignUp_DefaultsToUserRole(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	s := newAuthService(t, db, m)

	u := signUp(t, s, mock, sample)
	assert.Equal(t, "a.b", u.Username)

	stored, ok := m.User("a@x.com")
	require.True(t, ok)
	assert.Equal(t, []string{"USER"}, stored.Roles.Names())
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.Equal(t, "A B", stored.Name)
	assert.Equal(t, "B", stored.Surname)

	sess, err := s.SignIn(context.Background(), "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, sess.User.Roles.Names())

	subject, err := s.codec.Verify(sess.Token, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_AdminRole(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	s := newAuthService(t, db, m)

	in := sample
	in.Roles = []string{"admin", "user"}
	signUp(t, s, mock, in)

	stored, _ := m.User("a@x.com")
	assert.Equal(t, []string{"ADMIN", "USER"}, stored.Roles.Names())
}

func TestSignUp_Rejections(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newAuthService(t, db, repotest.NewManager())

	tests := []struct {
		name   string
		mutate func(*SignUpInput)
		want   error
		field  string
	}{
		{"short password", func(in *SignUpInput) { in.Password = "12345" }, common.ErrValidation, "password"},
		{"no first name", func(in *SignUpInput) { in.FirstName = " " }, common.ErrValidation, "firstName"},
		{"no last name", func(in *SignUpInput) { in.LastName = "" }, common.ErrValidation, "lastName"},
		{"no email", func(in *SignUpInput) { in.Email = "" }, common.ErrValidation, "email"},
		{"unknown role", func(in *SignUpInput) { in.Roles = []string{"superuser"} }, common.ErrUnknownRole, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sample
			tt.mutate(&in)
			_, err := s.SignUp(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
			if tt.field != "" {
				var ve *common.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Fields, tt.field)
			}
		})
	}
}

func TestSignUp_Conflicts(t *testing.T) {
	db, mock := newSQLMockDB(t)
	s := newAuthService(t, db, repotest.NewManager())
	signUp(t, s, mock, sample)

	_, err := s.SignUp(context.Background(), sample)
	require.ErrorIs(t, err, common.ErrAlreadyExists)
	var pe *common.PublicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Username is already taken", pe.Message)

	other := sample
	other.Username = "someone.else"
	_, err = s.SignUp(context.Background(), other)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Email is already in use", pe.Message)
}

func TestSignIn_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	db, mock := newSQLMockDB(t)
	s := newAuthService(t, db, repotest.NewManager())
	signUp(t, s, mock, sample)

	_, errWrong := s.SignIn(context.Background(), "a@x.com", "wrong-password")
	_, errMissing := s.SignIn(context.Background(), "nobody@x.com", "secret123")

	require.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	require.ErrorIs(t, errMissing, common.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errMissing.Error())
}

func TestSignIn_StoreFailure(t *testing.T) {
	db, _ := newSQLMockDB(t)
	m := repotest.NewManager()
	m.Err = errors.New("connection refused")
	s := newAuthService(t, db, m)

	_, err := s.SignIn(context.Background(), "a@x.com", "secret123")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestChangePassword(t *testing.T) {
	db, mock := newSQLMockDB(t)
	s := newAuthService(t, db, repotest.NewManager())
	u := signUp(t, s, mock, sample)

	_, err := s.ChangePassword(context.Background(), u.ID, PasswordChange{Current: "secret123", New: "secret123"})
	require.ErrorIs(t, err, common.ErrSamePassword)

	_, err = s.ChangePassword(context.Background(), u.ID, PasswordChange{Current: "nope-nope", New: "brandnew1"})
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	confirm := "different1"
	_, err = s.ChangePassword(context.Background(), u.ID, PasswordChange{Current: "secret123", New: "brandnew1", Confirm: &confirm})
	require.ErrorIs(t, err, common.ErrPasswordMismatch)

	_, err = s.ChangePassword(context.Background(), u.ID, PasswordChange{Current: "", New: ""})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "currentPassword")
	assert.Contains(t, ve.Fields, "newPassword")

	token, err := s.ChangePassword(context.Background(), u.ID, PasswordChange{Current: "secret123", New: "brandnew1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = s.SignIn(context.Background(), "a@x.com", "secret123")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = s.SignIn(context.Background(), "a@x.com", "brandnew1")
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := repotest.NewManager()
	s := newAuthService(t, db, m)
	in := sample
	in.Roles = []string{"ADMIN"}
	u := signUp(t, s, mock, in)

	token, err := s.IssueToken(context.Background(), u)
	require.NoError(t, err)

	p, err := s.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, u.ID, p.UserID)
	assert.True(t, p.Roles.Contains(models.RoleAdmin))

	_, err = s.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, common.ErrTokenMalformed)

	s.now = func() time.Time { return t0.Add(2 * time.Hour) }
	_, err = s.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, common.ErrTokenExpired)
	s.now = func() time.Time { return t0 }

	ghost, err := s.codec.Issue("ghost@x.com", t0)
	require.NoError(t, err)
	p, err = s.Authenticate(context.Background(), ghost)
	require.NoError(t, err)
	assert.Nil(t, p)

	m.Err = errors.New("down")
	_, err = s.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestRoles(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newAuthService(t, db, repotest.NewManager())

	names, err := s.Roles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN", "USER"}, names)
}
