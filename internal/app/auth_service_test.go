package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

func TestRegisterRoles(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})

	teacher := f.register("Tara", domain.RoleTeacher)
	assert.Equal(t, domain.VerificationPending, teacher.VerificationStatus)
	student := f.student("Sam")
	assert.Empty(t, student.VerificationStatus)
	assert.NotEqual(t, []byte(testPassword), student.PasswordHash)

	_, err := f.svc.Auth.Register(f.ctx, app.RegisterInput{Name: "Root", Email: "root@example.com", Password: "x", Role: domain.RoleAdmin})
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err), "admins cannot self-register")

	_, err = f.svc.Auth.Register(f.ctx, app.RegisterInput{Name: "Sam Again", Email: " SAM@example.com ", Password: "x", Role: domain.RoleStudent})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	admin, err := f.svc.Auth.CreateAdmin(f.ctx, "Root", "root@example.com", "root-pass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestLoginCountsAsActivityForStudents(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	student := f.student("Sam")

	res, err := f.svc.Auth.Login(f.ctx, "Sam@Example.com", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token.Value)
	assert.Equal(t, student.ID, res.User.ID)
	require.NotNil(t, res.User.LastLogin)
	require.NotNil(t, res.Streak)
	assert.Equal(t, 1, res.Streak.CurrentStreak)

	res, err = f.svc.Auth.Login(f.ctx, "sam@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streak.CurrentStreak)

	f.advanceDays(1)
	res, err = f.svc.Auth.Login(f.ctx, "sam@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak.CurrentStreak)

	claims, err := f.tokens.Parse(res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, student.ID, claims.UserID())
	assert.Equal(t, domain.RoleStudent, claims.Role)
}

func TestLoginTeacherHasNoStreak(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	f.register("Tara", domain.RoleTeacher)

	res, err := f.svc.Auth.Login(f.ctx, "tara@example.com", testPassword)
	require.NoError(t, err)
	assert.Nil(t, res.Streak)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	f.student("Sam")

	_, err := f.svc.Auth.Login(f.ctx, "sam@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(f.ctx, "nobody@example.com", testPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	f.student("Sam")
	res, err := f.svc.Auth.Login(f.ctx, "sam@example.com", testPassword)
	require.NoError(t, err)
	claims, err := f.tokens.Parse(res.Token.Value)
	require.NoError(t, err)

	revoked, err := f.svc.Auth.IsRevoked(f.ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.Auth.Logout(f.ctx, claims))
	revoked, err = f.svc.Auth.IsRevoked(f.ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, f.svc.Auth.Logout(f.ctx, nil), domain.ErrInvalidToken)
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	student := f.student("Sam")

	updated, err := f.svc.Auth.UpdateProfile(f.ctx, student.ID, "  Samuel ")
	require.NoError(t, err)
	assert.Equal(t, "Samuel", updated.Name)
	_, err = f.svc.Auth.UpdateProfile(f.ctx, student.ID, " ")
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	assert.ErrorIs(t, f.svc.Auth.ChangePassword(f.ctx, student.ID, "wrong", "new-pass"), domain.ErrInvalidCredentials)
	require.NoError(t, f.svc.Auth.ChangePassword(f.ctx, student.ID, testPassword, "new-pass"))
	_, err = f.svc.Auth.Login(f.ctx, "sam@example.com", "new-pass")
	require.NoError(t, err)

	profile, err := f.svc.Auth.Profile(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Samuel", profile.Name)
}

// interleavedUsers runs afterRead once, right after the first lookup by
// e-mail or id returns.
type interleavedUsers struct {
	app.UserRepository
	afterRead func()
}

func (u *interleavedUsers) fire() {
	if hook := u.afterRead; hook != nil {
		u.afterRead = nil
		hook()
	}
}

func (u *interleavedUsers) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := u.UserRepository.GetByEmail(ctx, email)
	u.fire()
	return user, err
}

func (u *interleavedUsers) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := u.UserRepository.GetByID(ctx, id)
	u.fire()
	return user, err
}

func (f *fixture) interleaveUsers() *interleavedUsers {
	users := &interleavedUsers{UserRepository: f.stores.Users}
	f.stores.Users = users
	f.rewire(app.QuizOptions{})
	return users
}

func TestLoginKeepsApprovalMadeDuringLogin(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	teacher := f.register("Tara", domain.RoleTeacher)
	users := f.interleaveUsers()
	users.afterRead = func() {
		_, err := f.svc.Admin.ApproveTeacher(f.ctx, teacher.ID, "")
		require.NoError(t, err)
	}

	res, err := f.svc.Auth.Login(f.ctx, "tara@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, res.User.VerificationStatus)

	stored, err := f.stores.Users.GetByID(f.ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, stored.VerificationStatus)
	assert.Equal(t, "Approved by admin", stored.VerificationNotes)
	assert.NotNil(t, stored.LastLogin)
}

func TestChangePasswordRejectsStaleCurrentPassword(t *testing.T) {
	f := newFixture(t, app.QuizOptions{})
	student := f.student("Sam")
	users := f.interleaveUsers()
	users.afterRead = func() {
		require.NoError(t, f.svc.Auth.ChangePassword(f.ctx, student.ID, testPassword, "second-pass"))
	}

	err := f.svc.Auth.ChangePassword(f.ctx, student.ID, testPassword, "third-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Auth.Login(f.ctx, "sam@example.com", "second-pass")
	assert.NoError(t, err)
	_, err = f.svc.Auth.Login(f.ctx, "sam@example.com", "third-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
