package local

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/Rrens/fai-advisor/internal/auth"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/mailer"
	"github.com/Rrens/fai-advisor/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newClient(t *testing.T) (*Client, *MockSender, *[]auth.Event) {
	t.Helper()
	sender := new(MockSender)
	tokens := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, time.Hour, time.Hour)
	c := New(newFakeUsers(), tokens, sender)
	c.cost = bcrypt.MinCost

	events := &[]auth.Event{}
	c.Subscribe(func(e auth.Event) { *events = append(*events, e) })
	return c, sender, events
}

func TestClient_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	c, _, events := newClient(t)

	s, err := c.SignUp(ctx, "Student@Example.com", "Str0ng!pass", "Mona Ali")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "student@example.com", s.User.Email)
	assert.Equal(t, "Mona Ali", s.User.DisplayName)

	_, err = c.SignUp(ctx, "student@example.com", "Other!pass1", "Someone")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Equal(t, "User already registered", auth.Message(err))

	_, err = c.SignIn(ctx, "student@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = c.SignIn(ctx, "nobody@example.com", "Str0ng!pass")
	assert.Equal(t, "Invalid login credentials", auth.Message(err))

	signedIn, err := c.SignIn(ctx, "student@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, signedIn.User.ID)

	require.Len(t, *events, 2)
	assert.Equal(t, auth.SignedIn, (*events)[1].Type)
}

func TestClient_CurrentSessionAndSignOut(t *testing.T) {
	ctx := context.Background()
	c, _, events := newClient(t)

	s, err := c.SignUp(ctx, "student@example.com", "Str0ng!pass", "Mona")
	require.NoError(t, err)

	current, err := c.CurrentSession(ctx, s.AccessToken, s.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, s.User, current.User)
	assert.Equal(t, s.AccessToken, current.AccessToken)

	require.NoError(t, c.SignOut(ctx, s.AccessToken))
	assert.Equal(t, auth.Event{Type: auth.SignedOut, UserID: s.User.ID}, (*events)[len(*events)-1])

	// the revoked access token falls through to a refresh
	refreshed, err := c.CurrentSession(ctx, s.AccessToken, s.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, s.AccessToken, refreshed.AccessToken)
	assert.Equal(t, auth.TokenRefreshed, (*events)[len(*events)-1].Type)

	// refresh tokens are single use
	_, err = c.CurrentSession(ctx, "", s.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.Equal(t, auth.SessionExpired, (*events)[len(*events)-1].Type)
}

func TestClient_PasswordRecovery(t *testing.T) {
	ctx := context.Background()
	c, sender, events := newClient(t)

	_, err := c.SignUp(ctx, "student@example.com", "Str0ng!pass", "Mona")
	require.NoError(t, err)

	var sent mailer.Message
	sender.On("Send", mock.Anything, mock.AnythingOfType("mailer.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(mailer.Message) }).
		Return(nil).Once()

	require.NoError(t, c.RequestPasswordReset(ctx, "student@example.com", "http://localhost:8080/update-password"))
	sender.AssertExpectations(t)
	assert.Equal(t, "student@example.com", sent.To)

	// unknown addresses do not send anything
	require.NoError(t, c.RequestPasswordReset(ctx, "nobody@example.com", "http://localhost:8080/update-password"))
	sender.AssertNumberOfCalls(t, "Send", 1)

	link := regexp.MustCompile(`href="([^"]+)"`).FindStringSubmatch(sent.HTML)
	require.Len(t, link, 2)
	u, err := url.Parse(html.UnescapeString(link[1]))
	require.NoError(t, err)
	assert.Equal(t, "/update-password", u.Path)
	assert.Equal(t, "recovery", u.Query().Get("type"))
	token := u.Query().Get("access_token")

	// an ordinary access token is not a reset link
	signedIn, err := c.SignIn(ctx, "student@example.com", "Str0ng!pass")
	require.NoError(t, err)
	_, err = c.RecoverSession(ctx, signedIn.AccessToken, "")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	recovered, err := c.RecoverSession(ctx, token, "")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", recovered.User.Email)
	assert.Equal(t, auth.PasswordRecovery, (*events)[len(*events)-1].Type)

	require.NoError(t, c.UpdatePassword(ctx, recovered.AccessToken, "N3w!password"))
	assert.Equal(t, auth.UserUpdated, (*events)[len(*events)-1].Type)

	// the reset link works once
	_, err = c.RecoverSession(ctx, token, "")
	assert.Error(t, err)

	_, err = c.SignIn(ctx, "student@example.com", "Str0ng!pass")
	assert.Error(t, err)
	_, err = c.SignIn(ctx, "student@example.com", "N3w!password")
	assert.NoError(t, err)
}
