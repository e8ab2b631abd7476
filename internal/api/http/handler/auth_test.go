package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mauth-dev/mauth/internal/api/http/handler"
	servermocks "github.com/mauth-dev/mauth/internal/mocks"
	"github.com/mauth-dev/mauth/internal/model"
	"github.com/mauth-dev/mauth/internal/service"
	"github.com/mauth-dev/mauth/internal/testutil"
)

type magicLinkServiceMock struct {
	mock.Mock
}

func (m *magicLinkServiceMock) Issue(ctx context.Context, email string, clientID uuid.UUID) (string, model.Client, error) {
	args := m.Called(ctx, email, clientID)
	return args.String(0), args.Get(1).(model.Client), args.Error(2)
}

func (m *magicLinkServiceMock) Redeem(ctx context.Context, token string) (model.MagicLinkEntry, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.MagicLinkEntry), args.Error(1)
}

type tokenServiceMock struct {
	mock.Mock
}

func (m *tokenServiceMock) IssuePair(ctx context.Context, userID, clientID uuid.UUID, prevRefreshToken string) (model.TokenPair, error) {
	args := m.Called(ctx, userID, clientID, prevRefreshToken)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *tokenServiceMock) Verify(ctx context.Context, token string) (service.VerifyResult, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(service.VerifyResult), args.Error(1)
}

func (m *tokenServiceMock) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	args := m.Called(ctx, presented)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *tokenServiceMock) RevokeOne(ctx context.Context, presented string) error {
	args := m.Called(ctx, presented)
	return args.Error(0)
}

func (m *tokenServiceMock) RevokeAll(ctx context.Context, userID, clientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, clientID)
	return args.Get(0).(int64), args.Error(1)
}

func newAuthHandler(magicLinks *magicLinkServiceMock, tokens *tokenServiceMock, sender *servermocks.EmailSender) *handler.Auth {
	return handler.NewAuth(magicLinks, tokens, sender, "http://localhost:8080/", false, testutil.MakeNoopLogger())
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestAuth_RequestMagicLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clientID := uuid.New()

	magicLinks := &magicLinkServiceMock{}
	tokens := &tokenServiceMock{}
	sender := &servermocks.EmailSender{}

	magicLinks.On("Issue", mock.Anything, "user@example.com", clientID).
		Return("tok-1", model.Client{ID: clientID, Name: "acme"}, nil).Once()

	var sentHTML string
	sender.On("Send", mock.Anything, "user@example.com", mock.AnythingOfType("string"),
		mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentHTML = args.String(3) }).
		Return("msg-1", nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/magic-link/request",
		gin.H{"email": "user@example.com", "id": clientID.String()})

	newAuthHandler(magicLinks, tokens, sender).RequestMagicLink(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Check your inbox")
	// The mailed link carries the issued token back to the verify route.
	assert.Contains(t, sentHTML, "http://localhost:8080/auth/magic-link/verify?token=tok-1")

	magicLinks.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestAuth_RequestMagicLink_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/magic-link/request", gin.H{"email": "user@example.com"})

	newAuthHandler(&magicLinkServiceMock{}, &tokenServiceMock{}, &servermocks.EmailSender{}).RequestMagicLink(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_RequestMagicLink_MalformedClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/magic-link/request",
		gin.H{"email": "user@example.com", "id": "not-a-uuid"})

	newAuthHandler(&magicLinkServiceMock{}, &tokenServiceMock{}, &servermocks.EmailSender{}).RequestMagicLink(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_RequestMagicLink_UnknownClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clientID := uuid.New()

	magicLinks := &magicLinkServiceMock{}
	magicLinks.On("Issue", mock.Anything, "user@example.com", clientID).
		Return("", model.Client{}, model.ErrNotFound).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/magic-link/request",
		gin.H{"email": "user@example.com", "id": clientID.String()})

	newAuthHandler(magicLinks, &tokenServiceMock{}, &servermocks.EmailSender{}).RequestMagicLink(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_RequestMagicLink_MailFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clientID := uuid.New()

	magicLinks := &magicLinkServiceMock{}
	sender := &servermocks.EmailSender{}

	magicLinks.On("Issue", mock.Anything, "user@example.com", clientID).
		Return("tok-1", model.Client{ID: clientID, Name: "acme"}, nil).Once()
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/magic-link/request",
		gin.H{"email": "user@example.com", "id": clientID.String()})

	newAuthHandler(magicLinks, &tokenServiceMock{}, sender).RequestMagicLink(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuth_VerifyMagicLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entry := model.MagicLinkEntry{UserID: uuid.New(), ClientID: uuid.New()}
	pair := model.TokenPair{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		RefreshExpiresAt: time.Now().Add(model.RefreshTokenTTL),
	}

	magicLinks := &magicLinkServiceMock{}
	tokens := &tokenServiceMock{}

	magicLinks.On("Redeem", mock.Anything, "tok-1").Return(entry, nil).Once()
	tokens.On("IssuePair", mock.Anything, entry.UserID, entry.ClientID, "").Return(pair, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/magic-link/verify?token=tok-1", nil)

	newAuthHandler(magicLinks, tokens, &servermocks.EmailSender{}).VerifyMagicLink(c)

	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	access := cookieByName(res, "accessToken")
	require.NotNil(t, access)
	assert.Equal(t, "access-1", access.Value)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := cookieByName(res, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-1", refresh.Value)
	assert.True(t, refresh.HttpOnly)
}

func TestAuth_VerifyMagicLink_TokenFromBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entry := model.MagicLinkEntry{UserID: uuid.New(), ClientID: uuid.New()}

	magicLinks := &magicLinkServiceMock{}
	tokens := &tokenServiceMock{}

	magicLinks.On("Redeem", mock.Anything, "tok-1").Return(entry, nil).Once()
	tokens.On("IssuePair", mock.Anything, entry.UserID, entry.ClientID, "").
		Return(model.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/magic-link/verify", gin.H{"token": "tok-1"})

	newAuthHandler(magicLinks, tokens, &servermocks.EmailSender{}).VerifyMagicLink(c)

	require.Equal(t, http.StatusOK, w.Code)
	magicLinks.AssertExpectations(t)
}

func TestAuth_VerifyMagicLink_MissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/magic-link/verify", nil)

	newAuthHandler(&magicLinkServiceMock{}, &tokenServiceMock{}, &servermocks.EmailSender{}).VerifyMagicLink(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_VerifyMagicLink_UsedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	magicLinks := &magicLinkServiceMock{}
	magicLinks.On("Redeem", mock.Anything, "tok-1").
		Return(model.MagicLinkEntry{}, model.ErrLinkInvalid).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/magic-link/verify?token=tok-1", nil)

	newAuthHandler(magicLinks, &tokenServiceMock{}, &servermocks.EmailSender{}).VerifyMagicLink(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_VerifyToken_BearerHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	lastLogin := time.Now().Add(-time.Hour)

	tokens := &tokenServiceMock{}
	tokens.On("Verify", mock.Anything, "signed-token").Return(service.VerifyResult{
		Claims: model.TokenClaims{
			UserID:    userID.String(),
			KID:       "kid-1",
			TokenType: model.TokenTypeAccess,
			Issuer:    "acme",
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(model.AccessTokenTTL),
		},
		User:   model.User{ID: userID, Email: "user@example.com", LastLogin: &lastLogin},
		Client: model.Client{Name: "acme"},
	}, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/verify-token", nil)
	c.Request.Header.Set("Authorization", "Bearer signed-token")

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).VerifyToken(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Valid   bool `json:"valid"`
		Payload struct {
			UserID string `json:"userId"`
			KID    string `json:"kid"`
			Type   string `json:"type"`
			Iss    string `json:"iss"`
		} `json:"payload"`
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Client struct {
			Name string `json:"name"`
		} `json:"client"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Equal(t, userID.String(), body.Payload.UserID)
	assert.Equal(t, "kid-1", body.Payload.KID)
	assert.Equal(t, model.TokenTypeAccess, body.Payload.Type)
	assert.Equal(t, "acme", body.Payload.Iss)
	assert.Equal(t, "user@example.com", body.User.Email)
	assert.Equal(t, "acme", body.Client.Name)
}

func TestAuth_VerifyToken_CookieFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &tokenServiceMock{}
	tokens.On("Verify", mock.Anything, "cookie-token").Return(service.VerifyResult{
		Claims: model.TokenClaims{UserID: uuid.NewString(), TokenType: model.TokenTypeAccess},
	}, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/verify-token", nil)
	c.Request.AddCookie(&http.Cookie{Name: "accessToken", Value: "cookie-token"})

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).VerifyToken(c)

	require.Equal(t, http.StatusOK, w.Code)
	tokens.AssertExpectations(t)
}

func TestAuth_VerifyToken_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/verify-token", nil)

	newAuthHandler(&magicLinkServiceMock{}, &tokenServiceMock{}, &servermocks.EmailSender{}).VerifyToken(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_VerifyToken_Invalid(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &tokenServiceMock{}
	tokens.On("Verify", mock.Anything, "bad").Return(service.VerifyResult{}, model.ErrTokenInvalid).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/verify-token", nil)
	c.Request.Header.Set("Authorization", "Bearer bad")

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).VerifyToken(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestAuth_RefreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pair := model.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}

	tokens := &tokenServiceMock{}
	tokens.On("Refresh", mock.Anything, "refresh-1").Return(pair, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	c.Request.AddCookie(&http.Cookie{Name: "refreshToken", Value: "refresh-1"})

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).RefreshToken(c)

	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	refresh := cookieByName(res, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-2", refresh.Value)
}

func TestAuth_RefreshToken_MissingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)

	newAuthHandler(&magicLinkServiceMock{}, &tokenServiceMock{}, &servermocks.EmailSender{}).RefreshToken(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_RefreshToken_Replayed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &tokenServiceMock{}
	tokens.On("Refresh", mock.Anything, "stale").Return(model.TokenPair{}, model.ErrTokenForbidden).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	c.Request.AddCookie(&http.Cookie{Name: "refreshToken", Value: "stale"})

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).RefreshToken(c)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_RevokeToken_Single(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &tokenServiceMock{}
	tokens.On("RevokeOne", mock.Anything, "refresh-1").Return(nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/revoke-token", gin.H{})
	c.Request.AddCookie(&http.Cookie{Name: "refreshToken", Value: "refresh-1"})

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).RevokeToken(c)

	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	refresh := cookieByName(res, "refreshToken")
	require.NotNil(t, refresh)
	assert.Empty(t, refresh.Value)
	assert.Less(t, refresh.MaxAge, 0)
}

func TestAuth_RevokeToken_All(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	clientID := uuid.New()

	tokens := &tokenServiceMock{}
	tokens.On("Verify", mock.Anything, "refresh-1").Return(service.VerifyResult{
		Claims: model.TokenClaims{UserID: userID.String(), TokenType: model.TokenTypeRefresh},
		Client: model.Client{ID: clientID},
	}, nil).Once()
	tokens.On("RevokeAll", mock.Anything, userID, clientID).Return(int64(4), nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/revoke-token", gin.H{"revokeAll": true})
	c.Request.AddCookie(&http.Cookie{Name: "refreshToken", Value: "refresh-1"})

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).RevokeToken(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tokensRevoked":4`)
	tokens.AssertExpectations(t)
}

func TestAuth_RevokeToken_AlreadyRevoked(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := &tokenServiceMock{}
	tokens.On("RevokeOne", mock.Anything, "refresh-1").Return(model.ErrTokenRevoked).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/revoke-token", gin.H{})
	c.Request.AddCookie(&http.Cookie{Name: "refreshToken", Value: "refresh-1"})

	newAuthHandler(&magicLinkServiceMock{}, tokens, &servermocks.EmailSender{}).RevokeToken(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_RevokeToken_MissingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/auth/revoke-token", gin.H{})

	newAuthHandler(&magicLinkServiceMock{}, &tokenServiceMock{}, &servermocks.EmailSender{}).RevokeToken(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
