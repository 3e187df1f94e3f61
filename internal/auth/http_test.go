package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtogether/server/internal/token"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemoryStore()
	service, _ := newTestService(store)

	r := gin.New()
	RegisterRoutes(r.Group("/user"), service)
	r.GET("/protected", Authenticate(service), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.ID.String())
	})
	return r, store
}

func doJSON(r http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + tok}}
}

func TestSignupSigninScenario(t *testing.T) {
	r, _ := newTestRouter(t)

	signup := map[string]string{"email": "a@x.com", "password": "p1", "firstName": "A", "lastName": "X"}

	rr := doJSON(r, http.MethodPost, "/user/signup", signup, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "message")

	rr = doJSON(r, http.MethodPost, "/user/signup", signup, nil)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(r, http.MethodGet, "/user/signin", map[string]string{"email": "a@x.com", "password": "p1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.Access)
	assert.NotEmpty(t, tokens.Refresh)

	rr = doJSON(r, http.MethodGet, "/user/signin", map[string]string{"email": "a@x.com", "password": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSigninFailureResponsesMatch(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := doJSON(r, http.MethodPost, "/user/signup",
		map[string]string{"email": "a@x.com", "password": "p1", "firstName": "A", "lastName": "X"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	wrong := doJSON(r, http.MethodPost, "/user/signin", map[string]string{"email": "a@x.com", "password": "nope"}, nil)
	unknown := doJSON(r, http.MethodPost, "/user/signin", map[string]string{"email": "z@x.com", "password": "p1"}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestSignupMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := doJSON(r, http.MethodPost, "/user/signup", map[string]string{"email": "a@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/user/signup", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupStoreFailureHidesDetail(t *testing.T) {
	r, store := newTestRouter(t)
	store.failWith = assert.AnError

	rr := doJSON(r, http.MethodPost, "/user/signup",
		map[string]string{"email": "a@x.com", "password": "p1", "firstName": "A", "lastName": "X"}, nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
}

func TestRefreshEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(r, http.MethodPost, "/user/signup",
		map[string]string{"email": "a@x.com", "password": "p1", "firstName": "A", "lastName": "X"}, nil)
	rr := doJSON(r, http.MethodGet, "/user/signin", map[string]string{"email": "a@x.com", "password": "p1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	rr = doJSON(r, http.MethodGet, "/user/refresh", map[string]string{"refresh": tokens.Refresh}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var refreshed struct {
		Access string `json:"access"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.Access)

	rr = doJSON(r, http.MethodGet, "/protected", nil, bearer(refreshed.Access))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(r, http.MethodGet, "/user/refresh", map[string]string{"refresh": "not-a-token"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(r, http.MethodGet, "/user/refresh", map[string]string{"refresh": tokens.Access}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthenticateRejectionsAreUniform(t *testing.T) {
	r, store := newTestRouter(t)

	doJSON(r, http.MethodPost, "/user/signup",
		map[string]string{"email": "a@x.com", "password": "p1", "firstName": "A", "lastName": "X"}, nil)
	rr := doJSON(r, http.MethodPost, "/user/signin", map[string]string{"email": "a@x.com", "password": "p1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	userID := store.users["a@x.com"].ID
	expired, _, err := token.NewCodec(testSecret, token.WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	})).Issue(userID, token.PurposeAccess, time.Minute)
	require.NoError(t, err)
	forged, _, err := token.NewCodec("forged-secret-forged-secret-forged").Issue(userID, token.PurposeAccess, time.Hour)
	require.NoError(t, err)
	ghost, _, err := token.NewCodec(testSecret).Issue(uuid.New(), token.PurposeAccess, time.Hour)
	require.NoError(t, err)

	cases := map[string]http.Header{
		"no header":       nil,
		"wrong scheme":    {"Authorization": []string{"Basic " + tokens.Access}},
		"no token":        {"Authorization": []string{"Bearer "}},
		"bare token":      {"Authorization": []string{tokens.Access}},
		"expired token":   bearer(expired),
		"forged token":    bearer(forged),
		"refresh token":   bearer(tokens.Refresh),
		"unknown subject": bearer(ghost),
	}

	var first *httptest.ResponseRecorder
	for name, header := range cases {
		rr := doJSON(r, http.MethodGet, "/protected", nil, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, name)
		if first == nil {
			first = rr
			continue
		}
		assert.Equal(t, first.Body.String(), rr.Body.String(), name)
	}

	rr = doJSON(r, http.MethodGet, "/protected", nil, bearer(tokens.Access))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, userID.String(), rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/protected", nil, http.Header{"Authorization": []string{"bearer " + tokens.Access}})
	assert.Equal(t, http.StatusOK, rr.Code, "scheme is case-insensitive")
}

func TestMeReturnsProfileWithoutHash(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(r, http.MethodPost, "/user/signup",
		map[string]string{"email": "a@x.com", "password": "p1", "firstName": "A", "lastName": "X"}, nil)
	rr := doJSON(r, http.MethodPost, "/user/signin", map[string]string{"email": "a@x.com", "password": "p1"}, nil)

	var tokens struct {
		Access string `json:"access"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	rr = doJSON(r, http.MethodGet, "/user/me", nil, bearer(tokens.Access))
	require.Equal(t, http.StatusOK, rr.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, "a@x.com", me["email"])
	assert.Equal(t, "A", me["firstName"])
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := extractBearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, got, tc.header)
	}
}
