package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"deskbot-go/internal/model"
	"deskbot-go/pkg/log"
	"deskbot-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

type stubUserRepo struct {
	user *model.User
}

func (s *stubUserRepo) Create(user *model.User) error { return nil }

func (s *stubUserRepo) FindByUsername(username string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(userID uint) (*model.User, error) {
	if s.user != nil && s.user.ID == userID {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubBlacklist struct {
	blacklisted map[string]bool
	err         error
}

func (s *stubBlacklist) Add(ctx context.Context, tokenString string, ttl time.Duration) error {
	if s.blacklisted == nil {
		s.blacklisted = make(map[string]bool)
	}
	s.blacklisted[tokenString] = true
	return nil
}

func (s *stubBlacklist) Contains(ctx context.Context, tokenString string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.blacklisted[tokenString], nil
}

func newAuthRouter(t *testing.T, blacklist *stubBlacklist) (*gin.Engine, string) {
	t.Helper()
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	accessToken, err := jwtManager.GenerateToken(7, "alice")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", Auth(jwtManager, &stubUserRepo{user: &model.User{ID: 7, Username: "alice"}}, blacklist),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	return r, accessToken
}

func doRequest(r *gin.Engine, accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsValidToken(t *testing.T) {
	r, accessToken := newAuthRouter(t, &stubBlacklist{})
	assert.Equal(t, http.StatusOK, doRequest(r, accessToken).Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r, _ := newAuthRouter(t, &stubBlacklist{})
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "").Code)
}

func TestAuthRejectsBlacklistedToken(t *testing.T) {
	blacklist := &stubBlacklist{}
	r, accessToken := newAuthRouter(t, blacklist)
	require.NoError(t, blacklist.Add(context.Background(), accessToken, time.Hour))

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, accessToken).Code)
}

func TestAuthDegradesWhenBlacklistUnavailable(t *testing.T) {
	// 黑名单后端故障时降级为仅签名校验：有效 token 放行，签名仍然兜底
	r, accessToken := newAuthRouter(t, &stubBlacklist{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, doRequest(r, accessToken).Code)

	forged := token.NewJWTManager("other-secret", 1, 7)
	bad, err := forged.GenerateToken(7, "alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, bad).Code)
}
