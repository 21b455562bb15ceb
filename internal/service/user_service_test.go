package service

import (
	"context"
	"testing"
	"time"

	"deskbot-go/pkg/hash"
	"deskbot-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	userRepo      *fakeUserRepo
	sessionRepo   *fakeSessionRepo
	blacklistRepo *fakeBlacklistRepo
	llmClient     *fakeLLM
	jwtManager    *token.JWTManager
	svc           UserService
}

// accessTokenHours 是测试用 JWT 管理器的 access token 有效期（小时）。
const accessTokenHours = 48

func newUserFixtureFull() *userFixture {
	f := &userFixture{
		userRepo:      &fakeUserRepo{},
		sessionRepo:   newFakeSessionRepo(),
		blacklistRepo: newFakeBlacklistRepo(),
		llmClient:     &fakeLLM{},
		jwtManager:    token.NewJWTManager("test-secret", accessTokenHours, 7),
	}
	f.svc = NewUserService(f.userRepo, &fakeLoginLogRepo{}, f.sessionRepo, f.blacklistRepo, f.jwtManager, f.llmClient)
	return f
}

func newUserFixture() (*fakeUserRepo, UserService, *token.JWTManager) {
	f := newUserFixtureFull()
	return f.userRepo, f.svc, f.jwtManager
}

func TestRegisterHashesPassword(t *testing.T) {
	userRepo, svc, _ := newUserFixture()

	user, err := svc.Register("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "s3cret", user.Password)
	assert.True(t, hash.CheckPasswordHash("s3cret", user.Password))
	require.Len(t, userRepo.users, 1)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	_, svc, _ := newUserFixture()

	_, err := svc.Register("alice", "one")
	require.NoError(t, err)
	_, err = svc.Register("alice", "two")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	_, svc, _ := newUserFixture()
	_, err := svc.Register("", "pw")
	assert.Error(t, err)
	_, err = svc.Register("bob", "")
	assert.Error(t, err)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	_, svc, jwtManager := newUserFixture()

	user, err := svc.Register("alice", "pw")
	require.NoError(t, err)

	refresh, err := jwtManager.GenerateRefreshToken(user.ID, user.Username)
	require.NoError(t, err)

	pair, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := jwtManager.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	_, svc, _ := newUserFixture()
	_, err := svc.RefreshToken("not-a-token")
	assert.Error(t, err)
}

func TestLogoutBlacklistsForRemainingTokenLifetime(t *testing.T) {
	f := newUserFixtureFull()

	user, err := f.svc.Register("alice", "pw")
	require.NoError(t, err)
	accessToken, err := f.jwtManager.GenerateToken(user.ID, user.Username)
	require.NoError(t, err)
	require.NoError(t, f.sessionRepo.SetActiveWorkspace(context.Background(), token.SessionKey(accessToken), 3))

	require.NoError(t, f.svc.Logout(context.Background(), user.ID, accessToken))

	// 黑名单条目的 TTL 跟随 token 的剩余有效期，token 失效前不会先失效
	ttl, ok := f.blacklistRepo.entries[accessToken]
	require.True(t, ok)
	assert.Greater(t, ttl, time.Duration(accessTokenHours-1)*time.Hour)
	assert.LessOrEqual(t, ttl, time.Duration(accessTokenHours)*time.Hour)

	// 会话状态被清空，模型会话按用户前缀丢弃
	active, err := f.sessionRepo.GetActiveWorkspace(context.Background(), token.SessionKey(accessToken))
	require.NoError(t, err)
	assert.Zero(t, active)
	assert.Contains(t, f.llmClient.resetPrefixes, "u1:")
}

func TestLogoutSkipsBlacklistForExpiredToken(t *testing.T) {
	f := newUserFixtureFull()

	user, err := f.svc.Register("alice", "pw")
	require.NoError(t, err)

	// 另一个密钥签出的 token 等价于无法验证的过期 token
	foreign := token.NewJWTManager("other-secret", 1, 7)
	badToken, err := foreign.GenerateToken(user.ID, user.Username)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), user.ID, badToken))
	assert.Empty(t, f.blacklistRepo.entries)
	assert.Contains(t, f.llmClient.resetPrefixes, "u1:")
}
