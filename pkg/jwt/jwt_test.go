package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

func TestManager(t *testing.T) {
	m := NewManager("test-secret", 2*time.Hour, 7*24*time.Hour)

	t.Run("生成并解析Access Token", func(t *testing.T) {
		pair, err := m.GenerateToken(42, "zhangsan", "张三")
		require.NoError(t, err)
		assert.EqualValues(t, 7200, pair.ExpiresIn)

		claims, err := m.ParseToken(pair.AccessToken)
		require.NoError(t, err)
		assert.EqualValues(t, 42, claims.UserID)
		assert.Equal(t, "zhangsan", claims.Username)
		assert.Equal(t, "张三", claims.DisplayName)
		assert.Equal(t, Issuer, claims.Issuer)
		assert.Equal(t, "42", claims.Subject)
	})

	t.Run("Refresh Token不能用于鉴权", func(t *testing.T) {
		pair, err := m.GenerateToken(1, "lisi", "李四")
		require.NoError(t, err)

		_, err = m.ParseToken(pair.RefreshToken)
		assert.Equal(t, apperrors.ErrInvalidToken, err)
	})

	t.Run("刷新Access Token", func(t *testing.T) {
		pair, err := m.GenerateToken(1, "lisi", "李四")
		require.NoError(t, err)

		access, err := m.RefreshAccessToken(pair.RefreshToken)
		require.NoError(t, err)

		claims, err := m.ParseToken(access)
		require.NoError(t, err)
		assert.Equal(t, "lisi", claims.Username)

		_, err = m.RefreshAccessToken(pair.AccessToken)
		assert.Equal(t, apperrors.ErrInvalidToken, err)
	})

	t.Run("密钥不匹配", func(t *testing.T) {
		pair, err := NewManager("other-secret", time.Hour, time.Hour).GenerateToken(1, "a", "")
		require.NoError(t, err)

		_, err = m.ParseToken(pair.AccessToken)
		assert.Equal(t, apperrors.ErrInvalidToken, err)
	})

	t.Run("过期", func(t *testing.T) {
		expired := NewManager("test-secret", time.Hour, time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		pair, err := expired.GenerateToken(1, "a", "")
		require.NoError(t, err)

		_, err = m.ParseToken(pair.AccessToken)
		assert.Equal(t, apperrors.ErrTokenExpired, err)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := m.ParseToken("not-a-token")
		assert.Equal(t, apperrors.ErrInvalidToken, err)
	})
}
