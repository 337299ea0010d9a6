package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// memRepo 内存仓储（仅测试使用）
type memRepo struct {
	users  map[uint]*User
	nextID uint
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[uint]*User)}
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return apperrors.ErrUsernameDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memRepo) Update(_ context.Context, u *User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("注册成功", func(t *testing.T) {
		svc := NewServiceWithCost(newMemRepo(), bcrypt.MinCost)
		u, err := svc.Register(ctx, "alice", "password123", "")
		require.NoError(t, err)

		assert.NotZero(t, u.ID)
		assert.Equal(t, "alice", u.DisplayName)
		assert.True(t, u.Active)
		assert.NotEqual(t, "password123", u.Password)
	})

	t.Run("用户名重复", func(t *testing.T) {
		svc := NewServiceWithCost(newMemRepo(), bcrypt.MinCost)
		_, err := svc.Register(ctx, "alice", "password123", "Alice")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "alice", "password456", "Alice2")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUsernameDuplicate))
	})

	t.Run("参数校验", func(t *testing.T) {
		svc := NewServiceWithCost(newMemRepo(), bcrypt.MinCost)
		tests := []struct {
			name     string
			username string
			password string
			code     int
		}{
			{"用户名太短", "ab", "password123", apperrors.ErrCodeInvalidParams},
			{"用户名含空格", "a b c", "password123", apperrors.ErrCodeInvalidParams},
			{"密码太短", "alice", "pw1", apperrors.ErrCodeWeakPassword},
			{"密码没有数字", "alice", "passwordonly", apperrors.ErrCodeWeakPassword},
			{"密码没有字母", "alice", "1234567890", apperrors.ErrCodeWeakPassword},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Register(ctx, tt.username, tt.password, "")
				assert.Equal(t, tt.code, apperrors.CodeOf(err))
			})
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewServiceWithCost(repo, bcrypt.MinCost)
	registered, err := svc.Register(ctx, "bob", "password123", "Bob")
	require.NoError(t, err)

	t.Run("登录成功并记录时间", func(t *testing.T) {
		u, err := svc.Login(ctx, "bob", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
		require.NotNil(t, u.LastLoginAt)

		stored, _ := repo.FindByID(ctx, u.ID)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob", "wrongpass1")
		assert.Equal(t, apperrors.ErrInvalidPassword, err)
	})

	t.Run("用户不存在与密码错误返回相同错误", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "password123")
		assert.Equal(t, apperrors.ErrInvalidPassword, err)
	})

	t.Run("账号停用", func(t *testing.T) {
		u, _ := repo.FindByUsername(ctx, "bob")
		u.Deactivate()
		require.NoError(t, repo.Update(ctx, u))

		_, err := svc.Login(ctx, "bob", "password123")
		assert.Equal(t, ErrAccountDisabled, err)
	})
}
