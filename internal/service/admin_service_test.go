package service

import (
	"context"
	"testing"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminServiceForTest(userRepo repository.UserRepository) AdminService {
	return NewAdminService(nil, zap.NewNop(), userRepo, nil, nil, nil)
}

func TestDeleteUser_SelfDeleteForbidden(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.users[1] = &domain.User{ID: 1, Email: "admin@store.test", Role: domain.RoleAdmin}

	svc := newAdminServiceForTest(userRepo)

	err := svc.DeleteUser(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrSelfDeleteForbidden)
	require.Empty(t, userRepo.deleted)
}

func TestDeleteUser_OtherUser(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.users[1] = &domain.User{ID: 1, Email: "admin@store.test", Role: domain.RoleAdmin}
	userRepo.users[2] = &domain.User{ID: 2, Email: "customer@store.test", Role: domain.RoleUser}

	svc := newAdminServiceForTest(userRepo)

	err := svc.DeleteUser(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, userRepo.deleted)
}

func TestDeleteUser_NotFound(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.users[1] = &domain.User{ID: 1, Role: domain.RoleAdmin}

	svc := newAdminServiceForTest(userRepo)

	err := svc.DeleteUser(context.Background(), 1, 99)
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUpdateUserRole(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.users[2] = &domain.User{ID: 2, Role: domain.RoleUser}

	svc := newAdminServiceForTest(userRepo)

	require.NoError(t, svc.UpdateUserRole(context.Background(), 2, domain.RoleAdmin))
	require.Equal(t, domain.RoleAdmin, userRepo.roles[2])

	require.ErrorIs(
		t,
		svc.UpdateUserRole(context.Background(), 99, domain.RoleAdmin),
		repository.ErrUserNotFound,
	)
}
