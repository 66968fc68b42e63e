package auth

import "context"

// UserDirectoryAdapter exposes user lookups to the notifications package
// without a package cycle.
type UserDirectoryAdapter struct {
	repo Repository
}

func NewUserDirectoryAdapter(repo Repository) *UserDirectoryAdapter {
	return &UserDirectoryAdapter{repo: repo}
}

func (a *UserDirectoryAdapter) UserEmail(ctx context.Context, userID string) (string, error) {
	user, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
