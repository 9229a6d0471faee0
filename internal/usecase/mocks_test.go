package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockCodeRegistry struct {
	mock.Mock
}

func (that *mockCodeRegistry) Reserve(ctx context.Context, code string) (bool, error) {
	args := that.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (that *mockCodeRegistry) Claim(ctx context.Context, code string) error {
	return that.Called(ctx, code).Error(0)
}

func (that *mockCodeRegistry) Release(ctx context.Context, code string) error {
	return that.Called(ctx, code).Error(0)
}
