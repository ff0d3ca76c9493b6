package usecase_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
	"social-hub/usecase"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetById(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepo) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	args := m.Called(ctx, userName)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepo) CreateUser(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("GetByUserName", mock.Anything, "alice").
		Return(model.User{ID: 1, UserName: "alice", Password: "hashed"}, nil)

	uc := usecase.NewUserUsecase(repo)
	res := uc.Login(context.Background(), model.ReqLogin{UserName: "alice", Password: "hashed"})

	require.Equal(t, "200", res.ResponseCode)
	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("GetByUserName", mock.Anything, "alice").
		Return(model.User{ID: 1, UserName: "alice", Password: "hashed"}, nil)

	uc := usecase.NewUserUsecase(repo)
	res := uc.Login(context.Background(), model.ReqLogin{UserName: "alice", Password: "wrong"})

	assert.Equal(t, "401", res.ResponseCode)
	assert.Nil(t, res.Data)
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("GetByUserName", mock.Anything, "ghost").
		Return(model.User{}, sql.ErrNoRows)

	uc := usecase.NewUserUsecase(repo)
	res := uc.Login(context.Background(), model.ReqLogin{UserName: "ghost", Password: "x"})

	assert.Equal(t, "401", res.ResponseCode)
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("GetByUserName", mock.Anything, "bob").Return(model.User{}, sql.ErrNoRows)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.UserName == "bob" && u.Name == "Bob"
	})).Return(nil)

	uc := usecase.NewUserUsecase(repo)
	res := uc.Register(context.Background(), model.ReqRegister{Name: "Bob", UserName: "bob", Password: "hashed"})

	assert.Equal(t, "200", res.ResponseCode)
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateUser(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("GetByUserName", mock.Anything, "bob").
		Return(model.User{ID: 2, UserName: "bob"}, nil)

	uc := usecase.NewUserUsecase(repo)
	res := uc.Register(context.Background(), model.ReqRegister{Name: "Bob", UserName: "bob", Password: "hashed"})

	assert.Equal(t, "400", res.ResponseCode)
	repo.AssertNotCalled(t, "CreateUser")
}
