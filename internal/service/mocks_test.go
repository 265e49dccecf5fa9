package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/gregory1175/bad-server/internal/domain/model"
	"github.com/gregory1175/bad-server/internal/repository"
)

// Моки репозиториев с функциональными полями: тест задаёт
// только те методы, которые ожидает вызвать.

type mockOrderRepo struct {
	createFn       func(ctx context.Context, o *model.Order, productIDs []string) error
	getByNumberFn  func(ctx context.Context, number int64) (*model.Order, error)
	searchFn       func(ctx context.Context, params repository.OrderSearchParams) ([]*model.Order, int, error)
	updateStatusFn func(ctx context.Context, number int64, status string) (*model.Order, error)
	deleteFn       func(ctx context.Context, number int64) (*model.Order, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, o *model.Order, productIDs []string) error {
	return m.createFn(ctx, o, productIDs)
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, number int64) (*model.Order, error) {
	return m.getByNumberFn(ctx, number)
}

func (m *mockOrderRepo) Search(ctx context.Context, params repository.OrderSearchParams) ([]*model.Order, int, error) {
	return m.searchFn(ctx, params)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, number int64, status string) (*model.Order, error) {
	return m.updateStatusFn(ctx, number, status)
}

func (m *mockOrderRepo) Delete(ctx context.Context, number int64) (*model.Order, error) {
	return m.deleteFn(ctx, number)
}

type mockProductRepo struct {
	createFn   func(ctx context.Context, p *model.Product) error
	getByIDFn  func(ctx context.Context, id string) (*model.Product, error)
	getByIDsFn func(ctx context.Context, ids []string) ([]*model.Product, error)
	listFn     func(ctx context.Context, limit, offset int) ([]*model.Product, error)
	updateFn   func(ctx context.Context, p *model.Product) error
	deleteFn   func(ctx context.Context, id string) error
	countFn    func(ctx context.Context) (int, error)
}

func (m *mockProductRepo) Create(ctx context.Context, p *model.Product) error {
	return m.createFn(ctx, p)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockProductRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	return m.getByIDsFn(ctx, ids)
}

func (m *mockProductRepo) List(ctx context.Context, limit, offset int) ([]*model.Product, error) {
	return m.listFn(ctx, limit, offset)
}

func (m *mockProductRepo) Update(ctx context.Context, p *model.Product) error {
	return m.updateFn(ctx, p)
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockProductRepo) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

type mockCustomerRepo struct {
	createFn     func(ctx context.Context, c *model.Customer) error
	getByIDFn    func(ctx context.Context, id string) (*model.Customer, error)
	getByEmailFn func(ctx context.Context, email string) (*model.Customer, error)
	listFn       func(ctx context.Context, limit, offset int) ([]*model.Customer, error)
	updateFn     func(ctx context.Context, c *model.Customer) error
	deleteFn     func(ctx context.Context, id string) error
	countFn      func(ctx context.Context) (int, error)
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	return m.createFn(ctx, c)
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockCustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return m.getByEmailFn(ctx, email)
}

func (m *mockCustomerRepo) List(ctx context.Context, limit, offset int) ([]*model.Customer, error) {
	return m.listFn(ctx, limit, offset)
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	return m.updateFn(ctx, c)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockCustomerRepo) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

type mockRefreshTokenRepo struct {
	saveFn             func(ctx context.Context, t *repository.RefreshToken) error
	getFn              func(ctx context.Context, token string) (*repository.RefreshToken, error)
	deleteFn           func(ctx context.Context, token string) error
	deleteByCustomerFn func(ctx context.Context, customerID string) error
	deleteExpiredFn    func(ctx context.Context) (int64, error)
}

func (m *mockRefreshTokenRepo) Save(ctx context.Context, t *repository.RefreshToken) error {
	return m.saveFn(ctx, t)
}

func (m *mockRefreshTokenRepo) Get(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return m.getFn(ctx, token)
}

func (m *mockRefreshTokenRepo) Delete(ctx context.Context, token string) error {
	return m.deleteFn(ctx, token)
}

func (m *mockRefreshTokenRepo) DeleteByCustomer(ctx context.Context, customerID string) error {
	return m.deleteByCustomerFn(ctx, customerID)
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return m.deleteExpiredFn(ctx)
}

// fakeTxRunner вызывает функцию без настоящей транзакции.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
