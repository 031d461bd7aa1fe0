package service

import (
	"context"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/jackc/pgx/v5"
)

type fakeUserRepo struct {
	users   map[int64]*domain.User
	deleted []int64
	roles   map[int64]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[int64]*domain.User),
		roles: make(map[int64]string),
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, _ pgx.Tx, user *domain.User) error {
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, userID int64) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context, _, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateUserRole(_ context.Context, userID int64, role string) error {
	if _, ok := f.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	f.roles[userID] = role
	return nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, userID int64) error {
	if _, ok := f.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, userID)
	f.deleted = append(f.deleted, userID)
	return nil
}

func (f *fakeUserRepo) CountUsers(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) ListEmails(_ context.Context) ([]string, error) {
	var out []string
	for _, u := range f.users {
		out = append(out, u.Email)
	}
	return out, nil
}

type fakeCartRepo struct {
	items map[int64][]domain.CartItem
	// product ids carted by the user but no longer visible in the
	// catalog, returned by ListProductIDs and omitted from GetItems
	unavailable map[int64][]int64
	cleared     []int64
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		items:       make(map[int64][]domain.CartItem),
		unavailable: make(map[int64][]int64),
	}
}

func (f *fakeCartRepo) AddItem(_ context.Context, userID, productID int64, quantity int32) error {
	for i, item := range f.items[userID] {
		if item.ProductID == productID {
			f.items[userID][i].Quantity += quantity
			return nil
		}
	}
	f.items[userID] = append(f.items[userID], domain.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (f *fakeCartRepo) RemoveItem(_ context.Context, userID, productID int64) error {
	items := f.items[userID]
	for i, item := range items {
		if item.ProductID == productID {
			f.items[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (f *fakeCartRepo) GetItems(_ context.Context, userID int64) ([]domain.CartItem, error) {
	return f.items[userID], nil
}

func (f *fakeCartRepo) ListProductIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for _, item := range f.items[userID] {
		ids = append(ids, item.ProductID)
	}
	return append(ids, f.unavailable[userID]...), nil
}

func (f *fakeCartRepo) Clear(_ context.Context, userID int64) error {
	delete(f.items, userID)
	delete(f.unavailable, userID)
	f.cleared = append(f.cleared, userID)
	return nil
}

func (f *fakeCartRepo) ClearCart(_ context.Context, _ pgx.Tx, userID int64) error {
	delete(f.items, userID)
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeProductRepo struct {
	products map[int64]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*domain.Product)}
}

func (f *fakeProductRepo) CreateProduct(_ context.Context, _ pgx.Tx, product *domain.Product) error {
	product.ID = int64(len(f.products) + 1)
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) GetProductByID(_ context.Context, productID int64) (*domain.Product, error) {
	p, ok := f.products[productID]
	if !ok || !p.Active {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) ListProducts(_ context.Context, _ domain.ProductFilter) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) UpdateProduct(_ context.Context, productID int64, _ *domain.UpdateProductRequest) error {
	if _, ok := f.products[productID]; !ok {
		return repository.ErrProductNotFound
	}
	return nil
}

func (f *fakeProductRepo) DeactivateProduct(_ context.Context, productID int64) error {
	p, ok := f.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Active = false
	return nil
}

func (f *fakeProductRepo) GetTracks(_ context.Context, productID int64) ([]domain.Track, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p.Tracks, nil
}

func (f *fakeProductRepo) CountProducts(_ context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

type fakeOrderRepo struct {
	stale        []int64
	transactions map[string]*domain.PaymentTransaction
	statuses     map[int64]domain.PaymentStatus
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		transactions: make(map[string]*domain.PaymentTransaction),
		statuses:     make(map[int64]domain.PaymentStatus),
	}
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, _ pgx.Tx, order *domain.Order) error {
	order.ID = int64(len(f.statuses) + 1)
	f.statuses[order.ID] = order.PaymentStatus
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, orderID int64) (*domain.Order, error) {
	status, ok := f.statuses[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &domain.Order{ID: orderID, PaymentStatus: status}, nil
}

func (f *fakeOrderRepo) ListOrdersByUser(_ context.Context, _ int64) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ListAllOrders(_ context.Context, _, _ int) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) TransitionStatus(_ context.Context, _ pgx.Tx, orderID int64, from, to domain.PaymentStatus) (bool, error) {
	if f.statuses[orderID] != from {
		return false, nil
	}
	f.statuses[orderID] = to
	return true, nil
}

func (f *fakeOrderRepo) ListStalePending(_ context.Context, _ time.Time, _ int) ([]int64, error) {
	return f.stale, nil
}

func (f *fakeOrderRepo) CreateTransaction(_ context.Context, _ pgx.Tx, txn *domain.PaymentTransaction) error {
	f.transactions[txn.SessionID] = txn
	return nil
}

func (f *fakeOrderRepo) GetTransactionBySession(_ context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	txn, ok := f.transactions[sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return txn, nil
}

func (f *fakeOrderRepo) UpdateTransactionStatus(_ context.Context, _ pgx.Tx, sessionID, status string) error {
	txn, ok := f.transactions[sessionID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	txn.Status = status
	return nil
}

func (f *fakeOrderRepo) InsertGrants(_ context.Context, _ pgx.Tx, _ []domain.DownloadGrant) error {
	return nil
}

func (f *fakeOrderRepo) GetGrantsByOrder(_ context.Context, _ int64) ([]domain.DownloadGrant, error) {
	return nil, nil
}

func (f *fakeOrderRepo) GetGrantByToken(_ context.Context, _ string) (*domain.DownloadGrant, error) {
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrderRepo) Stats(_ context.Context) (int64, int64, error) {
	return int64(len(f.statuses)), 0, nil
}
