// Package repotest provides an in-memory RepositoryManager for tests of the
// service and transport layers. Transactions are not modelled: repositories
// ignore the DBTX they are bound to.
package repotest

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/categories"
	"github.com/rnbmx/bmxshop/internal/server/repositories/orders"
	"github.com/rnbmx/bmxshop/internal/server/repositories/products"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
	"github.com/rnbmx/bmxshop/internal/server/repositories/reviews"
	"github.com/rnbmx/bmxshop/internal/server/repositories/roles"
	"github.com/rnbmx/bmxshop/internal/server/repositories/users"
)

var _ repomanager.RepositoryManager = (*Manager)(nil)

// Manager holds every table in maps guarded by one mutex.
type Manager struct {
	mu sync.Mutex

	seq        int64
	users      map[int64]*models.User
	roles      models.RoleSet
	categories []models.Category
	products   map[int64]*models.Product
	reviews    map[int64]*models.Review
	orders     map[int64]*models.Order

	// Err, when set, is returned by every repository call.
	Err error
}

// NewManager returns a store seeded with both roles and the default categories.
func NewManager() *Manager {
	return &Manager{
		users:    map[int64]*models.User{},
		roles:    models.NewRoleSet(models.AllRoles...),
		products: map[int64]*models.Product{},
		reviews:  map[int64]*models.Review{},
		orders:   map[int64]*models.Order{},
		categories: []models.Category{
			{ID: 1, Name: "Bici Complete"},
			{ID: 2, Name: "Componenti"},
			{ID: 3, Name: "Abbigliamento"},
			{ID: 4, Name: "Accessori"},
		},
	}
}

func (m *Manager) next() int64 {
	m.seq++
	return m.seq
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return m.Err }

func (m *Manager) Users(dbx.DBTX) users.Repository          { return &userRepo{m} }
func (m *Manager) Roles(dbx.DBTX) roles.Repository          { return &roleRepo{m} }
func (m *Manager) Categories(dbx.DBTX) categories.Repository { return &categoryRepo{m} }
func (m *Manager) Products(dbx.DBTX) products.Repository    { return &productRepo{m} }
func (m *Manager) Reviews(dbx.DBTX) reviews.Repository      { return &reviewRepo{m} }
func (m *Manager) Orders(dbx.DBTX) orders.Repository        { return &orderRepo{m} }

// AddProduct stores p and returns it with its id set.
func (m *Manager) AddProduct(p models.Product) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.next()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = &p
	return p
}

// AddUser stores u as is, roles and password hash included, and returns
// it with its id set.
func (m *Manager) AddUser(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.next()
	u.CreatedAt = time.Now()
	m.users[u.ID] = copyUser(u)
	return u
}

// User returns a copy of the stored user with the given email.
func (m *Manager) User(email string) (*models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), true
		}
	}
	return nil, false
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Roles = models.NewRoleSet(u.Roles.Slice()...)
	return &c
}

type userRepo struct{ m *Manager }

func (r *userRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for _, u := range r.m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, common.ErrAlreadyExists
		}
	}
	user.ID = r.m.next()
	user.CreatedAt = time.Now()
	stored := copyUser(user)
	stored.Roles = models.NewRoleSet()
	r.m.users[user.ID] = stored
	return user, nil
}

func (r *userRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for _, u := range r.m.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *userRepo) List(context.Context) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := make([]*models.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) exists(match func(*models.User) bool) (bool, error) {
	_, err := r.find(match)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return r.exists(func(u *models.User) bool { return u.Email == email })
}

func (r *userRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return r.exists(func(u *models.User) bool { return u.Username == username })
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	cur, ok := r.m.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, u := range r.m.users {
		if id != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return common.ErrAlreadyExists
		}
	}
	next := copyUser(user)
	next.PasswordHash = cur.PasswordHash
	next.Roles = cur.Roles
	next.CreatedAt = cur.CreatedAt
	r.m.users[user.ID] = next
	return nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	u, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *userRepo) SetRoles(_ context.Context, id int64, set models.RoleSet) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	u, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Roles = models.NewRoleSet(set.Slice()...)
	return nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if _, ok := r.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.users, id)
	return nil
}

func (r *userRepo) Count(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.users)), r.m.Err
}

type roleRepo struct{ m *Manager }

func (r *roleRepo) EnsureSeeded(_ context.Context, list []models.Role) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	for _, role := range list {
		r.m.roles[role] = struct{}{}
	}
	return nil
}

func (r *roleRepo) List(context.Context) ([]models.Role, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.roles.Slice(), r.m.Err
}

type categoryRepo struct{ m *Manager }

func (r *categoryRepo) List(context.Context) ([]models.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]models.Category(nil), r.m.categories...), r.m.Err
}

func (r *categoryRepo) Exists(_ context.Context, name string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return false, r.m.Err
	}
	for _, c := range r.m.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *categoryRepo) Count(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.categories)), r.m.Err
}

type productRepo struct{ m *Manager }

func (r *productRepo) filter(match func(*models.Product) bool) ([]models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := []models.Product{}
	for _, p := range r.m.products {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) List(context.Context) ([]models.Product, error) {
	return r.filter(func(*models.Product) bool { return true })
}

func (r *productRepo) ListFeatured(context.Context) ([]models.Product, error) {
	return r.filter(func(p *models.Product) bool { return p.Featured })
}

func (r *productRepo) ListByCategory(_ context.Context, category string) ([]models.Product, error) {
	return r.filter(func(p *models.Product) bool { return p.Category == category })
}

func (r *productRepo) Search(_ context.Context, q string) ([]models.Product, error) {
	q = strings.ToLower(q)
	return r.filter(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Brand), q)
	})
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	p, ok := r.m.products[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r *productRepo) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	stored := r.m.AddProduct(*p)
	return &stored, nil
}

func (r *productRepo) Update(_ context.Context, p *models.Product) (*models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	cur, ok := r.m.products[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	r.m.products[p.ID] = &c
	out := c
	return &out, nil
}

func (r *productRepo) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if _, ok := r.m.products[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.products, id)
	return nil
}

func (r *productRepo) Count(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.products)), r.m.Err
}

type reviewRepo struct{ m *Manager }

func (r *reviewRepo) withAuthor(rv models.Review) models.Review {
	if u, ok := r.m.users[rv.UserID]; ok {
		rv.AuthorName = u.Name
	}
	return rv
}

func (r *reviewRepo) ListByProduct(_ context.Context, productID int64) ([]models.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := []models.Review{}
	for _, rv := range r.m.reviews {
		if rv.ProductID == productID {
			out = append(out, r.withAuthor(*rv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *reviewRepo) GetByID(_ context.Context, id int64) (*models.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	rv, ok := r.m.reviews[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := r.withAuthor(*rv)
	return &out, nil
}

func (r *reviewRepo) Create(_ context.Context, rv *models.Review) (*models.Review, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	c := *rv
	c.ID = r.m.next()
	c.CreatedAt = time.Now()
	r.m.reviews[c.ID] = &c
	out := r.withAuthor(c)
	return &out, nil
}

func (r *reviewRepo) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if _, ok := r.m.reviews[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.reviews, id)
	return nil
}

type orderRepo struct{ m *Manager }

func copyOrder(o *models.Order) models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return c
}

func (r *orderRepo) Create(_ context.Context, o *models.Order) (*models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	o.ID = r.m.next()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		o.Items[i].ID = r.m.next()
		o.Items[i].OrderID = o.ID
	}
	c := copyOrder(o)
	r.m.orders[o.ID] = &c
	return o, nil
}

func (r *orderRepo) GetByID(_ context.Context, id int64) (*models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	o, ok := r.m.orders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

func (r *orderRepo) list(match func(*models.Order) bool) ([]models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := []models.Order{}
	for _, o := range r.m.orders {
		if match(o) {
			c := copyOrder(o)
			c.Items = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *orderRepo) ListByUser(_ context.Context, userID int64) ([]models.Order, error) {
	return r.list(func(o *models.Order) bool { return o.UserID == userID })
}

func (r *orderRepo) ListAll(context.Context) ([]models.Order, error) {
	return r.list(func(*models.Order) bool { return true })
}

func (r *orderRepo) UpdateStatus(_ context.Context, id int64, status models.OrderStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	o, ok := r.m.orders[id]
	if !ok {
		return common.ErrorNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (r *orderRepo) Count(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.orders)), r.m.Err
}
