package application

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	repo "github.com/trade-ham/marketplace-api/internal/domain/repository"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

// memStore is an in-memory Repositories + UnitOfWork. GetByIDForUpdate takes a
// per-product mutex released when the enclosing Do returns, which mirrors a
// row lock. Writes are applied immediately; there is no rollback.
type memStore struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]entity.User
	products      map[int64]entity.Product
	tokens        map[string]entity.RefreshToken
	notifications []entity.Notification
	rowLocks      map[int64]*sync.Mutex

	existsCalls int
	failSave    error
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]entity.User{},
		products: map[int64]entity.Product{},
		tokens:   map[string]entity.RefreshToken{},
		rowLocks: map[int64]*sync.Mutex{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(nickname string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := entity.User{ID: m.id(), Username: "sub-" + nickname, Nickname: nickname, Email: nickname + "@example.com", Role: entity.RoleUser, Provider: entity.ProviderKakao}
	m.users[u.ID] = u
	return &u
}

func (m *memStore) addProduct(sellerID int64, name string) *entity.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	p := entity.Product{ID: id, Name: name, Description: "Description for " + name, Price: 3000, Status: entity.ProductStatusSell, SellerID: sellerID, CreatedAt: base.Add(time.Duration(id) * time.Second)}
	m.products[id] = p
	return &p
}

func (m *memStore) product(id int64) entity.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

func (m *memStore) notificationsFor(userID int64) []entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *memStore) Users() repo.UserRepository                 { return memUsers{m} }
func (m *memStore) Products() repo.ProductRepository           { return memProducts{m: m} }
func (m *memStore) RefreshTokens() repo.RefreshTokenRepository { return memTokens{m} }
func (m *memStore) Notifications() repo.NotificationRepository { return memNotifications{m} }

func (m *memStore) Do(ctx context.Context, fn func(tx repo.Repositories) error) error {
	tx := &memTx{m: m, held: map[int64]*sync.Mutex{}}
	defer tx.release()
	return fn(tx)
}

type memTx struct {
	m    *memStore
	held map[int64]*sync.Mutex
}

func (t *memTx) Users() repo.UserRepository                 { return memUsers{t.m} }
func (t *memTx) Products() repo.ProductRepository           { return memProducts{m: t.m, tx: t} }
func (t *memTx) RefreshTokens() repo.RefreshTokenRepository { return memTokens{t.m} }
func (t *memTx) Notifications() repo.NotificationRepository { return memNotifications{t.m} }

func (t *memTx) lock(id int64) {
	if _, ok := t.held[id]; ok {
		return
	}
	t.m.mu.Lock()
	l, ok := t.m.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		t.m.rowLocks[id] = l
	}
	t.m.mu.Unlock()
	l.Lock()
	t.held[id] = l
}

func (t *memTx) release() {
	for _, l := range t.held {
		l.Unlock()
	}
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, u *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.users {
		if x.Provider == u.Provider && x.Username == u.Username {
			return apperror.New(apperror.CodeConflict, "duplicate user %s/%s", u.Provider, u.Username)
		}
	}
	u.ID = r.m.id()
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "user %d", id)
	}
	return &u, nil
}

func (r memUsers) GetByProviderUsername(ctx context.Context, provider entity.Provider, username string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Provider == provider && u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.New(apperror.CodeNotFound, "user %s/%s", provider, username)
}

func (r memUsers) Update(ctx context.Context, u *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; !ok {
		return apperror.ErrNotFound
	}
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) ListByIDs(ctx context.Context, ids []int64) ([]*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.User
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

type memProducts struct {
	m  *memStore
	tx *memTx
}

func (r memProducts) Create(ctx context.Context, p *entity.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.ID = r.m.id()
	p.CreatedAt = base.Add(time.Duration(p.ID) * time.Second)
	r.m.products[p.ID] = *p
	return nil
}

func (r memProducts) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound, "product %d", id)
	}
	return &p, nil
}

func (r memProducts) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	if r.tx == nil {
		panic("GetByIDForUpdate outside a unit of work")
	}
	r.tx.lock(id)
	return r.GetByID(ctx, id)
}

func (r memProducts) Update(ctx context.Context, p *entity.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.products[p.ID]
	if !ok || cur.Status != entity.ProductStatusSell {
		return apperror.ErrNotFound
	}
	cur.Name, cur.Description, cur.Price, cur.ImageURL = p.Name, p.Description, p.Price, p.ImageURL
	r.m.products[p.ID] = cur
	return nil
}

func (r memProducts) MarkSold(ctx context.Context, id, buyerID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.products[id]
	if !ok || cur.Status != entity.ProductStatusSell {
		return apperror.ErrAccessDenied
	}
	cur.Status = entity.ProductStatusSoldOut
	cur.BuyerID = &buyerID
	r.m.products[id] = cur
	return nil
}

func (r memProducts) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.products[id]
	if !ok || cur.Status != entity.ProductStatusSell {
		return apperror.ErrNotFound
	}
	delete(r.m.products, id)
	return nil
}

func (r memProducts) filter(keep func(p entity.Product) bool) []*entity.Product {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*entity.Product{}
	for _, p := range r.m.products {
		if !keep(p) {
			continue
		}
		p := p
		if s, ok := r.m.users[p.SellerID]; ok {
			p.Seller = &s
		}
		if p.BuyerID != nil {
			if b, ok := r.m.users[*p.BuyerID]; ok {
				p.Buyer = &b
			}
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memProducts) ListByStatus(ctx context.Context, status entity.ProductStatus) ([]*entity.Product, error) {
	return r.filter(func(p entity.Product) bool { return p.Status == status }), nil
}

func (r memProducts) ListBySeller(ctx context.Context, sellerID int64) ([]*entity.Product, error) {
	return r.filter(func(p entity.Product) bool { return p.SellerID == sellerID }), nil
}

func (r memProducts) ListByBuyer(ctx context.Context, buyerID int64) ([]*entity.Product, error) {
	return r.filter(func(p entity.Product) bool { return p.BuyerID != nil && *p.BuyerID == buyerID }), nil
}

func (r memProducts) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	set := map[int64]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return r.filter(func(p entity.Product) bool { return set[p.ID] }), nil
}

func (r memProducts) Search(ctx context.Context, keyword string) ([]*entity.Product, error) {
	k := strings.ToLower(keyword)
	return r.filter(func(p entity.Product) bool {
		return p.Status == entity.ProductStatusSell &&
			(strings.Contains(strings.ToLower(p.Name), k) || strings.Contains(strings.ToLower(p.Description), k))
	}), nil
}

type memTokens struct{ m *memStore }

func (r memTokens) Save(ctx context.Context, t *entity.RefreshToken) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failSave != nil {
		return r.m.failSave
	}
	t.ID = r.m.id()
	r.m.tokens[t.Token] = *t
	return nil
}

func (r memTokens) Exists(ctx context.Context, token string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.existsCalls++
	_, ok := r.m.tokens[token]
	return ok, nil
}

func (r memTokens) DeleteByToken(ctx context.Context, token string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tokens[token]; !ok {
		return 0, nil
	}
	delete(r.m.tokens, token)
	return 1, nil
}

func (r memTokens) DeleteByUser(ctx context.Context, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k, t := range r.m.tokens {
		if t.UserID == userID {
			delete(r.m.tokens, k)
		}
	}
	return nil
}

type memNotifications struct{ m *memStore }

func (r memNotifications) Create(ctx context.Context, n *entity.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n.ID = r.m.id()
	n.CreatedAt = base.Add(time.Duration(n.ID) * time.Second)
	r.m.notifications = append(r.m.notifications, *n)
	return nil
}

func (r memNotifications) ListByUser(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Notification
	for i := len(r.m.notifications) - 1; i >= 0; i-- {
		n := r.m.notifications[i]
		if n.UserID == userID {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r memNotifications) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range r.m.notifications {
		if r.m.notifications[i].UserID == userID && want[r.m.notifications[i].ID] {
			r.m.notifications[i].IsRead = true
		}
	}
	return nil
}

type memLikes struct {
	mu    sync.Mutex
	liked map[int64]map[int64]bool
}

func newMemLikes() *memLikes { return &memLikes{liked: map[int64]map[int64]bool{}} }

func (l *memLikes) Like(ctx context.Context, userID, productID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.liked[userID] == nil {
		l.liked[userID] = map[int64]bool{}
	}
	if l.liked[userID][productID] {
		return false, nil
	}
	l.liked[userID][productID] = true
	return true, nil
}

func (l *memLikes) Toggle(ctx context.Context, userID, productID int64) (bool, int64, error) {
	l.mu.Lock()
	if l.liked[userID] == nil {
		l.liked[userID] = map[int64]bool{}
	}
	liked := !l.liked[userID][productID]
	if liked {
		l.liked[userID][productID] = true
	} else {
		delete(l.liked[userID], productID)
	}
	l.mu.Unlock()
	n, _ := l.Count(ctx, productID)
	return liked, n, nil
}

func (l *memLikes) IsLiked(ctx context.Context, userID, productID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.liked[userID][productID], nil
}

func (l *memLikes) LikedProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []int64
	for id := range l.liked[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (l *memLikes) Count(ctx context.Context, productID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, set := range l.liked {
		if set[productID] {
			n++
		}
	}
	return n, nil
}

type recordingJobs struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (j *recordingJobs) PublishJSON(ctx context.Context, body any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.jobs = append(j.jobs, body)
	return nil
}

type recordingIndex struct {
	mu      sync.Mutex
	indexed []int64
	removed []int64
	err     error
}

func (x *recordingIndex) Index(ctx context.Context, p *entity.Product) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexed = append(x.indexed, p.ID)
	return x.err
}

func (x *recordingIndex) Remove(ctx context.Context, id int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removed = append(x.removed, id)
	return x.err
}

type memImages struct {
	uploaded map[string][]byte
}

func (s *memImages) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.uploaded == nil {
		s.uploaded = map[string][]byte{}
	}
	s.uploaded[objectPath] = b
	return "https://img.test/" + objectPath, nil
}

var (
	_ repo.Repositories   = (*memStore)(nil)
	_ repo.UnitOfWork     = (*memStore)(nil)
	_ repo.LikeRepository = (*memLikes)(nil)
	_ JobPublisher        = (*recordingJobs)(nil)
	_ ProductIndexer      = (*recordingIndex)(nil)
	_ ImageStore          = (*memImages)(nil)
)
