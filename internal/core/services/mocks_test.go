package services

import (
	"context"
	"sync"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) GetUser(ctx context.Context, identityID string) (*domain.UserRecord, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

func (m *MockUserAPI) RegisterUser(ctx context.Context, profile domain.NewUserProfile) (*domain.UserRecord, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

func (m *MockUserAPI) ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.UserRecord], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.UserRecord]), args.Error(1)
}

func (m *MockUserAPI) MakeAdmin(ctx context.Context, userID string) (*domain.UserRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

func (m *MockUserAPI) GrantBadge(ctx context.Context, identityID string, badge domain.Badge) (*domain.UserRecord, error) {
	args := m.Called(ctx, identityID, badge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

type MockPostAPI struct {
	mock.Mock
}

func (m *MockPostAPI) SearchPosts(ctx context.Context, term string) ([]domain.Post, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Post), args.Error(1)
}

func (m *MockPostAPI) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *MockPostAPI) ListPostsByAuthor(ctx context.Context, authorID string, page domain.PageRequest) (*domain.Page[domain.Post], error) {
	args := m.Called(ctx, authorID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.Post]), args.Error(1)
}

func (m *MockPostAPI) CreatePost(ctx context.Context, draft domain.PostDraft) (*domain.Post, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *MockPostAPI) DeletePost(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

type MockCommentAPI struct {
	mock.Mock
}

func (m *MockCommentAPI) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *MockCommentAPI) CreateComment(ctx context.Context, draft domain.CommentDraft) (*domain.Comment, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockCommentAPI) DeleteComment(ctx context.Context, commentID string) error {
	return m.Called(ctx, commentID).Error(0)
}

type MockReportAPI struct {
	mock.Mock
}

func (m *MockReportAPI) CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportAPI) GetReport(ctx context.Context, reportID string) (*domain.Report, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportAPI) ListReports(ctx context.Context, filter domain.ReportFilter) (*domain.Page[domain.Report], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Page[domain.Report]), args.Error(1)
}

func (m *MockReportAPI) UpdateReportStatus(ctx context.Context, reportID string, status domain.ReportStatus) (*domain.Report, error) {
	args := m.Called(ctx, reportID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

type MockPaymentAPI struct {
	mock.Mock
}

func (m *MockPaymentAPI) CreatePaymentIntent(ctx context.Context, price int64) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

// fakeIdentity delivers events synchronously, like the identity client does.
type fakeIdentity struct {
	mu        sync.Mutex
	listeners map[int]func(domain.SessionEvent)
	nextID    int
	signOuts  int
	signOutFn func() error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{listeners: make(map[int]func(domain.SessionEvent))}
}

func (f *fakeIdentity) emit(ev domain.SessionEvent) {
	f.mu.Lock()
	fns := make([]func(domain.SessionEvent), 0, len(f.listeners))
	for i := 0; i < f.nextID; i++ {
		if fn, ok := f.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeIdentity) signIn(identityID, credential string) {
	f.emit(domain.SessionEvent{
		Session: &domain.Session{IdentityID: identityID, Credential: credential, Email: identityID + "@forum.test"},
		Reason:  domain.EventReasonSignIn,
	})
}

func (f *fakeIdentity) SignUp(ctx context.Context, req ports.SignUpRequest) (*domain.Session, error) {
	s := &domain.Session{IdentityID: "uid-new", Credential: "tok-new", Email: req.Email, DisplayName: req.Name}
	f.emit(domain.SessionEvent{Session: s, Reason: domain.EventReasonSignIn})
	return s, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	s := &domain.Session{IdentityID: "uid-" + email, Credential: "tok", Email: email}
	f.emit(domain.SessionEvent{Session: s, Reason: domain.EventReasonSignIn})
	return s, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	fn := f.signOutFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	f.emit(domain.SessionEvent{Reason: domain.EventReasonSignOut})
	return nil
}

func (f *fakeIdentity) ResetPassword(ctx context.Context, email string) error { return nil }

func (f *fakeIdentity) OnSessionChange(fn func(domain.SessionEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeIdentity) signOutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]*domain.UserRecord
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]*domain.UserRecord)}
}

func (c *mapCache) Get(ctx context.Context, identityID string) (*domain.UserRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[identityID]
	return r, ok, nil
}

func (c *mapCache) Set(ctx context.Context, record *domain.UserRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[record.IdentityID] = record
	return nil
}

func (c *mapCache) Delete(ctx context.Context, identityID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, identityID)
	return nil
}

func (c *mapCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*domain.UserRecord)
	return nil
}

func (c *mapCache) has(identityID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[identityID]
	return ok
}
