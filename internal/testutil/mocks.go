package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pulseai/pulseai/internal/domain/airequest"
	"github.com/pulseai/pulseai/internal/domain/payment"
	"github.com/pulseai/pulseai/internal/domain/subscription"
	"github.com/pulseai/pulseai/internal/domain/user"
	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[int64]*user.User
	PhoneIndex  map[string]*user.User
	NextID      int64
	UpsertError error
	GetError    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[int64]*user.User),
		PhoneIndex: make(map[string]*user.User),
		NextID:     1,
	}
}

// Add stores u directly, assigning an id when it has none
func (m *MockUserRepository) Add(u *user.User) *user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.NextID
		m.NextID++
	}
	m.Users[u.ID] = u
	m.PhoneIndex[u.Phone] = u
	return u
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.PhoneIndex[phone]
	if !ok {
		return nil, errors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) UpsertCode(ctx context.Context, phone, code string, expiresAt time.Time) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertError != nil {
		return nil, m.UpsertError
	}
	u, ok := m.PhoneIndex[phone]
	if !ok {
		u = &user.User{ID: m.NextID, Phone: phone, CreatedAt: time.Now().UTC()}
		m.NextID++
		m.Users[u.ID] = u
		m.PhoneIndex[phone] = u
	}
	c, e := code, expiresAt
	u.VerificationCode = &c
	u.CodeExpiresAt = &e
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	u.IsVerified = true
	return nil
}

// MockSubscriptionRepository is a mock implementation of subscription.Repository
type MockSubscriptionRepository struct {
	mu      sync.Mutex
	Subs    []*subscription.Subscription
	ListErr error
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{}
}

func (m *MockSubscriptionRepository) Add(s *subscription.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = int64(len(m.Subs) + 1)
	}
	m.Subs = append(m.Subs, s)
}

func (m *MockSubscriptionRepository) LatestActive(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	subs, err := m.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []*subscription.Subscription{}
	for _, s := range m.Subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MockPaymentRepository is a mock implementation of payment.Repository
type MockPaymentRepository struct {
	mu            sync.Mutex
	Payments      map[string]*payment.Payment
	Subscriptions []*subscription.Subscription
	NextID        int64
	CreateError   error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[string]*payment.Payment),
		NextID:   1,
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, dup := m.Payments[p.PaymentID]; dup {
		return fmt.Errorf("duplicate payment %s", p.PaymentID)
	}
	p.ID = m.NextID
	m.NextID++
	if p.Status == "" {
		p.Status = payment.StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.Payments[p.PaymentID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByGatewayID(ctx context.Context, gatewayID string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[gatewayID]
	if !ok {
		return nil, errors.NotFound("Payment")
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) Complete(ctx context.Context, gatewayID string, at time.Time, sub *subscription.Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[gatewayID]
	if !ok {
		return false, errors.NotFound("Payment")
	}
	if p.Status == payment.StatusSucceeded {
		return false, nil
	}
	p.Status = payment.StatusSucceeded
	p.UpdatedAt = at
	sub.ID = int64(len(m.Subscriptions) + 1)
	m.Subscriptions = append(m.Subscriptions, sub)
	return true, nil
}

func (m *MockPaymentRepository) ListPending(ctx context.Context, before time.Time, limit int) ([]*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*payment.Payment, 0)
	for _, p := range m.Payments {
		if p.Status == payment.StatusPending && p.CreatedAt.Before(before) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaymentRepository) MarkChecked(ctx context.Context, gatewayID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Payments[gatewayID]; ok && p.Status == payment.StatusPending {
		p.UpdatedAt = at
	}
	return nil
}

func (m *MockPaymentRepository) SumSucceeded(ctx context.Context, userID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, p := range m.Payments {
		if p.UserID == userID && p.Status == payment.StatusSucceeded {
			total += p.Amount
		}
	}
	return total, nil
}

// MockAIRequestRepository is a mock implementation of airequest.Repository
type MockAIRequestRepository struct {
	mu       sync.Mutex
	Requests []*airequest.AIRequest
}

func NewMockAIRequestRepository() *MockAIRequestRepository {
	return &MockAIRequestRepository{}
}

func (m *MockAIRequestRepository) Add(r *airequest.AIRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, r)
}

func (m *MockAIRequestRepository) Stats(ctx context.Context, userID int64) (*airequest.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &airequest.Stats{}
	for _, r := range m.Requests {
		if r.UserID == userID {
			s.TotalRequests++
			s.TotalTokens += int64(r.TokensUsed)
		}
	}
	return s, nil
}

func (m *MockAIRequestRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*airequest.AIRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*airequest.AIRequest
	for i := len(m.Requests) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.Requests[i].UserID == userID {
			out = append(out, m.Requests[i])
		}
	}
	return out, nil
}

// MockCompleter is a mock airequest.Completer
type MockCompleter struct {
	mu        sync.Mutex
	Answer    string
	Tokens    int
	Err       error
	Questions []string
}

func NewMockCompleter(answer string, tokens int) *MockCompleter {
	return &MockCompleter{Answer: answer, Tokens: tokens}
}

func (m *MockCompleter) Complete(ctx context.Context, question string) (*airequest.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Questions = append(m.Questions, question)
	if m.Err != nil {
		return nil, m.Err
	}
	return &airequest.Completion{Answer: m.Answer, TokensUsed: m.Tokens}, nil
}

// Calls returns how many completions were requested
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Questions)
}

// MockGateway is a mock payment.Gateway
type MockGateway struct {
	mu        sync.Mutex
	Requests  []payment.CreateRequest
	Remote    map[string]*payment.GatewayPayment
	CreateErr error
	GetErr    error
	next      int
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Remote: make(map[string]*payment.GatewayPayment)}
}

func (m *MockGateway) CreatePayment(ctx context.Context, req payment.CreateRequest) (*payment.GatewayPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.next++
	id := fmt.Sprintf("pay-%03d", m.next)
	gp := &payment.GatewayPayment{
		ID:              id,
		Status:          "pending",
		ConfirmationURL: "https://yoomoney.test/checkout?orderId=" + id,
		Metadata:        req.Metadata,
	}
	m.Remote[id] = gp
	return gp, nil
}

func (m *MockGateway) GetPayment(ctx context.Context, id string) (*payment.GatewayPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	gp, ok := m.Remote[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	cp := *gp
	return &cp, nil
}

// SetStatus changes what GetPayment reports for id
func (m *MockGateway) SetStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gp, ok := m.Remote[id]; ok {
		gp.Status = status
		gp.Paid = status == payment.StatusSucceeded
	}
}
