package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tallyhq/tally/tally-backend/internal/domain"
	"github.com/tallyhq/tally/tally-backend/internal/identity"
	"github.com/tallyhq/tally/tally-backend/internal/websocket"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[uuid.UUID]*domain.User)}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(email string) (*domain.User, error) {
	for _, user := range m.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGet creates the user or returns the existing row
func (m *MockUserRepository) CreateOrGet(user *domain.User) (*domain.User, error) {
	if existing, ok := m.Users[user.ID]; ok {
		return existing, nil
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.Users[user.ID] = user
	return user, nil
}

// UpdateName updates the user's display name
func (m *MockUserRepository) UpdateName(id uuid.UUID, name string) (*domain.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	user.UpdatedAt = time.Now().UTC()
	return user, nil
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	References map[int32]int64
	NextID     int32
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		References: make(map[int32]int64),
		NextID:     1,
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	category.ID = m.NextID
	m.NextID++
	category.CreatedAt = time.Now().UTC()
	category.UpdatedAt = category.CreatedAt
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category scoped to the user
func (m *MockCategoryRepository) GetByID(userID uuid.UUID, id int32) (*domain.Category, error) {
	category, ok := m.Categories[id]
	if !ok || category.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

// ListByUser lists the user's categories
func (m *MockCategoryRepository) ListByUser(userID uuid.UUID, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, category := range m.Categories {
		if category.UserID != userID {
			continue
		}
		if categoryType != nil && category.Type != *categoryType {
			continue
		}
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update updates a category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	existing, ok := m.Categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return nil, domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now().UTC()
	m.Categories[category.ID] = category
	return category, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(userID uuid.UUID, id int32) error {
	category, ok := m.Categories[id]
	if !ok || category.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// CountReferences returns the scripted reference count
func (m *MockCategoryRepository) CountReferences(userID uuid.UUID, id int32) (int64, error) {
	return m.References[id], nil
}

// MockServiceRepository is a mock implementation of domain.ServiceRepository
type MockServiceRepository struct {
	Services map[int32]*domain.Service
	NextID   int32
}

// NewMockServiceRepository creates a new MockServiceRepository
func NewMockServiceRepository() *MockServiceRepository {
	return &MockServiceRepository{
		Services: make(map[int32]*domain.Service),
		NextID:   1,
	}
}

// Create creates a new catalog service
func (m *MockServiceRepository) Create(svc *domain.Service) (*domain.Service, error) {
	svc.ID = m.NextID
	m.NextID++
	svc.CreatedAt = time.Now().UTC()
	svc.UpdatedAt = svc.CreatedAt
	m.Services[svc.ID] = svc
	return svc, nil
}

// GetByID retrieves a catalog service scoped to the user
func (m *MockServiceRepository) GetByID(userID uuid.UUID, id int32) (*domain.Service, error) {
	svc, ok := m.Services[id]
	if !ok || svc.UserID != userID {
		return nil, domain.ErrServiceNotFound
	}
	return svc, nil
}

// ListByUser lists the user's catalog
func (m *MockServiceRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.Service, error) {
	var out []*domain.Service
	for _, svc := range m.Services {
		if svc.UserID != userID {
			continue
		}
		if activeOnly != nil && svc.IsActive != *activeOnly {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update updates a catalog service
func (m *MockServiceRepository) Update(svc *domain.Service) (*domain.Service, error) {
	existing, ok := m.Services[svc.ID]
	if !ok || existing.UserID != svc.UserID {
		return nil, domain.ErrServiceNotFound
	}
	svc.UpdatedAt = time.Now().UTC()
	m.Services[svc.ID] = svc
	return svc, nil
}

// Delete removes a catalog service
func (m *MockServiceRepository) Delete(userID uuid.UUID, id int32) error {
	svc, ok := m.Services[id]
	if !ok || svc.UserID != userID {
		return domain.ErrServiceNotFound
	}
	delete(m.Services, id)
	return nil
}

// MockIncomeRepository is a mock implementation of domain.IncomeRepository
type MockIncomeRepository struct {
	Transactions map[int32]*domain.IncomeTransaction
	NextID       int32
}

// NewMockIncomeRepository creates a new MockIncomeRepository
func NewMockIncomeRepository() *MockIncomeRepository {
	return &MockIncomeRepository{
		Transactions: make(map[int32]*domain.IncomeTransaction),
		NextID:       1,
	}
}

// Create creates a new income transaction
func (m *MockIncomeRepository) Create(tx *domain.IncomeTransaction) (*domain.IncomeTransaction, error) {
	tx.ID = m.NextID
	m.NextID++
	tx.CreatedAt = time.Now().UTC()
	tx.UpdatedAt = tx.CreatedAt
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// GetByID retrieves an income transaction scoped to the user
func (m *MockIncomeRepository) GetByID(userID uuid.UUID, id int32) (*domain.IncomeTransaction, error) {
	tx, ok := m.Transactions[id]
	if !ok || tx.UserID != userID {
		return nil, domain.ErrIncomeNotFound
	}
	return tx, nil
}

// ListByUser lists income transactions with filters and pagination
func (m *MockIncomeRepository) ListByUser(userID uuid.UUID, filters *domain.IncomeFilters) (*domain.PaginatedIncome, error) {
	var matched []*domain.IncomeTransaction
	for _, tx := range m.Transactions {
		if tx.UserID != userID {
			continue
		}
		if filters.StartDate != nil && tx.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && tx.Date.After(*filters.EndDate) {
			continue
		}
		if filters.ServiceID != nil && (tx.ServiceID == nil || *tx.ServiceID != *filters.ServiceID) {
			continue
		}
		if filters.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.PaymentMethod != nil && tx.PaymentMethod != *filters.PaymentMethod {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := int((filters.Page - 1) * filters.PageSize)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(filters.PageSize)
	if end > len(matched) {
		end = len(matched)
	}

	totalPages := int32(0)
	if total > 0 {
		totalPages = int32((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	}

	return &domain.PaginatedIncome{
		Data:       matched[start:end],
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// ListRange lists income transactions in [start, end]
func (m *MockIncomeRepository) ListRange(userID uuid.UUID, start, end time.Time) ([]*domain.IncomeTransaction, error) {
	var out []*domain.IncomeTransaction
	for _, tx := range m.Transactions {
		if tx.UserID != userID || tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update updates an income transaction
func (m *MockIncomeRepository) Update(tx *domain.IncomeTransaction) (*domain.IncomeTransaction, error) {
	existing, ok := m.Transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return nil, domain.ErrIncomeNotFound
	}
	tx.UpdatedAt = time.Now().UTC()
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// Delete removes an income transaction
func (m *MockIncomeRepository) Delete(userID uuid.UUID, id int32) error {
	tx, ok := m.Transactions[id]
	if !ok || tx.UserID != userID {
		return domain.ErrIncomeNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// MockSpendingRepository is a mock implementation of domain.SpendingRepository
type MockSpendingRepository struct {
	Transactions map[int32]*domain.SpendingTransaction
	NextID       int32
}

// NewMockSpendingRepository creates a new MockSpendingRepository
func NewMockSpendingRepository() *MockSpendingRepository {
	return &MockSpendingRepository{
		Transactions: make(map[int32]*domain.SpendingTransaction),
		NextID:       1,
	}
}

// Create creates a new spending transaction
func (m *MockSpendingRepository) Create(tx *domain.SpendingTransaction) (*domain.SpendingTransaction, error) {
	tx.ID = m.NextID
	m.NextID++
	tx.CreatedAt = time.Now().UTC()
	tx.UpdatedAt = tx.CreatedAt
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// GetByID retrieves a spending transaction scoped to the user
func (m *MockSpendingRepository) GetByID(userID uuid.UUID, id int32) (*domain.SpendingTransaction, error) {
	tx, ok := m.Transactions[id]
	if !ok || tx.UserID != userID {
		return nil, domain.ErrSpendingNotFound
	}
	return tx, nil
}

// ListByUser lists spending transactions with filters and pagination
func (m *MockSpendingRepository) ListByUser(userID uuid.UUID, filters *domain.SpendingFilters) (*domain.PaginatedSpending, error) {
	var matched []*domain.SpendingTransaction
	for _, tx := range m.Transactions {
		if tx.UserID != userID {
			continue
		}
		if filters.StartDate != nil && tx.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && tx.Date.After(*filters.EndDate) {
			continue
		}
		if filters.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.PaymentMethod != nil && tx.PaymentMethod != *filters.PaymentMethod {
			continue
		}
		matched = append(matched, tx)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := int((filters.Page - 1) * filters.PageSize)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(filters.PageSize)
	if end > len(matched) {
		end = len(matched)
	}

	totalPages := int32(0)
	if total > 0 {
		totalPages = int32((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	}

	return &domain.PaginatedSpending{
		Data:       matched[start:end],
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// ListRange lists spending transactions in [start, end]
func (m *MockSpendingRepository) ListRange(userID uuid.UUID, start, end time.Time) ([]*domain.SpendingTransaction, error) {
	var out []*domain.SpendingTransaction
	for _, tx := range m.Transactions {
		if tx.UserID != userID || tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update updates a spending transaction
func (m *MockSpendingRepository) Update(tx *domain.SpendingTransaction) (*domain.SpendingTransaction, error) {
	existing, ok := m.Transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return nil, domain.ErrSpendingNotFound
	}
	tx.UpdatedAt = time.Now().UTC()
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// SetReceiptPath updates the receipt path
func (m *MockSpendingRepository) SetReceiptPath(userID uuid.UUID, id int32, path *string) (*domain.SpendingTransaction, error) {
	tx, ok := m.Transactions[id]
	if !ok || tx.UserID != userID {
		return nil, domain.ErrSpendingNotFound
	}
	tx.ReceiptPath = path
	tx.UpdatedAt = time.Now().UTC()
	return tx, nil
}

// Delete removes a spending transaction
func (m *MockSpendingRepository) Delete(userID uuid.UUID, id int32) error {
	tx, ok := m.Transactions[id]
	if !ok || tx.UserID != userID {
		return domain.ErrSpendingNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[int32]*domain.RecurringPayment
	NextID   int32
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[int32]*domain.RecurringPayment),
		NextID:   1,
	}
}

// Add inserts a payment (helper for tests and linked mocks)
func (m *MockPaymentRepository) Add(payment *domain.RecurringPayment) *domain.RecurringPayment {
	payment.ID = m.NextID
	m.NextID++
	payment.CreatedAt = time.Now().UTC()
	m.Payments[payment.ID] = payment
	return payment
}

// GetByID retrieves a payment scoped to the user
func (m *MockPaymentRepository) GetByID(userID uuid.UUID, id int32) (*domain.RecurringPayment, error) {
	payment, ok := m.Payments[id]
	if !ok || payment.UserID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// ListByObligation lists payments for one obligation
func (m *MockPaymentRepository) ListByObligation(userID uuid.UUID, kind domain.ObligationKind, obligationID int32) ([]*domain.RecurringPayment, error) {
	var out []*domain.RecurringPayment
	for _, payment := range m.Payments {
		if payment.UserID != userID || payment.ObligationKind != kind || payment.ObligationID != obligationID {
			continue
		}
		out = append(out, payment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListByUser lists payments in [start, end]
func (m *MockPaymentRepository) ListByUser(userID uuid.UUID, start, end time.Time) ([]*domain.RecurringPayment, error) {
	var out []*domain.RecurringPayment
	for _, payment := range m.Payments {
		if payment.UserID != userID || payment.PaidAt.Before(start) || payment.PaidAt.After(end) {
			continue
		}
		out = append(out, payment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockRecurringRepository is a mock implementation of domain.RecurringRepository
type MockRecurringRepository struct {
	Expenses map[int32]*domain.RecurringExpense
	NextID   int32

	// Linked repositories for RecordPayment
	PaymentRepo  *MockPaymentRepository
	SpendingRepo *MockSpendingRepository
}

// NewMockRecurringRepository creates a new MockRecurringRepository
func NewMockRecurringRepository(paymentRepo *MockPaymentRepository, spendingRepo *MockSpendingRepository) *MockRecurringRepository {
	return &MockRecurringRepository{
		Expenses:     make(map[int32]*domain.RecurringExpense),
		NextID:       1,
		PaymentRepo:  paymentRepo,
		SpendingRepo: spendingRepo,
	}
}

// Create creates a new recurring expense
func (m *MockRecurringRepository) Create(re *domain.RecurringExpense) (*domain.RecurringExpense, error) {
	re.ID = m.NextID
	m.NextID++
	re.CreatedAt = time.Now().UTC()
	re.UpdatedAt = re.CreatedAt
	m.Expenses[re.ID] = re
	return re, nil
}

// GetByID retrieves a recurring expense scoped to the user
func (m *MockRecurringRepository) GetByID(userID uuid.UUID, id int32) (*domain.RecurringExpense, error) {
	re, ok := m.Expenses[id]
	if !ok || re.UserID != userID {
		return nil, domain.ErrRecurringNotFound
	}
	return re, nil
}

// ListByUser lists recurring expenses
func (m *MockRecurringRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.RecurringExpense, error) {
	var out []*domain.RecurringExpense
	for _, re := range m.Expenses {
		if re.UserID != userID {
			continue
		}
		if activeOnly != nil && re.IsActive != *activeOnly {
			continue
		}
		out = append(out, re)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update updates a recurring expense
func (m *MockRecurringRepository) Update(re *domain.RecurringExpense) (*domain.RecurringExpense, error) {
	existing, ok := m.Expenses[re.ID]
	if !ok || existing.UserID != re.UserID {
		return nil, domain.ErrRecurringNotFound
	}
	re.UpdatedAt = time.Now().UTC()
	m.Expenses[re.ID] = re
	return re, nil
}

// Delete removes a recurring expense
func (m *MockRecurringRepository) Delete(userID uuid.UUID, id int32) error {
	re, ok := m.Expenses[id]
	if !ok || re.UserID != userID {
		return domain.ErrRecurringNotFound
	}
	delete(m.Expenses, id)
	return nil
}

// RecordPayment applies the payment, optional spending, and obligation
// update together, mirroring the transactional repository
func (m *MockRecurringRepository) RecordPayment(re *domain.RecurringExpense, payment *domain.RecurringPayment, spending *domain.SpendingTransaction) (*domain.RecurringPayment, error) {
	if _, ok := m.Expenses[re.ID]; !ok {
		return nil, domain.ErrRecurringNotFound
	}

	if spending != nil && m.SpendingRepo != nil {
		created, err := m.SpendingRepo.Create(spending)
		if err != nil {
			return nil, err
		}
		payment.SpendingID = &created.ID
	}

	if m.PaymentRepo != nil {
		m.PaymentRepo.Add(payment)
	}

	m.Expenses[re.ID] = re
	return payment, nil
}

// MockSubscriptionRepository is a mock implementation of domain.SubscriptionRepository
type MockSubscriptionRepository struct {
	Subscriptions map[int32]*domain.Subscription
	NextID        int32

	PaymentRepo  *MockPaymentRepository
	SpendingRepo *MockSpendingRepository
}

// NewMockSubscriptionRepository creates a new MockSubscriptionRepository
func NewMockSubscriptionRepository(paymentRepo *MockPaymentRepository, spendingRepo *MockSpendingRepository) *MockSubscriptionRepository {
	return &MockSubscriptionRepository{
		Subscriptions: make(map[int32]*domain.Subscription),
		NextID:        1,
		PaymentRepo:   paymentRepo,
		SpendingRepo:  spendingRepo,
	}
}

// Create creates a new subscription
func (m *MockSubscriptionRepository) Create(sub *domain.Subscription) (*domain.Subscription, error) {
	sub.ID = m.NextID
	m.NextID++
	sub.CreatedAt = time.Now().UTC()
	sub.UpdatedAt = sub.CreatedAt
	m.Subscriptions[sub.ID] = sub
	return sub, nil
}

// GetByID retrieves a subscription scoped to the user
func (m *MockSubscriptionRepository) GetByID(userID uuid.UUID, id int32) (*domain.Subscription, error) {
	sub, ok := m.Subscriptions[id]
	if !ok || sub.UserID != userID {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// ListByUser lists subscriptions
func (m *MockSubscriptionRepository) ListByUser(userID uuid.UUID, activeOnly *bool) ([]*domain.Subscription, error) {
	var out []*domain.Subscription
	for _, sub := range m.Subscriptions {
		if sub.UserID != userID {
			continue
		}
		if activeOnly != nil && sub.IsActive != *activeOnly {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update updates a subscription
func (m *MockSubscriptionRepository) Update(sub *domain.Subscription) (*domain.Subscription, error) {
	existing, ok := m.Subscriptions[sub.ID]
	if !ok || existing.UserID != sub.UserID {
		return nil, domain.ErrSubscriptionNotFound
	}
	sub.UpdatedAt = time.Now().UTC()
	m.Subscriptions[sub.ID] = sub
	return sub, nil
}

// Delete removes a subscription
func (m *MockSubscriptionRepository) Delete(userID uuid.UUID, id int32) error {
	sub, ok := m.Subscriptions[id]
	if !ok || sub.UserID != userID {
		return domain.ErrSubscriptionNotFound
	}
	delete(m.Subscriptions, id)
	return nil
}

// RecordPayment applies the payment, optional spending, and obligation
// update together, mirroring the transactional repository
func (m *MockSubscriptionRepository) RecordPayment(sub *domain.Subscription, payment *domain.RecurringPayment, spending *domain.SpendingTransaction) (*domain.RecurringPayment, error) {
	if _, ok := m.Subscriptions[sub.ID]; !ok {
		return nil, domain.ErrSubscriptionNotFound
	}

	if spending != nil && m.SpendingRepo != nil {
		created, err := m.SpendingRepo.Create(spending)
		if err != nil {
			return nil, err
		}
		payment.SpendingID = &created.ID
	}

	if m.PaymentRepo != nil {
		m.PaymentRepo.Add(payment)
	}

	m.Subscriptions[sub.ID] = sub
	return payment, nil
}

// MockIdentityClient is a scripted mock of identity.Client that records
// every provider call it receives
type MockIdentityClient struct {
	Calls []string

	SignupFn  func(email, password string) (*identity.Session, error)
	LoginFn   func(email, password string) (*identity.Session, error)
	RefreshFn func(refreshToken string) (*identity.Session, error)
	LogoutErr error
	RecoverFn func(email string) error
}

// NewMockIdentityClient creates a new MockIdentityClient
func NewMockIdentityClient() *MockIdentityClient {
	return &MockIdentityClient{}
}

// Signup implements identity.Client
func (m *MockIdentityClient) Signup(ctx context.Context, email, password string) (*identity.Session, error) {
	m.Calls = append(m.Calls, "signup")
	if m.SignupFn != nil {
		return m.SignupFn(email, password)
	}
	return DefaultSession(email), nil
}

// Login implements identity.Client
func (m *MockIdentityClient) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	m.Calls = append(m.Calls, "login")
	if m.LoginFn != nil {
		return m.LoginFn(email, password)
	}
	return DefaultSession(email), nil
}

// Refresh implements identity.Client
func (m *MockIdentityClient) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	m.Calls = append(m.Calls, "refresh")
	if m.RefreshFn != nil {
		return m.RefreshFn(refreshToken)
	}
	return DefaultSession("refreshed@example.com"), nil
}

// Logout implements identity.Client
func (m *MockIdentityClient) Logout(ctx context.Context, accessToken string) error {
	m.Calls = append(m.Calls, "logout")
	return m.LogoutErr
}

// RequestPasswordReset implements identity.Client
func (m *MockIdentityClient) RequestPasswordReset(ctx context.Context, email string) error {
	m.Calls = append(m.Calls, "recover")
	if m.RecoverFn != nil {
		return m.RecoverFn(email)
	}
	return nil
}

// DefaultSession builds a session for mock responses
func DefaultSession(email string) *identity.Session {
	return &identity.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
		UserID:       uuid.New(),
		Email:        email,
	}
}

// MockReceiptStorage is an in-memory mock of storage.ReceiptRepository
type MockReceiptStorage struct {
	Objects map[string][]byte
	Deleted []string
}

// NewMockReceiptStorage creates a new MockReceiptStorage
func NewMockReceiptStorage() *MockReceiptStorage {
	return &MockReceiptStorage{
		Objects: make(map[string][]byte),
	}
}

// Upload implements storage.ReceiptRepository
func (m *MockReceiptStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	payload, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = payload
	return objectPath, nil
}

// Delete implements storage.ReceiptRepository
func (m *MockReceiptStorage) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	m.Deleted = append(m.Deleted, objectPath)
	return nil
}

// GeneratePresignedURL implements storage.ReceiptRepository
func (m *MockReceiptStorage) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.example.com/%s?signed", objectPath), nil
}

// MockPublisher records published events
type MockPublisher struct {
	Events []websocket.Event
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish implements websocket.EventPublisher
func (m *MockPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	m.Events = append(m.Events, event)
}
