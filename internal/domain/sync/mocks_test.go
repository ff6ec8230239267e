package sync

import (
	"context"
	"sync"
	"time"

	"arca/internal/domain/account"
	"arca/internal/domain/item"
	"arca/internal/domain/transaction"
	"arca/internal/infrastructure/provider"
)

// In-memory fakes. Reconciler tests need real store semantics (idempotent
// upserts, annotation preservation), so these keep state instead of stubbing
// every call.

// fakeAccountRepo implements account.Repository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	byProvID map[string]*account.Account
	nextID   int64

	upsertErr error // injected store failure
	getErr    error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byProvID: make(map[string]*account.Account)}
}

func (r *fakeAccountRepo) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.byProvID[params.ProviderAccountID]
	if !ok {
		r.nextID++
		acct = &account.Account{
			ID:                r.nextID,
			ProviderAccountID: params.ProviderAccountID,
			CreatedAt:         time.Now(),
		}
		r.byProvID[params.ProviderAccountID] = acct
	}
	acct.UserID = params.UserID
	acct.ItemID = params.ItemID
	acct.InstitutionID = params.InstitutionID
	acct.Name = params.Name
	acct.OfficialName = params.OfficialName
	acct.Type = params.Type
	acct.Subtype = params.Subtype
	acct.Mask = params.Mask
	acct.AvailableBalance = params.AvailableBalance
	acct.CurrentBalance = params.CurrentBalance
	acct.LimitBalance = params.LimitBalance
	acct.ISOCurrencyCode = params.ISOCurrencyCode
	acct.VerificationStatus = params.VerificationStatus
	acct.UpdatedAt = time.Now()

	copied := *acct
	return &copied, nil
}

func (r *fakeAccountRepo) GetByProviderID(ctx context.Context, providerAccountID string) (*account.Account, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byProvID[providerAccountID]
	if !ok {
		return nil, nil
	}
	copied := *acct
	return &copied, nil
}

func (r *fakeAccountRepo) Exists(ctx context.Context, providerAccountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byProvID[providerAccountID]
	return ok, nil
}

func (r *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, acct := range r.byProvID {
		if acct.UserID == userID {
			copied := *acct
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListByItemID(ctx context.Context, itemID int64) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*account.Account
	for _, acct := range r.byProvID {
		if acct.ItemID == itemID {
			copied := *acct
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, acct := range r.byProvID {
		if acct.ID == id && acct.UserID == userID {
			delete(r.byProvID, key)
			return nil
		}
	}
	return account.ErrAccountNotFound
}

func (r *fakeAccountRepo) seed(providerID string, userID int64) *account.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	acct := &account.Account{
		ID:                r.nextID,
		ProviderAccountID: providerID,
		UserID:            userID,
		Name:              "seeded",
		Type:              "depository",
		Subtype:           "checking",
	}
	r.byProvID[providerID] = acct
	return acct
}

// fakeTransactionRepo implements transaction.Repository. Upsert refreshes
// provider-sourced fields only: annotations survive, matching the SQL
// statement in the real repository.
type fakeTransactionRepo struct {
	mu       sync.Mutex
	byProvID map[string]*transaction.Transaction
	nextID   int64

	upsertErr error // injected store failure
	deleteErr error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byProvID: make(map[string]*transaction.Transaction)}
}

func (r *fakeTransactionRepo) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, bool, error) {
	if r.upsertErr != nil {
		return nil, false, r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.byProvID[params.ProviderTransactionID]
	created := !ok
	if !ok {
		r.nextID++
		tx = &transaction.Transaction{
			ID:                    r.nextID,
			ProviderTransactionID: params.ProviderTransactionID,
			CreatedAt:             time.Now(),
		}
		r.byProvID[params.ProviderTransactionID] = tx
	}
	tx.UserID = params.UserID
	tx.AccountID = params.AccountID
	tx.Amount = params.Amount
	tx.ISOCurrencyCode = params.ISOCurrencyCode
	tx.Category = params.Category
	tx.CategoryID = params.CategoryID
	tx.MerchantName = params.MerchantName
	tx.Name = params.Name
	tx.OriginalDescription = params.OriginalDescription
	tx.Date = params.Date
	tx.AuthorizedDate = params.AuthorizedDate
	tx.Pending = params.Pending
	tx.PendingTransactionID = params.PendingTransactionID
	tx.AccountOwner = params.AccountOwner
	tx.TransactionType = params.TransactionType
	tx.TransactionCode = params.TransactionCode
	tx.Location = params.Location
	tx.PaymentMeta = params.PaymentMeta
	tx.UpdatedAt = time.Now()

	copied := *tx
	return &copied, created, nil
}

func (r *fakeTransactionRepo) GetByProviderID(ctx context.Context, providerTransactionID string) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byProvID[providerTransactionID]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, id, userID int64) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.byProvID {
		if tx.ID == id && tx.UserID == userID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) DeleteByProviderID(ctx context.Context, providerTransactionID string, userID int64) (bool, error) {
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byProvID[providerTransactionID]
	if !ok || tx.UserID != userID {
		return false, nil
	}
	delete(r.byProvID, providerTransactionID)
	return true, nil
}

func (r *fakeTransactionRepo) UpdateAnnotations(ctx context.Context, id, userID int64, params transaction.AnnotationParams) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.byProvID {
		if tx.ID == id && tx.UserID == userID {
			if params.Category != nil {
				tx.AICategory = params.Category
			}
			if params.Sentiment != nil {
				tx.AISentiment = params.Sentiment
			}
			if params.Tags != nil {
				tx.AITags = params.Tags
			}
			if params.Notes != nil {
				tx.AINotes = params.Notes
			}
			copied := *tx
			return &copied, nil
		}
	}
	return nil, transaction.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) ListByUserID(ctx context.Context, userID int64, filter transaction.Filter) ([]*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range r.byProvID {
		if tx.UserID == userID {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) ListUnannotated(ctx context.Context, userID int64, since time.Time, limit int) ([]*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range r.byProvID {
		if tx.UserID == userID && tx.AICategory == nil {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byProvID)
}

// fakeItemRepo implements item.Repository.
type fakeItemRepo struct {
	mu     sync.Mutex
	byID   map[int64]*item.Item
	nextID int64

	advanceErr error // injected store failure
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{byID: make(map[int64]*item.Item)}
}

func (r *fakeItemRepo) Create(ctx context.Context, params item.CreateParams) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	it := &item.Item{
		ID:             r.nextID,
		ProviderItemID: params.ProviderItemID,
		AccessToken:    params.AccessToken,
		UserID:         params.UserID,
		InstitutionID:  params.InstitutionID,
		WebhookURL:     params.WebhookURL,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	r.byID[it.ID] = it
	return it, nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *it
	return &copied, nil
}

func (r *fakeItemRepo) GetByProviderItemID(ctx context.Context, providerItemID string) (*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.byID {
		if it.ProviderItemID == providerItemID {
			copied := *it
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) ListByUserID(ctx context.Context, userID int64) ([]*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*item.Item
	for _, it := range r.byID {
		if it.UserID == userID {
			copied := *it
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) ListActive(ctx context.Context) ([]*item.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*item.Item
	for _, it := range r.byID {
		if it.IsActive {
			copied := *it
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) AdvanceCursor(ctx context.Context, id int64, cursor string, lastSync time.Time) error {
	if r.advanceErr != nil {
		return r.advanceErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return item.ErrItemNotFound
	}
	it.Cursor = &cursor
	it.LastSync = &lastSync
	return nil
}

func (r *fakeItemRepo) Deactivate(ctx context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok || it.UserID != userID {
		return item.ErrItemNotFound
	}
	it.IsActive = false
	return nil
}

func (r *fakeItemRepo) seed(userID int64, active bool, cursor *string) *item.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	it := &item.Item{
		ID:             r.nextID,
		ProviderItemID: "item-prov",
		AccessToken:    "access-token",
		UserID:         userID,
		InstitutionID:  "ins_1",
		Cursor:         cursor,
		IsActive:       active,
	}
	r.byID[it.ID] = it
	return it
}

func (r *fakeItemRepo) cursor(id int64) *string {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return nil
	}
	return it.Cursor
}

// fakeLocker implements Locker with process-local state.
type fakeLocker struct {
	mu     sync.Mutex
	owners map[int64]string

	acquireErr error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{owners: make(map[int64]string)}
}

func (l *fakeLocker) Acquire(ctx context.Context, itemID int64, owner string, ttl time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.owners[itemID]; held {
		return false, nil
	}
	l.owners[itemID] = owner
	return true, nil
}

func (l *fakeLocker) Release(ctx context.Context, itemID int64, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owners[itemID] == owner {
		delete(l.owners, itemID)
	}
	return nil
}

// mockProviderClient implements provider.ClientInterface with function fields.
type mockProviderClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID int64, webhookURL string) (*provider.LinkTokenResponse, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*provider.ExchangeResponse, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) (*provider.AccountsResponse, error)
	SyncTransactionsFunc    func(ctx context.Context, accessToken string, cursor *string) (*provider.SyncResponse, error)
	GetInstitutionFunc      func(ctx context.Context, institutionID string) (*provider.Institution, error)
}

func (m *mockProviderClient) CreateLinkToken(ctx context.Context, userID int64, webhookURL string) (*provider.LinkTokenResponse, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID, webhookURL)
	}
	return &provider.LinkTokenResponse{}, nil
}

func (m *mockProviderClient) ExchangePublicToken(ctx context.Context, publicToken string) (*provider.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return &provider.ExchangeResponse{}, nil
}

func (m *mockProviderClient) GetAccounts(ctx context.Context, accessToken string) (*provider.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return &provider.AccountsResponse{}, nil
}

func (m *mockProviderClient) SyncTransactions(ctx context.Context, accessToken string, cursor *string) (*provider.SyncResponse, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, accessToken, cursor)
	}
	return &provider.SyncResponse{NextCursor: "cursor-1"}, nil
}

func (m *mockProviderClient) GetInstitution(ctx context.Context, institutionID string) (*provider.Institution, error) {
	if m.GetInstitutionFunc != nil {
		return m.GetInstitutionFunc(ctx, institutionID)
	}
	return &provider.Institution{}, nil
}
