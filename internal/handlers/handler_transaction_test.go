package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/core/services"
	"github.com/openbooks/ledger_backend/internal/dto"
	"github.com/openbooks/ledger_backend/internal/handlers"
	"github.com/openbooks/ledger_backend/internal/platform/config"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateAccount(ctx context.Context, entityID string, req dto.CreateAccountRequest) (*ledger.Account, error) {
	args := m.Called(ctx, entityID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}
func (m *MockLedgerService) GetAccount(ctx context.Context, entityID, accountID string) (*ledger.Account, error) {
	args := m.Called(ctx, entityID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}
func (m *MockLedgerService) ListAccounts(ctx context.Context, entityID string) ([]*ledger.Account, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Account), args.Error(1)
}
func (m *MockLedgerService) DeactivateAccount(ctx context.Context, entityID, accountID string) error {
	args := m.Called(ctx, entityID, accountID)
	return args.Error(0)
}
func (m *MockLedgerService) CreateJournal(ctx context.Context, entityID string, req dto.CreateJournalRequest) (*ledger.Journal, error) {
	args := m.Called(ctx, entityID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Journal), args.Error(1)
}
func (m *MockLedgerService) GetJournal(ctx context.Context, entityID, journalID string) (*ledger.Journal, error) {
	args := m.Called(ctx, entityID, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Journal), args.Error(1)
}
func (m *MockLedgerService) ListJournals(ctx context.Context, entityID string) ([]*ledger.Journal, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Journal), args.Error(1)
}
func (m *MockLedgerService) AddTransactionToJournal(ctx context.Context, entityID, journalID, transactionID string) error {
	args := m.Called(ctx, entityID, journalID, transactionID)
	return args.Error(0)
}
func (m *MockLedgerService) RemoveTransactionFromJournal(ctx context.Context, entityID, journalID, transactionID string) error {
	args := m.Called(ctx, entityID, journalID, transactionID)
	return args.Error(0)
}
func (m *MockLedgerService) JournalTransactionsByDateRange(ctx context.Context, entityID, journalID string, from, to time.Time) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, entityID, journalID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}
func (m *MockLedgerService) RecordTransaction(ctx context.Context, entityID string, req dto.RecordTransactionRequest) (*ledger.Transaction, error) {
	args := m.Called(ctx, entityID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}
func (m *MockLedgerService) GetTransaction(ctx context.Context, entityID, transactionID string) (*ledger.Transaction, error) {
	args := m.Called(ctx, entityID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}
func (m *MockLedgerService) ListTransactions(ctx context.Context, entityID string) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}
func (m *MockLedgerService) ReverseTransaction(ctx context.Context, entityID, transactionID string, req dto.ReverseTransactionRequest) (*ledger.Transaction, error) {
	args := m.Called(ctx, entityID, transactionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}
func (m *MockLedgerService) VoidTransaction(ctx context.Context, entityID, transactionID string) error {
	args := m.Called(ctx, entityID, transactionID)
	return args.Error(0)
}
func (m *MockLedgerService) TrialBalance(ctx context.Context, entityID string) (ledger.TrialBalance, error) {
	args := m.Called(ctx, entityID)
	return args.Get(0).(ledger.TrialBalance), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Test Suite ---
type TransactionHandlerTestSuite struct {
	suite.Suite
	mockService *MockLedgerService
	router      *gin.Engine
	entityID    string
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockService = new(MockLedgerService)
	suite.entityID = uuid.NewString()

	cfg := &config.Config{
		RateLimit:      "1000-M",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{Ledger: suite.mockService})
}

func (suite *TransactionHandlerTestSuite) serve(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func mustAmount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func postedTransaction(t *testing.T, entityID string) *ledger.Transaction {
	t.Helper()
	txn, err := ledger.NewTransaction(uuid.NewString(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "Test", entityID, []ledger.TransactionLine{
		{LineID: uuid.NewString(), AccountID: uuid.NewString(), Amount: mustAmount("100.00"), IsDebit: true},
		{LineID: uuid.NewString(), AccountID: uuid.NewString(), Amount: mustAmount("100.00"), IsDebit: false},
	})
	if err != nil {
		t.Fatalf("failed to build transaction: %v", err)
	}
	if _, err := txn.Post(); err != nil {
		t.Fatalf("failed to post transaction: %v", err)
	}
	return txn
}

// --- Test Cases ---

func (suite *TransactionHandlerTestSuite) TestRecordTransaction_Success() {
	txn := postedTransaction(suite.T(), suite.entityID)
	suite.mockService.On("RecordTransaction", mock.Anything, suite.entityID, mock.AnythingOfType("dto.RecordTransactionRequest")).Return(txn, nil).Once()

	body := dto.RecordTransactionRequest{
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test",
		Lines: []dto.TransactionLineRequest{
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideDebit},
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideCredit},
		},
	}
	w := suite.serve(http.MethodPost, fmt.Sprintf("/api/v1/entities/%s/transactions", suite.entityID), body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(txn.TransactionID, resp.TransactionID)
	suite.Equal(ledger.StatusPosted, resp.Status)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestRecordTransaction_SingleLineRejectedAtBinding() {
	body := dto.RecordTransactionRequest{
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test",
		Lines: []dto.TransactionLineRequest{
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideDebit},
		},
	}
	w := suite.serve(http.MethodPost, fmt.Sprintf("/api/v1/entities/%s/transactions", suite.entityID), body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "RecordTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestRecordTransaction_InvalidAmountRejectedAtBinding() {
	body := dto.RecordTransactionRequest{
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test",
		Lines: []dto.TransactionLineRequest{
			{AccountID: uuid.NewString(), Amount: "1e5", Side: dto.SideDebit},
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideCredit},
		},
	}
	w := suite.serve(http.MethodPost, fmt.Sprintf("/api/v1/entities/%s/transactions", suite.entityID), body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "RecordTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestRecordTransaction_Unbalanced() {
	suite.mockService.On("RecordTransaction", mock.Anything, suite.entityID, mock.AnythingOfType("dto.RecordTransactionRequest")).
		Return(nil, fmt.Errorf("%w: debits 100, credits 99", services.ErrTransactionUnbalanced)).Once()

	body := dto.RecordTransactionRequest{
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test",
		Lines: []dto.TransactionLineRequest{
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideDebit},
			{AccountID: uuid.NewString(), Amount: "99.00", Side: dto.SideCredit},
		},
	}
	w := suite.serve(http.MethodPost, fmt.Sprintf("/api/v1/entities/%s/transactions", suite.entityID), body)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestRecordTransaction_StructuralErrorCarriesCode() {
	suite.mockService.On("RecordTransaction", mock.Anything, suite.entityID, mock.AnythingOfType("dto.RecordTransactionRequest")).
		Return(nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "transaction date is required")).Once()

	body := dto.RecordTransactionRequest{
		Date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test",
		Lines: []dto.TransactionLineRequest{
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideDebit},
			{AccountID: uuid.NewString(), Amount: "100.00", Side: dto.SideCredit},
		},
	}
	w := suite.serve(http.MethodPost, fmt.Sprintf("/api/v1/entities/%s/transactions", suite.entityID), body)

	suite.Equal(http.StatusBadRequest, w.Code)
	var resp map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(string(apperrors.CodeMissingField), resp["code"])
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	transactionID := uuid.NewString()
	suite.mockService.On("GetTransaction", mock.Anything, suite.entityID, transactionID).
		Return(nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)).Once()

	w := suite.serve(http.MethodGet, fmt.Sprintf("/api/v1/entities/%s/transactions/%s", suite.entityID, transactionID), nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestVoidTransaction_Success() {
	txn := postedTransaction(suite.T(), suite.entityID)
	suite.Require().NoError(txn.Void())

	suite.mockService.On("VoidTransaction", mock.Anything, suite.entityID, txn.TransactionID).Return(nil).Once()
	suite.mockService.On("GetTransaction", mock.Anything, suite.entityID, txn.TransactionID).Return(txn, nil).Once()

	w := suite.serve(http.MethodPost, fmt.Sprintf("/api/v1/entities/%s/transactions/%s/void", suite.entityID, txn.TransactionID), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(ledger.StatusVoid, resp.Status)
	suite.mockService.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestTransactionHandler(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
