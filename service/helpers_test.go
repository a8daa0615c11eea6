package service

import (
	"time"

	"chiptable/config"
	"chiptable/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const testAdminID = int64(900)

type testMocks struct {
	factory      *MockUnitOfWorkFactory
	uow          *MockUnitOfWork
	accounts     *MockAccountRepository
	ledger       *MockLedgerRepository
	tables       *MockTableRepository
	participants *MockParticipantRepository
	adminActions *MockAdminActionRepository
	bus          *MockEventPublisher
}

func newTestMocks() *testMocks {
	m := &testMocks{
		factory:      new(MockUnitOfWorkFactory),
		uow:          new(MockUnitOfWork),
		accounts:     new(MockAccountRepository),
		ledger:       new(MockLedgerRepository),
		tables:       new(MockTableRepository),
		participants: new(MockParticipantRepository),
		adminActions: new(MockAdminActionRepository),
		bus:          new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.accounts, m.ledger, m.tables, m.participants)
	m.uow.SetAdminActionRepository(m.adminActions)
	m.uow.SetEventBus(m.bus)
	m.factory.On("Create").Return(m.uow)
	m.bus.On("Publish", mock.Anything).Return()
	return m
}

// expectCommit sets up a unit of work that is expected to commit
func (m *testMocks) expectCommit() {
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
}

// expectRollback sets up a unit of work that must not commit
func (m *testMocks) expectRollback() {
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Rollback").Return(nil)
}

func (m *testMocks) assertExpectations(t mock.TestingT) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.accounts.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
	m.tables.AssertExpectations(t)
	m.participants.AssertExpectations(t)
	m.adminActions.AssertExpectations(t)
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultMinPlayers:     models.DefaultMinPlayers,
		DefaultMaxPlayers:     models.DefaultMaxPlayers,
		DefaultCommissionRate: models.DefaultCommissionRate,
		RoundDuration:         5 * time.Minute,
		AdminUserIDs:          []int64{testAdminID},
		Environment:           "test",
	}
}

// chipsEq matches a decimal argument by value
func chipsEq(s string) any {
	want := chips(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func change(before, after string) *models.BalanceChange {
	return &models.BalanceChange{Before: chips(before), After: chips(after)}
}

func testTable(status models.TableStatus, fee string, players int) *models.Table {
	f := chips(fee)
	return &models.Table{
		ID:               uuid.New(),
		CreatedBy:        1,
		Status:           status,
		EntryFee:         f,
		PotAmount:        f.Mul(decimal.NewFromInt(int64(players))),
		MinPlayers:       2,
		MaxPlayers:       10,
		CommissionRate:   5,
		ParticipantCount: players,
	}
}

func seatRow(userID int64, table *models.Table) *models.Participant {
	return &models.Participant{
		ID:             uuid.New(),
		UserID:         userID,
		TableID:        table.ID,
		PredictionKind: models.PredictionExact,
		Stake:          table.EntryFee,
	}
}
