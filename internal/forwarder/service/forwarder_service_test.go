package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/sunil55999/TelegramForwarderX/internal/domain/errors"
	"github.com/sunil55999/TelegramForwarderX/internal/domain/models"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
	enginemocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine/mocks"
	repomocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/repository/mocks"
	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/service"
	servicemocks "github.com/sunil55999/TelegramForwarderX/internal/forwarder/service/mocks"
)

type serviceFixture struct {
	pendingRepo  *repomocks.PendingMessageRepository
	mappingRepo  *repomocks.MappingRepository
	logRepo      *repomocks.ForwardingLogRepository
	trackerStore *enginemocks.TrackerStore
	transport    *enginemocks.Transport
	txManager    *servicemocks.Transactor
	service      *service.ForwarderService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		pendingRepo:  new(repomocks.PendingMessageRepository),
		mappingRepo:  new(repomocks.MappingRepository),
		logRepo:      new(repomocks.ForwardingLogRepository),
		trackerStore: new(enginemocks.TrackerStore),
		transport:    new(enginemocks.Transport),
		txManager:    new(servicemocks.Transactor),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.service = service.NewForwarderService(
		f.pendingRepo,
		f.mappingRepo,
		f.logRepo,
		engine.NewMessageTracker(f.trackerStore, logger),
		f.transport,
		f.txManager,
		logger,
	)

	return f
}

func (f *serviceFixture) expectTransaction(t *testing.T) {
	f.txManager.On("WithTransaction", mock.Anything, mock.AnythingOfType("func(context.Context) error")).
		Return(func(ctx context.Context, txFunc func(context.Context) error) error {
			return txFunc(ctx)
		})

	t.Cleanup(func() { f.txManager.AssertExpectations(t) })
}

func awaitingPending(id string) *models.PendingMessage {
	return &models.PendingMessage{
		ID:            id,
		MappingID:     "mapping-1",
		SessionID:     "session-1",
		SourceChatID:  -100,
		MessageID:     10,
		OriginalText:  "оригинал",
		ProcessedText: "обработанный текст",
		Status:        models.PendingApproval,
		CreatedAt:     time.Now(),
	}
}

func TestForwarderService_ApprovePendingMessage(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.expectTransaction(t)

	ctx := context.Background()
	pending := awaitingPending("pending-1")

	f.pendingRepo.On("FindByID", mock.Anything, "pending-1").Return(pending, nil)

	f.pendingRepo.On("UpdateDecision", mock.Anything, mock.MatchedBy(func(p *models.PendingMessage) bool {
		return p.Status == models.PendingApproved &&
			p.DecidedBy == "admin" &&
			p.DecisionComment == "ок" &&
			p.DecidedAt != nil
	})).Return(nil)

	cfg := &models.MappingConfig{
		Mapping: models.Mapping{ID: "mapping-1", DestinationChatID: -200, SyncEnabled: true},
	}
	f.mappingRepo.On("FindConfigByID", mock.Anything, "mapping-1").Return(cfg, nil)

	f.transport.On("Send", mock.Anything, int64(-200), "обработанный текст", (*models.MediaRef)(nil)).
		Return(int64(77), nil)

	f.trackerStore.On("Upsert", mock.Anything, mock.MatchedBy(func(entry *models.TrackerEntry) bool {
		return entry.MappingID == "mapping-1" && entry.DestinationMessageID == int64(77)
	})).Return(nil)

	f.logRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.ForwardingLog) bool {
		return entry.Status == models.StatusSuccess && entry.MappingID == "mapping-1"
	})).Return(nil)

	err := f.service.ApprovePendingMessage(ctx, "pending-1", "admin", "ок")

	require.NoError(t, err)
	f.pendingRepo.AssertExpectations(t)
	f.transport.AssertExpectations(t)
	f.trackerStore.AssertExpectations(t)
	f.logRepo.AssertExpectations(t)
}

func TestForwarderService_ApproveSkipsTrackerWithoutSync(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.expectTransaction(t)

	ctx := context.Background()
	pending := awaitingPending("pending-1")

	f.pendingRepo.On("FindByID", mock.Anything, "pending-1").Return(pending, nil)
	f.pendingRepo.On("UpdateDecision", mock.Anything, mock.Anything).Return(nil)

	cfg := &models.MappingConfig{
		Mapping: models.Mapping{ID: "mapping-1", DestinationChatID: -200, SyncEnabled: false},
	}
	f.mappingRepo.On("FindConfigByID", mock.Anything, "mapping-1").Return(cfg, nil)

	f.transport.On("Send", mock.Anything, int64(-200), "обработанный текст", (*models.MediaRef)(nil)).
		Return(int64(77), nil)

	f.logRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	err := f.service.ApprovePendingMessage(ctx, "pending-1", "admin", "ок")

	require.NoError(t, err)
	// Без синхронизации маппинга связь с назначением не отслеживается.
	f.trackerStore.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestForwarderService_RejectPendingMessageNeverSends(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.expectTransaction(t)

	ctx := context.Background()
	pending := awaitingPending("pending-1")

	f.pendingRepo.On("FindByID", mock.Anything, "pending-1").Return(pending, nil)

	f.pendingRepo.On("UpdateDecision", mock.Anything, mock.MatchedBy(func(p *models.PendingMessage) bool {
		return p.Status == models.PendingRejected && p.DecidedBy == "admin"
	})).Return(nil)

	err := f.service.RejectPendingMessage(ctx, "pending-1", "admin", "не подходит")

	require.NoError(t, err)
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.logRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestForwarderService_AlreadyDecided(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.expectTransaction(t)

	ctx := context.Background()
	pending := awaitingPending("pending-1")
	pending.Status = models.PendingApproved

	f.pendingRepo.On("FindByID", mock.Anything, "pending-1").Return(pending, nil)

	err := f.service.ApprovePendingMessage(ctx, "pending-1", "admin", "")

	require.Error(t, err)

	var decidedErr *domainErrors.ErrPendingAlreadyDecided
	assert.ErrorAs(t, err, &decidedErr)

	f.pendingRepo.AssertNotCalled(t, "UpdateDecision", mock.Anything, mock.Anything)
}

func TestForwarderService_SendFailureRollsBackDecision(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.expectTransaction(t)

	ctx := context.Background()
	pending := awaitingPending("pending-1")

	f.pendingRepo.On("FindByID", mock.Anything, "pending-1").Return(pending, nil)
	f.pendingRepo.On("UpdateDecision", mock.Anything, mock.Anything).Return(nil)

	cfg := &models.MappingConfig{
		Mapping: models.Mapping{ID: "mapping-1", DestinationChatID: -200},
	}
	f.mappingRepo.On("FindConfigByID", mock.Anything, "mapping-1").Return(cfg, nil)

	f.transport.On("Send", mock.Anything, int64(-200), "обработанный текст", (*models.MediaRef)(nil)).
		Return(int64(0), assert.AnError)

	err := f.service.ApprovePendingMessage(ctx, "pending-1", "admin", "")

	require.Error(t, err)

	var sendErr *domainErrors.ErrTransportSend
	assert.ErrorAs(t, err, &sendErr)
}

func TestForwarderService_ListPendingMessages(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	expected := []*models.PendingMessage{awaitingPending("pending-1"), awaitingPending("pending-2")}
	f.pendingRepo.On("FindAwaiting", ctx).Return(expected, nil)

	pendings, err := f.service.ListPendingMessages(ctx)

	require.NoError(t, err)
	assert.Len(t, pendings, 2)
}

func TestForwarderService_OutcomeCounts(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	ctx := context.Background()

	counts := map[models.OutcomeStatus]int64{
		models.StatusSuccess:  10,
		models.StatusFiltered: 3,
	}

	f.logRepo.On("CountByStatusSince", ctx, mock.MatchedBy(func(since time.Time) bool {
		return time.Since(since) > 50*time.Minute
	})).Return(counts, nil)

	result, err := f.service.OutcomeCounts(ctx, time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(10), result[models.StatusSuccess])
}
