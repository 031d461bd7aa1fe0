package tests

import (
	"context"
	"sync"
	"testing"

	"github.com/dabd2323/music-store/internal/payment"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/internal/service"
	pkgkafka "github.com/dabd2323/music-store/pkg/kafka"
	outboxRepository "github.com/dabd2323/music-store/pkg/outbox/repository"
	"github.com/dabd2323/music-store/pkg/outbox/worker"
	"github.com/dabd2323/music-store/pkg/testsuite"
	"github.com/dabd2323/music-store/pkg/utils"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// fakePaymentClient stands in for the external processor so the tests
// can steer session states without the network.
type fakePaymentClient struct {
	mu       sync.Mutex
	sessions map[string]*payment.Session
	nextID   int
	failNext error
}

func newFakePaymentClient() *fakePaymentClient {
	return &fakePaymentClient{sessions: make(map[string]*payment.Session)}
}

func (f *fakePaymentClient) CreateSession(_ context.Context, req *payment.CreateSessionRequest) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}

	f.nextID++
	var amount int64
	for _, item := range req.Items {
		amount += item.Amount * int64(item.Quantity)
	}

	session := &payment.Session{
		ID:            "cs_test_" + req.Reference,
		URL:           "https://checkout.test/pay/" + req.Reference,
		Status:        payment.SessionStatusOpen,
		PaymentStatus: payment.PaymentStatusUnpaid,
		AmountTotal:   amount,
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakePaymentClient) GetSession(_ context.Context, sessionID string) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}

	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakePaymentClient) setState(sessionID, status, paymentStatus string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if session, ok := f.sessions[sessionID]; ok {
		session.Status = status
		session.PaymentStatus = paymentStatus
	}
}

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	UserRepo        repository.UserRepository
	ProductRepo     repository.ProductRepository
	CartRepo        repository.CartRepository
	OrderRepo       repository.OrderRepository
	Checkout        service.CheckoutService
	Downloads       service.DownloadService
	Sweeper         *service.Sweeper
	Payments        *fakePaymentClient
	TestProducer    pkgkafka.Producer
	OutboxProcessor *worker.OutboxProcessor
	workerCancel    context.CancelFunc
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("users")
	s.BaseSuite.TruncateTable("products")
	s.BaseSuite.TruncateTable("carts")
	s.BaseSuite.TruncateTable("orders")
	s.BaseSuite.TruncateTable("payment_transactions")
	s.BaseSuite.TruncateTable("download_grants")
	s.BaseSuite.TruncateTable("outbox")

	logger := zap.NewNop()

	s.UserRepo = repository.NewUserRepository(s.DbPool, logger)
	s.ProductRepo = repository.NewProductRepository(s.DbPool, logger)
	s.CartRepo = repository.NewCartRepository(s.DbPool, logger)
	s.OrderRepo = repository.NewOrderRepository(s.DbPool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)

	var err error
	s.TestProducer, err = pkgkafka.NewProducer(s.KafkaBrokers)
	s.Require().NoError(err, "failed to create kafka producer")

	s.Payments = newFakePaymentClient()

	pricing := service.NewPricingEngine()
	s.Downloads = service.NewDownloadService("integration-key", s.OrderRepo, logger)

	s.Checkout = service.NewCheckoutService(
		s.DbPool,
		logger,
		s.CartRepo,
		s.ProductRepo,
		s.OrderRepo,
		s.UserRepo,
		outboxRepo,
		pricing,
		s.Downloads,
		s.Payments,
		utils.NewBreaker("TestPayments", logger),
	)

	s.Sweeper = service.NewSweeper(s.OrderRepo, s.Checkout, logger, 0, 0)

	s.OutboxProcessor = worker.NewOutboxProcessor(s.DbPool, outboxRepo, s.TestProducer, logger)

	workerCtx, cancel := context.WithCancel(s.Ctx)
	s.workerCancel = cancel

	go s.OutboxProcessor.Start(workerCtx)
}

func (s *IntegrationTestSuite) TearDownTest() {
	if s.workerCancel != nil {
		s.workerCancel()
	}
}

func (s *IntegrationTestSuite) seedUser(email string) int64 {
	var id int64
	err := s.DbPool.QueryRow(
		s.Ctx,
		`INSERT INTO users (email, name, password_hash, role) VALUES ($1, 'Test', 'x', 'user') RETURNING id`,
		email,
	).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *IntegrationTestSuite) seedProduct(name string, price int64, trackTitles ...string) int64 {
	var id int64
	err := s.DbPool.QueryRow(
		s.Ctx,
		`INSERT INTO products (name, artist, price, category) VALUES ($1, 'Test Artist', $2, 'album') RETURNING id`,
		name, price,
	).Scan(&id)
	s.Require().NoError(err)

	for i, title := range trackTitles {
		_, err := s.DbPool.Exec(
			s.Ctx,
			`INSERT INTO product_tracks (product_id, position, title) VALUES ($1, $2, $3)`,
			id, i+1, title,
		)
		s.Require().NoError(err)
	}

	return id
}

func (s *IntegrationTestSuite) addToCart(userID, productID int64, quantity int32) {
	_, err := s.DbPool.Exec(
		s.Ctx,
		`INSERT INTO carts (user_id, product_id, quantity) VALUES ($1, $2, $3)`,
		userID, productID, quantity,
	)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) orderStatus(orderID int64) string {
	var status string
	err := s.DbPool.QueryRow(s.Ctx, `SELECT payment_status FROM orders WHERE id = $1`, orderID).Scan(&status)
	s.Require().NoError(err)
	return status
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
