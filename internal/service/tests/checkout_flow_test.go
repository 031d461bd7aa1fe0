package tests

import (
	"errors"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/payment"
	"github.com/dabd2323/music-store/internal/service"
)

func (s *IntegrationTestSuite) startCheckout(userID int64) *domain.CheckoutResponse {
	resp, err := s.Checkout.CreateSession(s.Ctx, userID, &domain.CheckoutRequest{
		Origin: "https://store.test",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.SessionID)
	s.Require().NotEmpty(resp.CheckoutURL)

	return resp
}

func (s *IntegrationTestSuite) TestCheckout_EmptyCart() {
	userID := s.seedUser("empty@store.test")

	_, err := s.Checkout.CreateSession(s.Ctx, userID, &domain.CheckoutRequest{
		Origin: "https://store.test",
	})
	s.Require().ErrorIs(err, service.ErrEmptyCart)

	var count int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count))
	s.Require().Zero(count, "no order may be created for an empty cart")
}

func (s *IntegrationTestSuite) TestCheckout_DeactivatedProductFailsSession() {
	userID := s.seedUser("gone@store.test")
	keepID := s.seedProduct("Abbey Road", 999)
	goneID := s.seedProduct("Withdrawn Single", 1299)
	s.addToCart(userID, keepID, 1)
	s.addToCart(userID, goneID, 1)

	_, err := s.DbPool.Exec(s.Ctx, `UPDATE products SET active = FALSE WHERE id = $1`, goneID)
	s.Require().NoError(err)

	_, err = s.Checkout.CreateSession(s.Ctx, userID, &domain.CheckoutRequest{
		Origin: "https://store.test",
	})

	var invalid *service.InvalidCartItemError
	s.Require().True(errors.As(err, &invalid), "a deactivated carted product must fail the attempt")
	s.Require().Equal(goneID, invalid.ProductID)

	var count int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count))
	s.Require().Zero(count, "no partial order may be created")
}

func (s *IntegrationTestSuite) TestCheckout_PendingUntilProcessorConfirms() {
	userID := s.seedUser("pending@store.test")
	productID := s.seedProduct("Abbey Road", 999, "Come Together", "Something")
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)
	s.Require().Equal("pending", s.orderStatus(resp.OrderID))

	status, err := s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
	s.Require().NoError(err)
	s.Require().Equal(domain.PaymentStatusPending, status.PaymentStatus)
	s.Require().Empty(status.Grants)
}

func (s *IntegrationTestSuite) TestCheckout_PaidFlowIsIdempotent() {
	userID := s.seedUser("buyer@store.test")
	productID := s.seedProduct("Abbey Road", 999, "Come Together", "Something")
	s.addToCart(userID, productID, 2)

	resp := s.startCheckout(userID)
	s.Payments.setState(resp.SessionID, payment.SessionStatusComplete, payment.PaymentStatusPaid)

	// poll repeatedly, every confirmation must agree
	var firstGrants []domain.DownloadGrant
	for i := 0; i < 5; i++ {
		status, err := s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
		s.Require().NoError(err)
		s.Require().Equal(domain.PaymentStatusPaid, status.PaymentStatus)
		s.Require().Len(status.Grants, 2)

		if firstGrants == nil {
			firstGrants = status.Grants
		} else {
			s.Require().Equal(firstGrants, status.Grants, "repeated polls must return identical grants")
		}
	}

	s.Require().Equal("paid", s.orderStatus(resp.OrderID))

	// cart cleared exactly once with the winning confirmation
	items, err := s.CartRepo.GetItems(s.Ctx, userID)
	s.Require().NoError(err)
	s.Require().Empty(items)

	// a single OrderPaid event regardless of poll count
	var events int
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = 'OrderPaid'`,
	).Scan(&events))
	s.Require().Equal(1, events)
}

func (s *IntegrationTestSuite) TestCheckout_ExpiredStaysExpired() {
	userID := s.seedUser("late@store.test")
	productID := s.seedProduct("Kind of Blue", 1499)
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)
	s.Payments.setState(resp.SessionID, payment.SessionStatusExpired, payment.PaymentStatusUnpaid)

	status, err := s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
	s.Require().NoError(err)
	s.Require().Equal(domain.PaymentStatusExpired, status.PaymentStatus)

	// a late paid report must not resurrect the order
	s.Payments.setState(resp.SessionID, payment.SessionStatusComplete, payment.PaymentStatusPaid)

	status, err = s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
	s.Require().NoError(err)
	s.Require().Equal(domain.PaymentStatusExpired, status.PaymentStatus)
	s.Require().Empty(status.Grants)
	s.Require().Equal("expired", s.orderStatus(resp.OrderID))
}

func (s *IntegrationTestSuite) TestCheckout_TransientProcessorErrorKeepsPending() {
	userID := s.seedUser("flaky@store.test")
	productID := s.seedProduct("Blue Train", 899)
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)

	s.Payments.failNext = service.ErrPaymentUnavailable

	status, err := s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
	s.Require().NoError(err)
	s.Require().Equal(domain.PaymentStatusPending, status.PaymentStatus)
	s.Require().Equal("pending", s.orderStatus(resp.OrderID))
}

func (s *IntegrationTestSuite) TestCheckout_NoRetroactiveRepricing() {
	userID := s.seedUser("reprice@store.test")
	productID := s.seedProduct("Abbey Road", 999)
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)

	// catalog price changes after checkout started
	_, err := s.DbPool.Exec(s.Ctx, `UPDATE products SET price = 5000 WHERE id = $1`, productID)
	s.Require().NoError(err)

	order, err := s.OrderRepo.GetOrderByID(s.Ctx, resp.OrderID)
	s.Require().NoError(err)
	s.Require().Equal(int64(999), order.Amount)
	s.Require().Equal(int64(999), order.Items[0].Price)
}

func (s *IntegrationTestSuite) TestCheckout_SessionHiddenFromOtherUsers() {
	userID := s.seedUser("owner@store.test")
	otherID := s.seedUser("other@store.test")
	productID := s.seedProduct("Blue Train", 899)
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)

	_, err := s.Checkout.SessionStatus(s.Ctx, otherID, resp.SessionID)
	s.Require().Error(err)
}

func (s *IntegrationTestSuite) TestWebhook_ConfirmsPaymentOnce() {
	userID := s.seedUser("hook@store.test")
	productID := s.seedProduct("Abbey Road", 999, "Come Together")
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)
	s.Payments.setState(resp.SessionID, payment.SessionStatusComplete, payment.PaymentStatusPaid)

	s.Require().NoError(s.Checkout.HandleSessionEvent(s.Ctx, resp.SessionID))
	s.Require().Equal("paid", s.orderStatus(resp.OrderID))

	// processors redeliver, the second event must be a no-op
	s.Require().NoError(s.Checkout.HandleSessionEvent(s.Ctx, resp.SessionID))

	status, err := s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
	s.Require().NoError(err)
	s.Require().Equal(domain.PaymentStatusPaid, status.PaymentStatus)
	s.Require().Len(status.Grants, 1)

	var events int
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = 'OrderPaid'`,
	).Scan(&events))
	s.Require().Equal(1, events)
}

func (s *IntegrationTestSuite) TestWebhook_ExpiredEventNeverResurrects() {
	userID := s.seedUser("hookexp@store.test")
	productID := s.seedProduct("Kind of Blue", 1499)
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)
	s.Payments.setState(resp.SessionID, payment.SessionStatusExpired, payment.PaymentStatusUnpaid)

	s.Require().NoError(s.Checkout.HandleSessionEvent(s.Ctx, resp.SessionID))
	s.Require().Equal("expired", s.orderStatus(resp.OrderID))

	// a late paid delivery against the settled order changes nothing
	s.Payments.setState(resp.SessionID, payment.SessionStatusComplete, payment.PaymentStatusPaid)
	s.Require().NoError(s.Checkout.HandleSessionEvent(s.Ctx, resp.SessionID))
	s.Require().Equal("expired", s.orderStatus(resp.OrderID))
}

func (s *IntegrationTestSuite) TestSweeper_ExpiresStalePendingOrders() {
	userID := s.seedUser("stale@store.test")
	productID := s.seedProduct("Old Cart", 500)
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)

	_, err := s.DbPool.Exec(
		s.Ctx,
		`UPDATE orders SET created_at = NOW() - INTERVAL '2 days' WHERE id = $1`,
		resp.OrderID,
	)
	s.Require().NoError(err)

	s.Require().NoError(s.Sweeper.Sweep(s.Ctx))
	s.Require().Equal("expired", s.orderStatus(resp.OrderID))

	// sweeping again is a no-op
	s.Require().NoError(s.Sweeper.Sweep(s.Ctx))
	s.Require().Equal("expired", s.orderStatus(resp.OrderID))
}

func (s *IntegrationTestSuite) TestDownloads_TokenResolvesAfterPayment() {
	userID := s.seedUser("dl@store.test")
	productID := s.seedProduct("Abbey Road", 999, "Come Together")
	s.addToCart(userID, productID, 1)

	resp := s.startCheckout(userID)
	s.Payments.setState(resp.SessionID, payment.SessionStatusComplete, payment.PaymentStatusPaid)

	status, err := s.Checkout.SessionStatus(s.Ctx, userID, resp.SessionID)
	s.Require().NoError(err)
	s.Require().Len(status.Grants, 1)

	grant, err := s.Downloads.ResolveToken(s.Ctx, status.Grants[0].Token)
	s.Require().NoError(err)
	s.Require().Equal(resp.OrderID, grant.OrderID)
	s.Require().Equal(productID, grant.ProductID)
}
