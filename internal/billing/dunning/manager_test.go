package dunning

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/domain/users"
	"coachmarket/internal/infra/email"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMailer struct {
	failedNotices    []email.PaymentFailedData
	endingNotices    []email.GracePeriodEndingData
	failedRecipients []string
	err              error
}

func (m *recordingMailer) PaymentFailed(to string, data email.PaymentFailedData) error {
	m.failedRecipients = append(m.failedRecipients, to)
	m.failedNotices = append(m.failedNotices, data)
	return m.err
}

func (m *recordingMailer) GracePeriodEnding(_ string, data email.GracePeriodEndingData) error {
	m.endingNotices = append(m.endingNotices, data)
	return m.err
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&users.User{}, &packages.PackageTemplate{}, &subscriptions.Subscription{},
	))
	return db
}

func strPtr(s string) *string { return &s }

func seedSubscription(t *testing.T, db *gorm.DB, stripeSubID string) *subscriptions.Subscription {
	t.Helper()
	user := users.User{Name: "Lena", Lastname: "Kovac", Email: "lena@example.com", Role: users.RoleClient}
	require.NoError(t, db.Create(&user).Error)

	pkg := packages.PackageTemplate{
		Name:            "Yearly Coaching",
		StripePriceID:   "price_" + stripeSubID,
		StripeLookupKey: "lookup_" + stripeSubID,
		Interval:        packages.IntervalYear,
	}
	require.NoError(t, db.Create(&pkg).Error)

	sub := subscriptions.Subscription{
		UserID:               user.ID,
		PackageID:            pkg.ID,
		StripeSubscriptionID: strPtr(stripeSubID),
		Status:               subscriptions.StatusActive,
		StartDate:            time.Now().AddDate(0, -2, 0),
		EndDate:              time.Now().AddDate(0, 10, 0),
	}
	require.NoError(t, db.Create(&sub).Error)
	return &sub
}

func newManager(db *gorm.DB, mailer email.Mailer) *Manager {
	return NewManager(db, mailer, Config{
		GracePeriod:      72 * time.Hour,
		MaxRetries:       3,
		UpdatePaymentURL: "https://app.example.com/account/billing",
	}, zerolog.Nop())
}

func failedInvoice(subID string) *stripe.Invoice {
	return &stripe.Invoice{
		ID:           "in_" + subID,
		AmountDue:    4900,
		Subscription: &stripe.Subscription{ID: subID},
	}
}

func TestHandlePaymentFailed_NoSubscriptionReference(t *testing.T) {
	// A nil db proves the handler never touches storage for these deliveries.
	m := newManager(nil, &recordingMailer{})

	assert.NoError(t, m.HandlePaymentFailed(context.Background(), nil))
	assert.NoError(t, m.HandlePaymentFailed(context.Background(), &stripe.Invoice{ID: "in_1"}))
	assert.NoError(t, m.HandlePaymentFailed(context.Background(), &stripe.Invoice{
		ID:           "in_2",
		Subscription: &stripe.Subscription{},
	}))
}

func TestHandlePaymentFailed_UntrackedSubscription(t *testing.T) {
	db := testDB(t)
	mailer := &recordingMailer{}
	m := newManager(db, mailer)

	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_unknown")))
	assert.Empty(t, mailer.failedNotices)
}

func TestHandlePaymentFailed_FirstFailureOpensGraceWindow(t *testing.T) {
	db := testDB(t)
	mailer := &recordingMailer{}
	m := newManager(db, mailer)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	seeded := seedSubscription(t, db, "sub_123")
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_123")))

	var sub subscriptions.Subscription
	require.NoError(t, db.First(&sub, seeded.ID).Error)
	assert.Equal(t, subscriptions.StatusPending, sub.Status)
	assert.True(t, sub.IsInGracePeriod)
	assert.Equal(t, 1, sub.FailedPaymentRetries)
	require.NotNil(t, sub.GracePeriodEnd)
	assert.WithinDuration(t, now.Add(72*time.Hour), *sub.GracePeriodEnd, time.Second)
	require.NotNil(t, sub.LastPaymentAttempt)

	require.Len(t, mailer.failedNotices, 1)
	assert.Equal(t, []string{"lena@example.com"}, mailer.failedRecipients)
	assert.Equal(t, "Lena Kovac", mailer.failedNotices[0].UserName)
	assert.Equal(t, 3, mailer.failedNotices[0].GracePeriodDays)
	assert.Equal(t, "Yearly Coaching", mailer.failedNotices[0].PackageName)
	assert.Empty(t, mailer.endingNotices)
}

func TestHandlePaymentFailed_RetryDoesNotExtendGraceWindow(t *testing.T) {
	db := testDB(t)
	mailer := &recordingMailer{}
	m := newManager(db, mailer)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	seeded := seedSubscription(t, db, "sub_456")
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_456")))

	var afterFirst subscriptions.Subscription
	require.NoError(t, db.First(&afterFirst, seeded.ID).Error)
	firstGraceEnd := *afterFirst.GracePeriodEnd

	// Provider retries a day later, still inside the window.
	m.Now = func() time.Time { return now.Add(24 * time.Hour) }
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_456")))

	var sub subscriptions.Subscription
	require.NoError(t, db.First(&sub, seeded.ID).Error)
	assert.Equal(t, 2, sub.FailedPaymentRetries)
	require.NotNil(t, sub.GracePeriodEnd)
	assert.WithinDuration(t, firstGraceEnd, *sub.GracePeriodEnd, time.Second,
		"retries inside the window must not move the grace deadline")

	// Only the first failure sends the payment-failed notice.
	assert.Len(t, mailer.failedNotices, 1)
	assert.Empty(t, mailer.endingNotices)
}

func TestHandlePaymentFailed_EscalatesWhenRetriesExhausted(t *testing.T) {
	db := testDB(t)
	mailer := &recordingMailer{}
	m := newManager(db, mailer)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	seedSubscription(t, db, "sub_789")
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_789")))

	m.Now = func() time.Time { return now.Add(24 * time.Hour) }
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_789")))
	assert.Empty(t, mailer.endingNotices)

	// Third failure two days in: one day of grace remains.
	m.Now = func() time.Time { return now.Add(48 * time.Hour) }
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_789")))

	require.Len(t, mailer.endingNotices, 1)
	assert.Equal(t, 1, mailer.endingNotices[0].DaysRemaining)
	assert.Equal(t, "Yearly Coaching", mailer.endingNotices[0].PackageName)

	// Failures past the limit stay silent; the escalation fires exactly once.
	m.Now = func() time.Time { return now.Add(60 * time.Hour) }
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_789")))
	assert.Len(t, mailer.endingNotices, 1)
}

func TestHandlePaymentFailed_TerminalSubscriptionIgnored(t *testing.T) {
	db := testDB(t)
	mailer := &recordingMailer{}
	m := newManager(db, mailer)

	seeded := seedSubscription(t, db, "sub_dead")
	require.NoError(t, db.Model(&subscriptions.Subscription{}).
		Where("id = ?", seeded.ID).
		Update("status", subscriptions.StatusCancelled).Error)

	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_dead")))

	var sub subscriptions.Subscription
	require.NoError(t, db.First(&sub, seeded.ID).Error)
	assert.Equal(t, subscriptions.StatusCancelled, sub.Status,
		"a stale failure must not reopen dunning on a cancelled subscription")
	assert.Equal(t, 0, sub.FailedPaymentRetries)
	assert.False(t, sub.IsInGracePeriod)
	assert.Empty(t, mailer.failedNotices)
	assert.Empty(t, mailer.endingNotices)
}

func TestHandlePaymentFailed_MailerFailureDoesNotFail(t *testing.T) {
	db := testDB(t)
	mailer := &recordingMailer{err: errors.New("smtp refused")}
	m := newManager(db, mailer)

	seeded := seedSubscription(t, db, "sub_mail")
	require.NoError(t, m.HandlePaymentFailed(context.Background(), failedInvoice("sub_mail")))

	// Billing state committed despite the mail failure.
	var sub subscriptions.Subscription
	require.NoError(t, db.First(&sub, seeded.ID).Error)
	assert.True(t, sub.IsInGracePeriod)
	assert.Equal(t, 1, sub.FailedPaymentRetries)
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, daysUntil(now, now))
	assert.Equal(t, 0, daysUntil(now, now.Add(-time.Hour)))
	assert.Equal(t, 1, daysUntil(now, now.Add(time.Hour)))
	assert.Equal(t, 1, daysUntil(now, now.Add(24*time.Hour)))
	assert.Equal(t, 2, daysUntil(now, now.Add(25*time.Hour)))
	assert.Equal(t, 3, daysUntil(now, now.Add(72*time.Hour)))
}
