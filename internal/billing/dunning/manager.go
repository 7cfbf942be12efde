package dunning

import (
	"context"
	"errors"
	"math"
	"time"

	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/infra/email"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

type Config struct {
	GracePeriod      time.Duration
	MaxRetries       int
	UpdatePaymentURL string
}

// Manager reacts to invoice.payment_failed events: it counts retries, opens
// the grace window on the first failure and escalates when retries run out.
// The only thing that ever clears this state again is a successful payment.
type Manager struct {
	db     *gorm.DB
	mailer email.Mailer
	cfg    Config
	log    zerolog.Logger

	// Now is swappable so escalation-timing tests are deterministic.
	Now func() time.Time
}

func NewManager(db *gorm.DB, mailer email.Mailer, cfg Config, log zerolog.Logger) *Manager {
	return &Manager{
		db:     db,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		Now:    time.Now,
	}
}

// notice captures which emails to send after the transaction committed.
// Mail failures must never roll back billing state, so nothing is sent while
// the transaction is open.
type notice struct {
	to               string
	userName         string
	packageName      string
	firstFailure     bool
	retriesExhausted bool
	daysRemaining    int
}

// HandlePaymentFailed processes one failure delivery. Invoices without a
// subscription reference, and failures for subscriptions we do not track, are
// acked silently: Stripe is the durable source of truth and will redeliver
// anything that matters.
func (m *Manager) HandlePaymentFailed(ctx context.Context, inv *stripe.Invoice) error {
	if inv == nil || inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}
	subID := inv.Subscription.ID

	var n *notice
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subscriptions.Subscription
		err := subscriptions.LockForUpdate(tx).
			Preload("User").
			Preload("Package").
			Where("stripe_subscription_id = ?", subID).
			First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m.log.Debug().Str("stripe_subscription_id", subID).
				Msg("payment failed for untracked subscription, ignoring")
			return nil
		}
		if err != nil {
			return err
		}

		// Terminal rows stay terminal: a stale failure event must not reopen
		// dunning on a cancelled or expired subscription.
		if !subscriptions.CanTransition(sub.Status, subscriptions.StatusPending) {
			m.log.Warn().
				Str("stripe_subscription_id", subID).
				Str("status", string(sub.Status)).
				Msg("payment failed for subscription in terminal state, ignoring")
			return nil
		}

		now := m.Now()
		sub.FailedPaymentRetries++

		updates := map[string]interface{}{
			"failed_payment_retries": sub.FailedPaymentRetries,
			"last_payment_attempt":   now,
		}

		first := !sub.IsInGracePeriod
		if first {
			// Anchor the grace clock once; later provider retries inside the
			// window must not reset the countdown.
			graceEnd := now.Add(m.cfg.GracePeriod)
			sub.IsInGracePeriod = true
			sub.GracePeriodEnd = &graceEnd
			updates["status"] = subscriptions.StatusPending
			updates["is_in_grace_period"] = true
			updates["grace_period_end"] = graceEnd
		}

		if err := tx.Model(&subscriptions.Subscription{}).
			Where("id = ?", sub.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		pkgName := ""
		if sub.Package != nil {
			pkgName = sub.Package.Name
		}
		n = &notice{
			to:           sub.User.Email,
			userName:     sub.User.FullName(),
			packageName:  pkgName,
			firstFailure: first,
		}
		// Escalate exactly once, when the counter lands on the limit. Later
		// failures inside the window stay silent.
		if sub.FailedPaymentRetries == m.cfg.MaxRetries && sub.GracePeriodEnd != nil {
			n.retriesExhausted = true
			// Days remaining come from the stored grace end, not from a fresh
			// fixed window.
			n.daysRemaining = daysUntil(now, *sub.GracePeriodEnd)
		}

		m.log.Info().
			Str("stripe_subscription_id", subID).
			Int("failed_payment_retries", sub.FailedPaymentRetries).
			Bool("grace_period_started", first).
			Int64("amount_due", inv.AmountDue).
			Msg("payment failure recorded")

		return nil
	})
	if err != nil {
		return err
	}

	if n != nil {
		m.sendNotices(n)
	}
	return nil
}

func (m *Manager) sendNotices(n *notice) {
	if m.mailer == nil || n.to == "" {
		return
	}
	if n.firstFailure {
		err := m.mailer.PaymentFailed(n.to, email.PaymentFailedData{
			UserName:         n.userName,
			GracePeriodDays:  int(m.cfg.GracePeriod.Hours() / 24),
			PackageName:      n.packageName,
			UpdatePaymentURL: m.cfg.UpdatePaymentURL,
		})
		if err != nil {
			m.log.Warn().Err(err).Str("to", n.to).Msg("payment failed notice not sent")
		}
	}
	if n.retriesExhausted {
		err := m.mailer.GracePeriodEnding(n.to, email.GracePeriodEndingData{
			UserName:         n.userName,
			PackageName:      n.packageName,
			DaysRemaining:    n.daysRemaining,
			UpdatePaymentURL: m.cfg.UpdatePaymentURL,
		})
		if err != nil {
			m.log.Warn().Err(err).Str("to", n.to).Msg("grace period ending notice not sent")
		}
	}
}

func daysUntil(now, deadline time.Time) int {
	if !deadline.After(now) {
		return 0
	}
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}
