package email

type PaymentFailedData struct {
	UserName         string
	GracePeriodDays  int
	PackageName      string
	UpdatePaymentURL string
}

type GracePeriodEndingData struct {
	UserName         string
	PackageName      string
	DaysRemaining    int
	UpdatePaymentURL string
}

// Mailer sends dunning notices. Sends are best-effort: callers log failures
// and move on, they never roll back billing state over a flaky SMTP server.
type Mailer interface {
	PaymentFailed(to string, data PaymentFailedData) error
	GracePeriodEnding(to string, data GracePeriodEndingData) error
}
