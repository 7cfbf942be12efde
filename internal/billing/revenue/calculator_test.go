package revenue

import (
	"context"
	"errors"
	"testing"

	"coachmarket/internal/domain/teams"
	"coachmarket/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePrices struct {
	prices map[string]int64
	err    error
}

func (f *fakePrices) GetPrice(_ context.Context, id string) (*stripe.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	amount, ok := f.prices[id]
	if !ok {
		return nil, errors.New("no such price")
	}
	return &stripe.Price{ID: id, UnitAmount: amount}, nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &teams.Team{}, &teams.TeamMember{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestCalculateRevenueSharing_SplitSumsExactly(t *testing.T) {
	cases := []struct {
		name  string
		items []LineItem
	}{
		{"single item", []LineItem{{UnitAmount: 10000, Quantity: 1}}},
		{"two items", []LineItem{{UnitAmount: 10000, Quantity: 1}, {UnitAmount: 5000, Quantity: 2}}},
		{"odd cents", []LineItem{{UnitAmount: 10005, Quantity: 1}}},
		{"tiny amount", []LineItem{{UnitAmount: 3, Quantity: 1}}},
		{"large quantity", []LineItem{{UnitAmount: 999, Quantity: 37}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			share, err := CalculateRevenueSharing(context.Background(), &fakePrices{}, tc.items, DefaultFeePercent)
			require.NoError(t, err)
			assert.Equal(t, share.TotalAmount, share.ApplicationFeeAmount+share.TrainerPayoutAmount,
				"fee and payout must sum to the total exactly")
		})
	}
}

func TestCalculateRevenueSharing_EndToEndExample(t *testing.T) {
	// $100 plus $50 x 2 => $200 total, $20 fee, $180 payout
	items := []LineItem{
		{UnitAmount: 10000, Quantity: 1},
		{UnitAmount: 5000, Quantity: 2},
	}
	share, err := CalculateRevenueSharing(context.Background(), &fakePrices{}, items, DefaultFeePercent)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), share.TotalAmount)
	assert.Equal(t, int64(2000), share.ApplicationFeeAmount)
	assert.Equal(t, int64(18000), share.TrainerPayoutAmount)
}

func TestCalculateRevenueSharing_EmptyItems(t *testing.T) {
	share, err := CalculateRevenueSharing(context.Background(), &fakePrices{}, nil, DefaultFeePercent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), share.TotalAmount)
	assert.Equal(t, int64(0), share.ApplicationFeeAmount)
	assert.Equal(t, int64(0), share.TrainerPayoutAmount)
}

func TestCalculateRevenueSharing_PriceLookup(t *testing.T) {
	prices := &fakePrices{prices: map[string]int64{"price_abc": 2500}}
	items := []LineItem{
		{PriceID: "price_abc", Quantity: 2},
		{UnitAmount: 1000, Quantity: 1},
	}
	share, err := CalculateRevenueSharing(context.Background(), prices, items, DefaultFeePercent)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), share.TotalAmount)
	assert.Equal(t, int64(600), share.ApplicationFeeAmount)
	assert.Equal(t, int64(5400), share.TrainerPayoutAmount)
}

func TestCalculateRevenueSharing_PriceLookupError(t *testing.T) {
	prices := &fakePrices{err: errors.New("stripe down")}
	_, err := CalculateRevenueSharing(context.Background(), prices,
		[]LineItem{{PriceID: "price_abc", Quantity: 1}}, DefaultFeePercent)
	assert.Error(t, err)
}

func TestGetPayoutDestination_PrefersTeamAccount(t *testing.T) {
	db := testDB(t)

	trainer := users.User{
		Name: "Mara", Email: "mara@example.com", Role: users.RoleTrainer,
		StripeConnectAccountID: strPtr("acct_individual"),
	}
	require.NoError(t, db.Create(&trainer).Error)

	team := teams.Team{Name: "Iron Club", OwnerID: trainer.ID, StripeConnectAccountID: strPtr("acct_team")}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&teams.TeamMember{TeamID: team.ID, UserID: trainer.ID}).Error)

	dest, err := GetPayoutDestination(db, trainer.ID)
	require.NoError(t, err)
	assert.Equal(t, "acct_team", dest.ConnectedAccountID)
	assert.Equal(t, DestinationTeam, dest.Destination)
	assert.Equal(t, "team:Iron Club", dest.DisplayName)
}

func TestGetPayoutDestination_FallsBackToIndividual(t *testing.T) {
	db := testDB(t)

	trainer := users.User{
		Name: "Jo", Email: "jo@example.com", Role: users.RoleTrainer,
		StripeConnectAccountID: strPtr("acct_individual"),
	}
	require.NoError(t, db.Create(&trainer).Error)

	// Team without a connected account must not win.
	team := teams.Team{Name: "No Account Crew", OwnerID: trainer.ID}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&teams.TeamMember{TeamID: team.ID, UserID: trainer.ID}).Error)

	dest, err := GetPayoutDestination(db, trainer.ID)
	require.NoError(t, err)
	assert.Equal(t, "acct_individual", dest.ConnectedAccountID)
	assert.Equal(t, DestinationIndividual, dest.Destination)
	assert.Equal(t, DestinationIndividual, dest.DisplayName)
}

func TestGetPayoutDestination_None(t *testing.T) {
	db := testDB(t)

	trainer := users.User{Name: "Sam", Email: "sam@example.com", Role: users.RoleTrainer}
	require.NoError(t, db.Create(&trainer).Error)

	dest, err := GetPayoutDestination(db, trainer.ID)
	require.NoError(t, err)
	assert.Empty(t, dest.ConnectedAccountID)
	assert.Equal(t, DestinationNone, dest.Destination)
	assert.Equal(t, DestinationNone, dest.DisplayName)
}

func TestCreatePaymentIntentData(t *testing.T) {
	share := RevenueShare{TotalAmount: 20000, ApplicationFeeAmount: 2000, TrainerPayoutAmount: 18000}

	t.Run("nil without destination account", func(t *testing.T) {
		dest := PayoutDestination{Destination: DestinationNone, DisplayName: DestinationNone}
		assert.Nil(t, CreatePaymentIntentData(dest, share, 7))
	})

	t.Run("nil with zero fee", func(t *testing.T) {
		dest := PayoutDestination{ConnectedAccountID: "acct_x", Destination: DestinationIndividual, DisplayName: DestinationIndividual}
		assert.Nil(t, CreatePaymentIntentData(dest, RevenueShare{}, 7))
	})

	t.Run("populated", func(t *testing.T) {
		dest := PayoutDestination{ConnectedAccountID: "acct_x", Destination: DestinationTeam, DisplayName: "team:Iron Club"}
		data := CreatePaymentIntentData(dest, share, 7)
		require.NotNil(t, data)
		assert.Equal(t, int64(2000), *data.ApplicationFeeAmount)
		assert.Equal(t, "acct_x", *data.OnBehalfOf)
		require.NotNil(t, data.TransferData)
		assert.Equal(t, "acct_x", *data.TransferData.Destination)
		assert.Equal(t, "7", data.Metadata["trainer_id"])
		assert.Equal(t, "2000", data.Metadata["application_fee"])
		assert.Equal(t, "18000", data.Metadata["trainer_payout"])
		assert.Equal(t, "true", data.Metadata["revenue_share"])
		assert.Equal(t, "team:Iron Club", data.Metadata["payout_destination"])
	})
}
