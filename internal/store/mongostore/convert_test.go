package mongostore

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "10", "19.99", "1234567.89"} {
		d := decimal.RequireFromString(s)
		d128, err := toDecimal128(d)
		require.NoError(t, err, s)
		back, err := fromDecimal128(d128)
		require.NoError(t, err, s)
		assert.True(t, d.Equal(back), s)
	}
}

func TestDecimal128OutOfRange(t *testing.T) {
	huge := decimal.New(1, 7000)
	_, err := toDecimal128(huge)
	assert.Error(t, err)

	_, err = newProductDoc(&models.Product{Name: "Huge", Price: huge})
	assert.Error(t, err)

	_, err = newOrderDoc(&models.Order{
		UserID:      primitive.NewObjectID().Hex(),
		TotalAmount: huge,
	})
	assert.Error(t, err, "an unrepresentable total is never stored as zero")

	nan, err := primitive.ParseDecimal128("NaN")
	require.NoError(t, err)
	_, err = fromDecimal128(nan)
	assert.Error(t, err)

	_, err = productDoc{ID: primitive.NewObjectID(), Price: nan}.model()
	assert.Error(t, err)
}

func TestObjectIDRejectsMalformed(t *testing.T) {
	_, err := objectID("not-an-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}

func TestOrderDocConversion(t *testing.T) {
	user := primitive.NewObjectID()
	product := primitive.NewObjectID()
	order := &models.Order{
		UserID: user.Hex(),
		Items: []models.OrderLineItem{
			{ProductID: product.Hex(), Name: "A", Image: models.PlaceholderImage, Price: decimal.RequireFromString("10.00"), Quantity: 3},
		},
		PaymentMethod:  models.PaymentCashOnDelivery,
		TotalAmount:    decimal.RequireFromString("30.00"),
		OrderStatus:    models.OrderStatusPending,
		IdempotencyKey: "k1",
	}

	doc, err := newOrderDoc(order)
	require.NoError(t, err)
	assert.Equal(t, user, doc.User)
	assert.Equal(t, product, doc.Items[0].ProductID)

	back, err := doc.model()
	require.NoError(t, err)
	assert.Equal(t, order.UserID, back.UserID)
	assert.Equal(t, order.Items[0].ProductID, back.Items[0].ProductID)
	assert.True(t, order.TotalAmount.Equal(back.TotalAmount))
	assert.Equal(t, models.OrderStatusPending, back.OrderStatus)
	assert.Equal(t, "k1", back.IdempotencyKey)
}

func TestOrderDocRejectsBadUser(t *testing.T) {
	_, err := newOrderDoc(&models.Order{UserID: "nope"})
	assert.Error(t, err)
}

func TestUserDocModelHasEmptyCart(t *testing.T) {
	u := userDoc{ID: primitive.NewObjectID(), Email: "a@b.c", Role: "customer"}.model()
	assert.NotNil(t, u.CartItems)
	assert.Empty(t, u.CartItems)
}
