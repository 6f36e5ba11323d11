package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type orderItemDoc struct {
	ProductID primitive.ObjectID   `bson:"productId"`
	Name      string               `bson:"name"`
	Image     string               `bson:"image"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int                  `bson:"quantity"`
}

type orderDoc struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty"`
	User            primitive.ObjectID     `bson:"user"`
	Items           []orderItemDoc         `bson:"items"`
	ShippingAddress models.ShippingAddress `bson:"shippingAddress"`
	PaymentMethod   string                 `bson:"paymentMethod"`
	TotalAmount     primitive.Decimal128   `bson:"totalAmount"`
	OrderStatus     string                 `bson:"orderStatus"`
	DeliveredAt     *time.Time             `bson:"deliveredAt,omitempty"`
	IdempotencyKey  string                 `bson:"idempotencyKey,omitempty"`
	CreatedAt       time.Time              `bson:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt"`
}

func newOrderDoc(o *models.Order) (orderDoc, error) {
	user, err := primitive.ObjectIDFromHex(o.UserID)
	if err != nil {
		return orderDoc{}, errors.Wrapf(err, "order user id %q", o.UserID)
	}

	items := make([]orderItemDoc, 0, len(o.Items))
	for _, li := range o.Items {
		pid, err := primitive.ObjectIDFromHex(li.ProductID)
		if err != nil {
			return orderDoc{}, errors.Wrapf(err, "order product id %q", li.ProductID)
		}
		price, err := toDecimal128(li.Price)
		if err != nil {
			return orderDoc{}, errors.Wrapf(err, "order line %q price", li.Name)
		}
		items = append(items, orderItemDoc{
			ProductID: pid,
			Name:      li.Name,
			Image:     li.Image,
			Price:     price,
			Quantity:  li.Quantity,
		})
	}

	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return orderDoc{}, errors.Wrap(err, "order total")
	}

	return orderDoc{
		User:            user,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		TotalAmount:     total,
		OrderStatus:     string(o.OrderStatus),
		DeliveredAt:     o.DeliveredAt,
		IdempotencyKey:  o.IdempotencyKey,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}, nil
}

func (d orderDoc) model() (models.Order, error) {
	items := make([]models.OrderLineItem, 0, len(d.Items))
	for _, li := range d.Items {
		price, err := fromDecimal128(li.Price)
		if err != nil {
			return models.Order{}, errors.Wrapf(err, "order %s line price", d.ID.Hex())
		}
		items = append(items, models.OrderLineItem{
			ProductID: li.ProductID.Hex(),
			Name:      li.Name,
			Image:     li.Image,
			Price:     price,
			Quantity:  li.Quantity,
		})
	}
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return models.Order{}, errors.Wrapf(err, "order %s total", d.ID.Hex())
	}
	return models.Order{
		ID:              d.ID.Hex(),
		UserID:          d.User.Hex(),
		Items:           items,
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   d.PaymentMethod,
		TotalAmount:     total,
		OrderStatus:     models.OrderStatus(d.OrderStatus),
		DeliveredAt:     d.DeliveredAt,
		IdempotencyKey:  d.IdempotencyKey,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	doc, err := newOrderDoc(order)
	if err != nil {
		return err
	}

	res, err := s.orders.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return errors.Wrap(err, "insert order")
	}
	order.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	var doc orderDoc
	if err := s.orders.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err, "find order")
	}
	o, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOrder(ctx, bson.M{"_id": oid})
}

func (s *Store) FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	user, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	return s.findOrder(ctx, bson.M{"user": user, "idempotencyKey": key})
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		user, err := objectID(filter.UserID)
		if err != nil {
			return []models.Order{}, nil
		}
		query["user"] = user
	}

	created := bson.M{}
	if !filter.CreatedFrom.IsZero() {
		created["$gte"] = filter.CreatedFrom
	}
	if !filter.CreatedTo.IsZero() {
		created["$lte"] = filter.CreatedTo
	}
	if len(created) > 0 {
		query["createdAt"] = created
	}
	if filter.ExcludeStatus != "" {
		query["orderStatus"] = bson.M{"$ne": string(filter.ExcludeStatus)}
	}

	cur, err := s.orders.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	for cur.Next(ctx) {
		var doc orderDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode order")
		}
		o, err := doc.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, errors.Wrap(cur.Err(), "iterate orders")
}

func (s *Store) UpdateOrderStatus(ctx context.Context, order *models.Order) error {
	oid, err := objectID(order.ID)
	if err != nil {
		return err
	}
	order.UpdatedAt = s.now()

	update := bson.M{"$set": bson.M{
		"orderStatus": string(order.OrderStatus),
		"updatedAt":   order.UpdatedAt,
	}}
	if order.DeliveredAt != nil {
		update["$set"].(bson.M)["deliveredAt"] = *order.DeliveredAt
	} else {
		update["$unset"] = bson.M{"deliveredAt": ""}
	}

	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
