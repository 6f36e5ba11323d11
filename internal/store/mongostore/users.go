package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

type cartItemDoc struct {
	Product  primitive.ObjectID `bson:"product"`
	Quantity int                `bson:"quantity"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CartItems []cartItemDoc      `bson:"cartItems"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func newCartDocs(items []models.CartItem) ([]cartItemDoc, error) {
	docs := make([]cartItemDoc, 0, len(items))
	for _, item := range items {
		pid, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, errors.Wrapf(err, "cart product id %q", item.ProductID)
		}
		docs = append(docs, cartItemDoc{Product: pid, Quantity: item.Quantity})
	}
	return docs, nil
}

func (d userDoc) model() models.User {
	cart := make([]models.CartItem, 0, len(d.CartItems))
	for _, item := range d.CartItems {
		cart = append(cart, models.CartItem{ProductID: item.Product.Hex(), Quantity: item.Quantity})
	}
	return models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CartItems:    cart,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	cart, err := newCartDocs(user.CartItems)
	if err != nil {
		return err
	}
	doc := userDoc{
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		CartItems: cart,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return errors.Wrap(err, "insert user")
	}
	user.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err, "find user")
	}
	u := doc.model()
	return &u, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (s *Store) SaveCart(ctx context.Context, userID string, items []models.CartItem) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	cart, err := newCartDocs(items)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"cartItems": cart, "updatedAt": s.now()}}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrap(err, "save cart")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count users")
}
