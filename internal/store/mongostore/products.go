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

type productDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Price       primitive.Decimal128 `bson:"price"`
	Image       string               `bson:"image,omitempty"`
	Stock       int                  `bson:"stock"`
	IsFeatured  bool                 `bson:"isFeatured"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func newProductDoc(p *models.Product) (productDoc, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDoc{}, errors.Wrapf(err, "product %q price", p.Name)
	}
	return productDoc{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       price,
		Image:       p.Image,
		Stock:       p.Stock,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d productDoc) model() (models.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return models.Product{}, errors.Wrapf(err, "product %s price", d.ID.Hex())
	}
	return models.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       price,
		Image:       d.Image,
		Stock:       d.Stock,
		IsFeatured:  d.IsFeatured,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]models.Product, error) {
	defer cur.Close(ctx)

	products := []models.Product{}
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		p, err := doc.model()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, errors.Wrap(cur.Err(), "iterate products")
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	doc, err := newProductDoc(product)
	if err != nil {
		return err
	}
	res, err := s.products.InsertOne(ctx, doc)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	product.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *Store) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc productDoc
	if err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err, "find product")
	}
	p, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) FindProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}

	cur, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	return decodeProducts(ctx, cur)
}

func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.FeaturedOnly {
		query["isFeatured"] = true
	}

	cur, err := s.products.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return decodeProducts(ctx, cur)
}

func (s *Store) SampleProducts(ctx context.Context, size int) ([]models.Product, error) {
	pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.M{"size": size}}}}
	cur, err := s.products.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "sample products")
	}
	return decodeProducts(ctx, cur)
}

func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	oid, err := objectID(product.ID)
	if err != nil {
		return err
	}
	price, err := toDecimal128(product.Price)
	if err != nil {
		return errors.Wrapf(err, "product %q price", product.Name)
	}
	product.UpdatedAt = s.now()

	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"category":    product.Category,
		"price":       price,
		"image":       product.Image,
		"stock":       product.Stock,
		"isFeatured":  product.IsFeatured,
		"updatedAt":   product.UpdatedAt,
	}}
	res, err := s.products.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	n, err := s.products.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "count products")
}

func (s *Store) DecrementStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	// The filter makes the read-check-write a single atomic document update.
	filter := bson.M{"_id": oid, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": s.now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDoc
	err = s.products.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		p, err := doc.model()
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "decrement stock")
	}

	// Nothing matched: either the product is gone or it has too few units.
	current, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return current, store.ErrInsufficientStock
}

func (s *Store) IncrementStock(ctx context.Context, id string, qty int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"updatedAt": s.now()},
	}
	res, err := s.products.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrap(err, "increment stock")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
