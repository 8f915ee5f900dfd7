package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"upkeep/internal/models"
	"upkeep/internal/utils"
)

// ProductService manages the owned items tasks attach to. The overall
// maintenance fields are recomputed from the product's tasks on every
// read; they are never stored.
type ProductService struct {
	client   *mongo.Client
	products *mongo.Collection
	tasks    *mongo.Collection
	log      zerolog.Logger
	now      func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(client *mongo.Client, db *mongo.Database, log zerolog.Logger) *ProductService {
	return &ProductService{
		client:   client,
		products: db.Collection("products"),
		tasks:    db.Collection("tasks"),
		log:      log.With().Str("service", "products").Logger(),
		now:      time.Now,
	}
}

// CreateProduct registers a new product for the user. The slug is derived
// from the name; a random suffix is appended on collision.
func (s *ProductService) CreateProduct(userID primitive.ObjectID, req *models.CreateProductRequest) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slug := utils.Slugify(req.Name)
	taken, err := s.products.CountDocuments(ctx, bson.M{"user_id": userID, "slug": slug})
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		slug = slug + "-" + utils.GenerateRandomString(4)
	}

	product := &models.Product{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      req.Name,
		Slug:      slug,
		TaskIDs:   []primitive.ObjectID{},
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}

	if _, err := s.products.InsertOne(ctx, product); err != nil {
		// A concurrent create can still race the unique slug index.
		if mongo.IsDuplicateKeyError(err) {
			return nil, &models.ConflictError{Resource: "product", ID: slug}
		}
		return nil, err
	}

	s.log.Info().Str("product_id", product.ID.Hex()).Str("slug", slug).Msg("product created")
	return product, nil
}

// GetProducts lists the user's products with their derived overall
// maintenance fields populated.
func (s *ProductService) GetProducts(userID primitive.ObjectID) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := s.products.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}

	for i := range products {
		if err := s.fillOverallMaintenance(ctx, &products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// GetProductByID retrieves a single product owned by the user.
func (s *ProductService) GetProductByID(userID primitive.ObjectID, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("product", id)
	}

	var product models.Product
	err = s.products.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("product", id)
		}
		return nil, err
	}

	if err := s.fillOverallMaintenance(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct renames a product and regenerates its slug.
func (s *ProductService) UpdateProduct(userID primitive.ObjectID, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("product", id)
	}

	set := bson.M{"updated_at": s.now()}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, models.NewValidationError("name", "must not be empty")
		}
		set["name"] = *req.Name
		set["slug"] = utils.Slugify(*req.Name)
	}

	res, err := s.products.UpdateOne(ctx, bson.M{"_id": oid, "user_id": userID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &models.ConflictError{Resource: "product", ID: id}
		}
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, models.NewNotFoundError("product", id)
	}

	return s.GetProductByID(userID, id)
}

// DeleteProduct removes the product and all of its tasks in one
// transaction: tasks first, then the product itself.
func (s *ProductService) DeleteProduct(userID primitive.ObjectID, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.NewNotFoundError("product", id)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.tasks.DeleteMany(sc, bson.M{"product_id": oid, "user_id": userID}); err != nil {
			return nil, err
		}
		res, err := s.products.DeleteOne(sc, bson.M{"_id": oid, "user_id": userID})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, models.NewNotFoundError("product", id)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("product_id", id).Msg("product deleted with its tasks")
	return nil
}

// fillOverallMaintenance scans the product's tasks and derives the two
// overall fields: latest last_maintenance among completed tasks, earliest
// next_maintenance among non-completed ones.
func (s *ProductService) fillOverallMaintenance(ctx context.Context, product *models.Product) error {
	cursor, err := s.tasks.Find(ctx, bson.M{"product_id": product.ID})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return err
	}

	product.LastOverallMaintenance, product.NextOverallMaintenance = overallMaintenance(tasks)
	return nil
}

// overallMaintenance derives the product-level maintenance summary from
// its tasks. Nil means no task qualifies.
func overallMaintenance(tasks []models.Task) (last, next *time.Time) {
	for i := range tasks {
		t := &tasks[i]
		if t.Completed {
			if last == nil || t.LastMaintenance.After(*last) {
				v := t.LastMaintenance
				last = &v
			}
			continue
		}
		if next == nil || t.NextMaintenance.Before(*next) {
			v := t.NextMaintenance
			next = &v
		}
	}
	return last, next
}
