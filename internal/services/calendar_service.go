package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"upkeep/internal/models"
	"upkeep/internal/schedule"
)

// CalendarService projects active tasks into date-keyed events. Only
// tasks whose derived status is pending or overdue produce events;
// completed and inactive tasks never appear on the calendar.
type CalendarService struct {
	tasks    *mongo.Collection
	products *mongo.Collection
	log      zerolog.Logger
	now      func() time.Time
}

// NewCalendarService creates a new CalendarService.
func NewCalendarService(db *mongo.Database, log zerolog.Logger) *CalendarService {
	return &CalendarService{
		tasks:    db.Collection("tasks"),
		products: db.Collection("products"),
		log:      log.With().Str("service", "calendar").Logger(),
		now:      time.Now,
	}
}

// EventsForUser returns one event per active task owned by the user,
// sorted by due date.
func (s *CalendarService) EventsForUser(userID primitive.ObjectID) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.events(ctx, userID, bson.M{"user_id": userID})
}

// EventsForProduct narrows the calendar to a single owned product.
func (s *CalendarService) EventsForProduct(userID primitive.ObjectID, productID string) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, models.NewNotFoundError("product", productID)
	}
	if err := s.products.FindOne(ctx, bson.M{"_id": pid, "user_id": userID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("product", productID)
		}
		return nil, err
	}

	return s.events(ctx, userID, bson.M{"user_id": userID, "product_id": pid})
}

// Month builds the fixed 6x7 month view for the anchor date: 42 grid days
// and the user's events grouped by calendar day.
func (s *CalendarService) Month(userID primitive.ObjectID, anchor time.Time) (*models.MonthResponse, error) {
	events, err := s.EventsForUser(userID)
	if err != nil {
		return nil, err
	}
	return &models.MonthResponse{
		Days:        schedule.MonthGrid(anchor),
		EventsByDay: schedule.GroupByDay(events),
	}, nil
}

func (s *CalendarService) events(ctx context.Context, userID primitive.ObjectID, match bson.M) ([]models.Event, error) {
	// Completed and not-yet-open tasks are filtered in the query; the
	// deriver is still consulted per task below so query and derivation
	// can never disagree.
	today := schedule.Day(s.now())
	query := bson.M{"completed": false}
	for k, v := range match {
		query[k] = v
	}
	query["$or"] = bson.A{
		bson.M{"maintenance_window": bson.M{"$exists": false}},
		bson.M{"maintenance_window.start_date": bson.M{"$lte": today}},
	}

	cursor, err := s.tasks.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}

	refs, err := s.productRefs(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	events := make([]models.Event, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		switch schedule.Derive(t, now) {
		case models.StatusPending, models.StatusOverdue:
			events = append(events, schedule.EventOf(t, refs[t.ProductID]))
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// productRefs loads the user's products as id -> embedded ref.
func (s *CalendarService) productRefs(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]models.ProductRef, error) {
	cursor, err := s.products.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	refs := make(map[primitive.ObjectID]models.ProductRef, len(products))
	for _, p := range products {
		refs[p.ID] = models.ProductRef{ID: p.ID.Hex(), Name: p.Name}
	}
	return refs, nil
}
