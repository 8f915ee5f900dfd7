package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"upkeep/internal/models"
	"upkeep/internal/schedule"
)

// maxCreationHorizonYears bounds how far ahead creation-time dates may lie.
// Completion and postponement deliberately skip this check so overdue
// tasks can still be caught up.
const maxCreationHorizonYears = 2

// TaskService is the scheduling repository: CRUD plus complete/postpone
// and filtered, paginated queries, all scoped to the owning user. The
// task/product dual-writes (create, delete) run in a mongo transaction so
// a task record and its id in product.tasks never diverge.
type TaskService struct {
	client   *mongo.Client
	tasks    *mongo.Collection
	products *mongo.Collection
	log      zerolog.Logger
	now      func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(client *mongo.Client, db *mongo.Database, log zerolog.Logger) *TaskService {
	return &TaskService{
		client:   client,
		tasks:    db.Collection("tasks"),
		products: db.Collection("products"),
		log:      log.With().Str("service", "tasks").Logger(),
		now:      time.Now,
	}
}

// CreateTask validates the request, computes the initial dates and inserts
// the task while appending its id to the owning product, atomically.
func (s *TaskService) CreateTask(userID primitive.ObjectID, productID string, req *models.CreateTaskRequest) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, models.NewNotFoundError("product", productID)
	}

	task, err := buildTask(userID, pid, req, s.now())
	if err != nil {
		return nil, err
	}

	session, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.products.FindOne(sc, bson.M{"_id": pid, "user_id": userID}).Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, models.NewNotFoundError("product", productID)
			}
			return nil, err
		}
		if _, err := s.tasks.InsertOne(sc, task); err != nil {
			return nil, err
		}
		update := bson.M{
			"$push": bson.M{"tasks": task.ID},
			"$set":  bson.M{"updated_at": s.now()},
		}
		if _, err := s.products.UpdateByID(sc, pid, update); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("task_id", task.ID.Hex()).Str("product_id", productID).Msg("task created")
	return task, nil
}

// GetTaskByID retrieves a single task owned by the user. The cached status
// is reconciled against the deriver before returning.
func (s *TaskService) GetTaskByID(userID primitive.ObjectID, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.findOwned(ctx, userID, id)
}

// GetTasks retrieves one page of the user's tasks, optionally narrowed by
// product, derived status and a case-insensitive name search. Results are
// sorted by next maintenance ascending: most urgent first.
func (s *TaskService) GetTasks(userID primitive.ObjectID, filter models.TaskListFilter) (*models.TaskListResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query, err := buildTaskQuery(userID, filter, s.now())
	if err != nil {
		return nil, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	skip := (page - 1) * limit

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "next_maintenance", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.tasks.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}

	total, err := s.tasks.CountDocuments(ctx, query)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range tasks {
		if schedule.Reconcile(&tasks[i], now) {
			s.log.Debug().Str("task_id", tasks[i].ID.Hex()).Msg("stored status drifted, reconciled on read")
		}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return &models.TaskListResponse{
		Items:      tasks,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}

// UpdateTask merges a partial patch into the task, re-validates the
// recurrence invariants the patch touches and persists the result.
func (s *TaskService) UpdateTask(userID primitive.ObjectID, id string, patch *models.UpdateTaskRequest) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(task, patch); err != nil {
		return nil, err
	}

	task.Status = schedule.Derive(task, s.now())
	task.UpdatedAt = s.now()

	res, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID, "user_id": userID}, task)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, models.NewNotFoundError("task", id)
	}
	return task, nil
}

// DeleteTask removes the task and pulls its id from the owning product's
// task list as one atomic unit. Deleting an already-deleted task reports
// not found, which makes the operation idempotent in practice.
func (s *TaskService) DeleteTask(userID primitive.ObjectID, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.NewNotFoundError("task", id)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var task models.Task
		err := s.tasks.FindOne(sc, bson.M{"_id": oid, "user_id": userID}).Decode(&task)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, models.NewNotFoundError("task", id)
			}
			return nil, err
		}
		res, err := s.tasks.DeleteOne(sc, bson.M{"_id": oid, "user_id": userID})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, models.NewNotFoundError("task", id)
		}
		update := bson.M{
			"$pull": bson.M{"tasks": oid},
			"$set":  bson.M{"updated_at": s.now()},
		}
		if _, err := s.products.UpdateByID(sc, task.ProductID, update); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("task_id", id).Msg("task deleted")
	return nil
}

// CompleteTask marks the task done now. Tasks recurring by last
// maintenance restart their cycle; windowed and one-time tasks become
// permanently completed.
func (s *TaskService) CompleteTask(userID primitive.ObjectID, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rule, err := schedule.RuleOf(task)
	if err != nil {
		return nil, err
	}
	result := schedule.OnComplete(rule, task.NextMaintenance, s.now())

	task.LastMaintenance = result.LastMaintenance
	task.NextMaintenance = result.NextMaintenance
	task.Completed = result.Terminal
	task.Status = schedule.Derive(task, s.now())
	task.UpdatedAt = s.now()

	update := bson.M{"$set": bson.M{
		"last_maintenance": task.LastMaintenance,
		"next_maintenance": task.NextMaintenance,
		"completed":        task.Completed,
		"status":           task.Status,
		"updated_at":       task.UpdatedAt,
	}}
	if _, err := s.tasks.UpdateOne(ctx, bson.M{"_id": task.ID, "user_id": userID}, update); err != nil {
		return nil, err
	}

	s.log.Info().Str("task_id", id).Bool("terminal", task.Completed).Msg("task completed")
	return task, nil
}

// PostponeTask pushes the task's next maintenance date out by days.
func (s *TaskService) PostponeTask(userID primitive.ObjectID, id string, days int) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next, err := schedule.Postpone(task.NextMaintenance, days)
	if err != nil {
		return nil, err
	}

	task.NextMaintenance = next
	task.Status = schedule.Derive(task, s.now())
	task.UpdatedAt = s.now()

	update := bson.M{"$set": bson.M{
		"next_maintenance": task.NextMaintenance,
		"status":           task.Status,
		"updated_at":       task.UpdatedAt,
	}}
	if _, err := s.tasks.UpdateOne(ctx, bson.M{"_id": task.ID, "user_id": userID}, update); err != nil {
		return nil, err
	}
	return task, nil
}

// findOwned fetches a task scoped to its owner and reconciles its status.
// A task owned by someone else is reported exactly like a missing one.
func (s *TaskService) findOwned(ctx context.Context, userID primitive.ObjectID, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.NewNotFoundError("task", id)
	}

	var task models.Task
	err = s.tasks.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("task", id)
		}
		return nil, err
	}

	schedule.Reconcile(&task, s.now())
	return &task, nil
}

// buildTask turns a validated create request into a persistable task,
// enforcing the recurrence invariants and the creation-time date range.
func buildTask(userID, productID primitive.ObjectID, req *models.CreateTaskRequest, now time.Time) (*models.Task, error) {
	today := schedule.Day(now)

	last := today
	if req.LastMaintenance != nil {
		last = schedule.Day(*req.LastMaintenance)
	}

	task := &models.Task{
		ID:              primitive.NewObjectID(),
		ProductID:       productID,
		UserID:          userID,
		TaskName:        req.TaskName,
		Description:     req.Description,
		IsRecurring:     req.IsRecurring,
		RecurringType:   req.RecurringType,
		FrequencyDays:   req.FrequencyDays,
		LastMaintenance: last,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.MaintenanceWindow != nil {
		task.MaintenanceWindow = &models.MaintenanceWindow{
			StartDate: schedule.Day(req.MaintenanceWindow.StartDate),
			EndDate:   schedule.Day(req.MaintenanceWindow.EndDate),
		}
	}
	if task.IsRecurring && task.RecurringType == "" {
		return nil, models.NewValidationError("recurringType", "required for recurring tasks")
	}

	if err := checkCreationRange(task, today); err != nil {
		return nil, err
	}

	rule, err := schedule.RuleOf(task)
	if err != nil {
		return nil, err
	}
	next, err := schedule.NextOnCreate(task.LastMaintenance, rule)
	if err != nil {
		return nil, err
	}
	task.NextMaintenance = next
	task.Status = schedule.Derive(task, now)
	return task, nil
}

// checkCreationRange rejects creation dates in the past or more than two
// years ahead. Applies at creation only.
func checkCreationRange(t *models.Task, today time.Time) error {
	horizon := today.AddDate(maxCreationHorizonYears, 0, 0)

	inRange := func(d time.Time) bool {
		return !d.Before(today) && !d.After(horizon)
	}

	// An explicitly provided last maintenance of today is always fine;
	// earlier values would mean recording history, which creation rejects.
	if !inRange(t.LastMaintenance) {
		return models.NewValidationError("lastMaintenance", "must be between today and two years from now")
	}
	if w := t.MaintenanceWindow; w != nil {
		if !inRange(schedule.Day(w.StartDate)) {
			return models.NewValidationError("maintenanceWindow.startDate", "must be between today and two years from now")
		}
		if !inRange(schedule.Day(w.EndDate)) {
			return models.NewValidationError("maintenanceWindow.endDate", "must be between today and two years from now")
		}
	}
	return nil
}

// applyUpdate merges a patch into the task and re-validates the invariants
// it touches: recurrence flags must stay consistent the same way creation
// requires, and a recomputed next maintenance date may never precede the
// last one.
func applyUpdate(t *models.Task, patch *models.UpdateTaskRequest) error {
	if err := applyPatch(t, patch); err != nil {
		return err
	}
	if t.IsRecurring && t.RecurringType == "" {
		return models.NewValidationError("recurringType", "required for recurring tasks")
	}

	if !touchesRecurrence(patch) {
		return nil
	}

	rule, err := schedule.RuleOf(t)
	if err != nil {
		return err
	}
	next, err := schedule.NextOnCreate(t.LastMaintenance, rule)
	if err != nil {
		return err
	}
	if next.Before(t.LastMaintenance) {
		return models.NewValidationError("lastMaintenance", "must not be later than the resulting next maintenance date")
	}
	t.NextMaintenance = next
	return nil
}

// applyPatch merges non-nil patch fields into the task.
func applyPatch(t *models.Task, patch *models.UpdateTaskRequest) error {
	if patch.TaskName != nil {
		if *patch.TaskName == "" {
			return models.NewValidationError("taskName", "must not be empty")
		}
		t.TaskName = *patch.TaskName
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.IsRecurring != nil {
		t.IsRecurring = *patch.IsRecurring
	}
	if patch.RecurringType != nil {
		t.RecurringType = *patch.RecurringType
	}
	if patch.FrequencyDays != nil {
		t.FrequencyDays = *patch.FrequencyDays
	}
	if patch.LastMaintenance != nil {
		t.LastMaintenance = schedule.Day(*patch.LastMaintenance)
	}
	if patch.MaintenanceWindow != nil {
		t.MaintenanceWindow = &models.MaintenanceWindow{
			StartDate: schedule.Day(patch.MaintenanceWindow.StartDate),
			EndDate:   schedule.Day(patch.MaintenanceWindow.EndDate),
		}
	}
	return nil
}

// touchesRecurrence reports whether the patch changes any input of the
// next-maintenance computation. Renames and description edits must not
// clobber an earlier postponement.
func touchesRecurrence(patch *models.UpdateTaskRequest) bool {
	return patch.IsRecurring != nil ||
		patch.RecurringType != nil ||
		patch.FrequencyDays != nil ||
		patch.LastMaintenance != nil ||
		patch.MaintenanceWindow != nil
}

// buildTaskQuery compiles a list filter into a mongo query. Status filters
// are expressed as the same date/flag conditions the deriver evaluates, so
// a stale cached status can never change which page a task lands on.
func buildTaskQuery(userID primitive.ObjectID, filter models.TaskListFilter, now time.Time) (bson.M, error) {
	query := bson.M{"user_id": userID}

	if filter.ProductID != "" {
		pid, err := primitive.ObjectIDFromHex(filter.ProductID)
		if err != nil {
			return nil, models.NewNotFoundError("product", filter.ProductID)
		}
		query["product_id"] = pid
	}

	if filter.Status != "" {
		statusClause, err := statusQuery(filter.Status, now)
		if err != nil {
			return nil, err
		}
		for k, v := range statusClause {
			query[k] = v
		}
	}

	if filter.Search != "" {
		query["task_name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}

	return query, nil
}

// statusQuery translates a derived status into stored-field conditions.
// Stored dates are normalized to UTC midnight, so day-granularity
// comparisons are exact.
func statusQuery(status models.TaskStatus, now time.Time) (bson.M, error) {
	today := schedule.Day(now)

	windowOpen := bson.A{
		bson.M{"maintenance_window": bson.M{"$exists": false}},
		bson.M{"maintenance_window.start_date": bson.M{"$lte": today}},
	}

	switch status {
	case models.StatusCompleted:
		return bson.M{"completed": true}, nil
	case models.StatusInactive:
		return bson.M{
			"completed":                     false,
			"maintenance_window.start_date": bson.M{"$gt": today},
		}, nil
	case models.StatusOverdue:
		return bson.M{
			"completed":        false,
			"next_maintenance": bson.M{"$lt": today},
			"$or":              windowOpen,
		}, nil
	case models.StatusPending:
		return bson.M{
			"completed":        false,
			"next_maintenance": bson.M{"$gte": today},
			"$or":              windowOpen,
		}, nil
	}
	return nil, models.NewValidationError("status", "must be pending, completed, overdue or inactive")
}

// totalPages implements ceil(total/limit) for pagination metadata.
func totalPages(total, limit int64) int64 {
	if limit < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}
