package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type listDocument struct {
	ID                primitive.ObjectID `bson:"_id"`
	UserID            primitive.ObjectID `bson:"userId"`
	Title             string             `bson:"title"`
	Streak            int                `bson:"streak"`
	LastCompletedDate *string            `bson:"lastCompletedDate"`
	CompletedToday    bool               `bson:"completedToday"`
	Tasks             []lists.Task       `bson:"tasks"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func (d listDocument) toDomain() lists.List {
	tasks := d.Tasks
	if tasks == nil {
		tasks = []lists.Task{}
	}
	return lists.List{
		ID:                d.ID.Hex(),
		UserID:            d.UserID.Hex(),
		Title:             d.Title,
		Streak:            d.Streak,
		LastCompletedDate: d.LastCompletedDate,
		CompletedToday:    d.CompletedToday,
		Tasks:             tasks,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type overallDocument struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	UserID            primitive.ObjectID `bson:"userId"`
	Streak            int                `bson:"streak"`
	LastCompletedDate *string            `bson:"lastCompletedDate"`
	CompletedToday    bool               `bson:"completedToday"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func (d overallDocument) toDomain() *lists.Overall {
	return &lists.Overall{
		UserID:            d.UserID.Hex(),
		Streak:            d.Streak,
		LastCompletedDate: d.LastCompletedDate,
		CompletedToday:    d.CompletedToday,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type ListRepository struct {
	lists    *mongo.Collection
	overalls *mongo.Collection
}

var _ lists.Repository = (*ListRepository)(nil)

// ids parses the user id and list id. Anything that is not an ObjectID cannot
// name a stored list, so it reads as not found.
func ids(userID, id string) (primitive.ObjectID, primitive.ObjectID, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return uid, uid, lists.ErrListNotFound
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return uid, oid, lists.ErrListNotFound
	}
	return uid, oid, nil
}

func (r *ListRepository) FindByUser(ctx context.Context, userID string) ([]lists.List, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []lists.List{}, nil
	}
	cur, err := r.lists.Find(ctx, bson.M{"userId": uid}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []lists.List{}
	for cur.Next(ctx) {
		var doc listDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (r *ListRepository) Create(ctx context.Context, list *lists.List) error {
	uid, err := primitive.ObjectIDFromHex(list.UserID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := listDocument{
		ID:                primitive.NewObjectID(),
		UserID:            uid,
		Title:             list.Title,
		Streak:            list.Streak,
		LastCompletedDate: list.LastCompletedDate,
		CompletedToday:    list.CompletedToday,
		Tasks:             list.Tasks,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if doc.Tasks == nil {
		doc.Tasks = []lists.Task{}
	}
	if _, err := r.lists.InsertOne(ctx, doc); err != nil {
		return err
	}
	list.ID = doc.ID.Hex()
	list.CreatedAt = now
	list.UpdatedAt = now
	return nil
}

func (r *ListRepository) UpdateForUser(ctx context.Context, userID, id string, input lists.ListInput) (*lists.List, error) {
	uid, oid, err := ids(userID, id)
	if err != nil {
		return nil, err
	}
	tasks := input.Tasks
	if tasks == nil {
		tasks = []lists.Task{}
	}
	update := bson.M{"$set": bson.M{
		"title":             input.Title,
		"streak":            input.Streak,
		"lastCompletedDate": input.LastCompletedDate,
		"completedToday":    input.CompletedToday,
		"tasks":             tasks,
		"updatedAt":         time.Now().UTC(),
	}}

	var doc listDocument
	err = r.lists.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": uid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lists.ErrListNotFound
		}
		return nil, err
	}
	l := doc.toDomain()
	return &l, nil
}

func (r *ListRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	uid, oid, err := ids(userID, id)
	if err != nil {
		return err
	}
	res, err := r.lists.DeleteOne(ctx, bson.M{"_id": oid, "userId": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return lists.ErrListNotFound
	}
	return nil
}

func (r *ListRepository) GetOverall(ctx context.Context, userID string) (*lists.Overall, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var doc overallDocument
	err = r.overalls.FindOneAndUpdate(ctx,
		bson.M{"userId": uid},
		bson.M{"$setOnInsert": bson.M{
			"streak":            0,
			"lastCompletedDate": nil,
			"completedToday":    false,
			"createdAt":         now,
			"updatedAt":         now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ListRepository) UpsertOverall(ctx context.Context, userID string, input lists.OverallInput) (*lists.Overall, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var doc overallDocument
	err = r.overalls.FindOneAndUpdate(ctx,
		bson.M{"userId": uid},
		bson.M{
			"$set": bson.M{
				"streak":            input.Streak,
				"lastCompletedDate": input.LastCompletedDate,
				"completedToday":    input.CompletedToday,
				"updatedAt":         now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}
