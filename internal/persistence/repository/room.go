package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type roomRepository struct {
	db *mongo.Database
}

func NewRoomRepository(database *mongo.Database) domain.RoomRepository {
	return &roomRepository{
		db: database,
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	collection := r.db.Collection(db.RoomsCollection)

	_, err := collection.InsertOne(ctx, room)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRoomAlreadyExists
		}
		return fmt.Errorf("%w: inserting room: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	collection := r.db.Collection(db.RoomsCollection)

	filter := bson.M{"code": domain.NormalizeCode(code)}

	var room domain.Room
	if err := collection.FindOne(ctx, filter).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: finding room: %v", domain.ErrStoreUnavailable, err)
	}

	return &room, nil
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	collection := r.db.Collection(db.RoomsCollection)

	filter := bson.M{"_id": room.ID}

	result, err := collection.ReplaceOne(ctx, filter, room)
	if err != nil {
		return fmt.Errorf("%w: updating room: %v", domain.ErrStoreUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrRoomNotFound
	}

	return nil
}

func (r *roomRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.RoomsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
