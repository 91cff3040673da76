package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type songRepository struct {
	db *mongo.Database
}

func NewSongRepository(database *mongo.Database) domain.SongRepository {
	return &songRepository{
		db: database,
	}
}

func (r *songRepository) Create(ctx context.Context, song *domain.Song) error {
	collection := r.db.Collection(db.SongsCollection)

	if _, err := collection.InsertOne(ctx, song); err != nil {
		return fmt.Errorf("%w: inserting song: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *songRepository) GetByID(ctx context.Context, id string) (*domain.Song, error) {
	collection := r.db.Collection(db.SongsCollection)

	var song domain.Song
	if err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&song); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSongNotFound
		}
		return nil, fmt.Errorf("%w: finding song: %v", domain.ErrStoreUnavailable, err)
	}

	return &song, nil
}

func (r *songRepository) GetByRoomID(ctx context.Context, roomID string) ([]*domain.Song, error) {
	collection := r.db.Collection(db.SongsCollection)

	cursor, err := collection.Find(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, fmt.Errorf("%w: finding songs: %v", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var songs []*domain.Song
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("%w: decoding songs: %v", domain.ErrStoreUnavailable, err)
	}

	return songs, nil
}

func (r *songRepository) Update(ctx context.Context, song *domain.Song) error {
	collection := r.db.Collection(db.SongsCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": song.ID}, song)
	if err != nil {
		return fmt.Errorf("%w: updating song: %v", domain.ErrStoreUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrSongNotFound
	}

	return nil
}

func (r *songRepository) ResetVotes(ctx context.Context, roomID string) error {
	collection := r.db.Collection(db.SongsCollection)

	update := bson.M{
		"$set": bson.M{
			"vote_count":  0,
			"voted_users": []string{},
		},
	}

	if _, err := collection.UpdateMany(ctx, bson.M{"room_id": roomID}, update); err != nil {
		return fmt.Errorf("%w: resetting votes: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *songRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.SongsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "room_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
