package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

const locationsCollection = "inventorylocations"

// LocationRepository reads inventory locations. Locations are owned by the
// inventory module, so only the fields shown to clients are projected.
type LocationRepository struct {
	col *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	return &LocationRepository{col: db.Collection(locationsCollection)}
}

type mongoLocation struct {
	ID       primitive.ObjectID `bson:"_id"`
	Name     string             `bson:"name"`
	Code     string             `bson:"code,omitempty"`
	Type     string             `bson:"type,omitempty"`
	IsActive bool               `bson:"is_active"`
}

var locationProjection = bson.M{"name": 1, "code": 1, "type": 1, "is_active": 1}

// FindByID resolves a location. Malformed ids and missing documents are both
// domain.ErrLocationNotFound.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*domain.Location, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLocationNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ml mongoLocation
	err = r.col.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(locationProjection)).Decode(&ml)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, storeError("find location", err)
	}

	return &domain.Location{
		ID:       ml.ID.Hex(),
		Name:     ml.Name,
		Code:     ml.Code,
		Type:     ml.Type,
		IsActive: ml.IsActive,
	}, nil
}
