package mongo

import (
	"testing"

	"bikerent/internal/rentals/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections(t *testing.T) {
	collections := Collections()
	require.Len(t, collections, 3)
	for _, name := range []string{repository.RentalsCollection, repository.AssetsCollection, repository.RentersCollection} {
		def, ok := collections[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes)
		assert.Contains(t, def.Validator, "$jsonSchema")
	}
}

func TestOpenRentalIndexesArePartialAndUnique(t *testing.T) {
	byName := map[string]bool{}
	for _, idx := range RentalsIndexes {
		if idx.Options == nil || idx.Options.Name == nil {
			continue
		}
		require.NotNil(t, idx.Options.Unique)
		assert.True(t, *idx.Options.Unique)
		assert.Equal(t, bson.M{"open": true}, idx.Options.PartialFilterExpression)
		byName[*idx.Options.Name] = true
	}
	assert.True(t, byName[repository.IndexOpenByAsset])
	assert.True(t, byName[repository.IndexOpenByRenter])
}
