package search

import (
	"testing"

	"github.com/address-cleaner/app/models"
	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	assert.Equal(t, "", Filter(0, ""))
	assert.Equal(t, "level = 3", Filter(3, ""))
	assert.Equal(t, `parent_id = "p01"`, Filter(0, "p01"))
	assert.Equal(t, `level = 4 AND parent_id = "p01-d001"`, Filter(4, "p01-d001"))
}

func TestBatches(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, Batches(5, 2))
	assert.Equal(t, [][2]int{{0, 3}}, Batches(3, 0))
	assert.Empty(t, Batches(0, 10))
}

func TestUnitDocumentRoundTrip(t *testing.T) {
	unit := models.AdminUnit{
		AdminID:        "p01-d001",
		ParentID:       "p01",
		Level:          models.LevelDistrict,
		Name:           "Quận 1",
		NormalizedName: "quan 1",
		AdminSubtype:   models.AdminSubtypeUrbanDistrict,
		Path:           []string{"Hồ Chí Minh", "Quận 1"},
		CatalogVersion: "v1",
	}

	doc := unitDocument(unit)
	assert.Equal(t, "p01-d001", doc["id"])

	// Meilisearch trả số dạng float64 và mảng dạng []interface{}
	hit := map[string]interface{}{}
	for k, v := range doc {
		hit[k] = v
	}
	hit["level"] = float64(unit.Level)
	hit["path"] = []interface{}{"Hồ Chí Minh", "Quận 1"}

	assert.Equal(t, unit, unitFromHit(hit))
}

func TestUnitFromHit_MissingFields(t *testing.T) {
	unit := unitFromHit(map[string]interface{}{"name": "Hà Nội", "level": "2"})
	assert.Equal(t, "Hà Nội", unit.Name)
	assert.Equal(t, 0, unit.Level)
	assert.Nil(t, unit.Path)
}
