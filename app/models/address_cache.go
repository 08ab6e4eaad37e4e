package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache cache kết quả làm sạch địa chỉ trong MongoDB
type AddressCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawFingerprint string             `bson:"raw_fingerprint" json:"raw_fingerprint"` // Fingerprint của địa chỉ
	RawAddress     string             `bson:"raw_address" json:"raw_address"`         // Địa chỉ gốc
	Result         ResolvedAddress    `bson:"result" json:"result"`                   // Kết quả pipeline
	Quality        Quality            `bson:"quality" json:"quality"`                 // Chất lượng stage cuối
	CatalogVersion string             `bson:"catalog_version" json:"catalog_version"` // Phiên bản catalog
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

// NewAddressCache tạo mới một AddressCache
func NewAddressCache(fingerprint string, result ResolvedAddress, catalogVersion string) *AddressCache {
	now := time.Now()
	return &AddressCache{
		RawFingerprint: fingerprint,
		RawAddress:     result.Raw,
		Result:         result,
		Quality:        result.Summarize().Quality,
		CatalogVersion: catalogVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// IsExpired kiểm tra cache có hết hạn không (dựa trên thời gian tạo)
func (ac *AddressCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(ac.CreatedAt) > ttl
}

// IsValidCatalogVersion kiểm tra phiên bản catalog có khớp không
func (ac *AddressCache) IsValidCatalogVersion(currentVersion string) bool {
	return ac.CatalogVersion == currentVersion
}
