package outlets

import "sales-forecast/internal/models"

// DefaultProfiles is the reference deployment's table of ten outlets.
func DefaultProfiles() []models.OutletProfile {
	return []models.OutletProfile{
		{OutletIdentifier: "OUT010", OutletType: models.OutletTypeGroceryStore, OutletSize: models.OutletSizeSmall, OutletLocationType: models.LocationTier3, OutletYears: 25},
		{OutletIdentifier: "OUT013", OutletType: models.OutletTypeSupermarketType1, OutletSize: models.OutletSizeHigh, OutletLocationType: models.LocationTier3, OutletYears: 36},
		{OutletIdentifier: "OUT017", OutletType: models.OutletTypeSupermarketType1, OutletSize: models.OutletSizeSmall, OutletLocationType: models.LocationTier2, OutletYears: 16},
		{OutletIdentifier: "OUT018", OutletType: models.OutletTypeSupermarketType2, OutletSize: models.OutletSizeMedium, OutletLocationType: models.LocationTier3, OutletYears: 14},
		{OutletIdentifier: "OUT019", OutletType: models.OutletTypeGroceryStore, OutletSize: models.OutletSizeSmall, OutletLocationType: models.LocationTier1, OutletYears: 38},
		{OutletIdentifier: "OUT027", OutletType: models.OutletTypeSupermarketType3, OutletSize: models.OutletSizeMedium, OutletLocationType: models.LocationTier3, OutletYears: 38},
		{OutletIdentifier: "OUT035", OutletType: models.OutletTypeSupermarketType1, OutletSize: models.OutletSizeSmall, OutletLocationType: models.LocationTier2, OutletYears: 19},
		{OutletIdentifier: "OUT045", OutletType: models.OutletTypeSupermarketType1, OutletSize: models.OutletSizeSmall, OutletLocationType: models.LocationTier2, OutletYears: 21},
		{OutletIdentifier: "OUT046", OutletType: models.OutletTypeSupermarketType1, OutletSize: models.OutletSizeSmall, OutletLocationType: models.LocationTier1, OutletYears: 26},
		{OutletIdentifier: "OUT049", OutletType: models.OutletTypeSupermarketType1, OutletSize: models.OutletSizeMedium, OutletLocationType: models.LocationTier1, OutletYears: 24},
	}
}

// Default builds the reference table.
func Default() *Table {
	t, err := NewTable(DefaultProfiles())
	if err != nil {
		panic(err)
	}
	return t
}
