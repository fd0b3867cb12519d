// internal/models/categories.go
package models

// ItemType is the product category of an item.
type ItemType string

const (
	ItemTypeCanned              ItemType = "Canned"
	ItemTypeHousehold           ItemType = "Household"
	ItemTypeHardDrinks          ItemType = "Hard_Drinks"
	ItemTypeHealthAndHygiene    ItemType = "Health_and_Hygiene"
	ItemTypeFrozenFoods         ItemType = "Frozen_Foods"
	ItemTypeBakingGoods         ItemType = "Baking_Goods"
	ItemTypeFruitsAndVegetables ItemType = "Fruits_and_Vegetables"
	ItemTypeSnackFoods          ItemType = "Snack_Foods"
	ItemTypeDairy               ItemType = "Dairy"
	ItemTypeMeat                ItemType = "Meat"
	ItemTypeBreakfast           ItemType = "Breakfast"
	ItemTypeOthers              ItemType = "Others"
	ItemTypeStarchyFoods        ItemType = "Starchy_Foods"
	ItemTypeSoftDrinks          ItemType = "Soft_Drinks"
	ItemTypeSeafood             ItemType = "Seafood"
	ItemTypeBreads              ItemType = "Breads"
)

// FatContent is the fat label of an item.
type FatContent string

const (
	FatContentLowFat   FatContent = "Low_Fat"
	FatContentRegular  FatContent = "Regular"
	FatContentInedible FatContent = "Inedible"
)

type OutletType string

const (
	OutletTypeGroceryStore     OutletType = "Grocery_Store"
	OutletTypeSupermarketType1 OutletType = "Supermarket_Type1"
	OutletTypeSupermarketType2 OutletType = "Supermarket_Type2"
	OutletTypeSupermarketType3 OutletType = "Supermarket_Type3"
)

type OutletSize string

const (
	OutletSizeSmall  OutletSize = "Small"
	OutletSizeMedium OutletSize = "Medium"
	OutletSizeHigh   OutletSize = "High"
)

type LocationType string

const (
	LocationTier1 LocationType = "Tier_1"
	LocationTier2 LocationType = "Tier_2"
	LocationTier3 LocationType = "Tier_3"
)

// ItemTypes lists every item category in dropdown order.
func ItemTypes() []ItemType {
	return []ItemType{
		ItemTypeCanned, ItemTypeHousehold, ItemTypeHardDrinks, ItemTypeHealthAndHygiene,
		ItemTypeFrozenFoods, ItemTypeBakingGoods, ItemTypeFruitsAndVegetables,
		ItemTypeSnackFoods, ItemTypeDairy, ItemTypeMeat, ItemTypeBreakfast, ItemTypeOthers,
		ItemTypeStarchyFoods, ItemTypeSoftDrinks, ItemTypeSeafood, ItemTypeBreads,
	}
}

func FatContents() []FatContent {
	return []FatContent{FatContentLowFat, FatContentRegular, FatContentInedible}
}

// OutletTypes is also the facet order of the visibility chart.
func OutletTypes() []OutletType {
	return []OutletType{
		OutletTypeGroceryStore, OutletTypeSupermarketType1,
		OutletTypeSupermarketType2, OutletTypeSupermarketType3,
	}
}

func OutletSizes() []OutletSize {
	return []OutletSize{OutletSizeSmall, OutletSizeMedium, OutletSizeHigh}
}

func LocationTypes() []LocationType {
	return []LocationType{LocationTier1, LocationTier2, LocationTier3}
}

// ItemReferences groups items by what they are; offered as a dropdown filter only.
func ItemReferences() []string {
	return []string{"Food", "Drinks", "Non-Consumable"}
}

func (t ItemType) Valid() bool {
	for _, v := range ItemTypes() {
		if v == t {
			return true
		}
	}
	return false
}

func (f FatContent) Valid() bool {
	for _, v := range FatContents() {
		if v == f {
			return true
		}
	}
	return false
}

func (t OutletType) Valid() bool {
	for _, v := range OutletTypes() {
		if v == t {
			return true
		}
	}
	return false
}

func (s OutletSize) Valid() bool {
	for _, v := range OutletSizes() {
		if v == s {
			return true
		}
	}
	return false
}

func (l LocationType) Valid() bool {
	for _, v := range LocationTypes() {
		if v == l {
			return true
		}
	}
	return false
}
