package model

import "time"

// Ingredient is an entry of the ingredient catalog
type Ingredient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:160;not null;uniqueIndex" json:"slug"`
	NameFR    string    `gorm:"column:name;size:255;not null" json:"name"`
	NameEN    string    `gorm:"column:name_en;size:255" json:"name_en,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Name returns the localized name, falling back to French
func (i Ingredient) Name(locale Locale) string {
	if locale == LocaleEN && i.NameEN != "" {
		return i.NameEN
	}
	return i.NameFR
}

// RecipeIngredient links a recipe to a catalog ingredient
type RecipeIngredient struct {
	RecipeID     uint `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	IngredientID uint `gorm:"primaryKey;autoIncrement:false;index" json:"ingredient_id"`
	Optional     bool `gorm:"not null;default:false" json:"optional"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
