package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recipe is a published or draft recipe in both languages. The ingredient
// blobs are loosely typed JSON authored by editors; read them through
// DecodeIngredientGroups, never directly.
type Recipe struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	SlugFR        string         `gorm:"column:slug;size:255;not null;uniqueIndex" json:"slug"`
	SlugEN        string         `gorm:"column:slug_en;size:255" json:"slug_en"`
	TitleFR       string         `gorm:"column:title;size:255;not null" json:"title"`
	TitleEN       string         `gorm:"column:title_en;size:255" json:"title_en"`
	FeaturedImage string         `gorm:"size:512" json:"featured_image"`
	TotalTime     int            `json:"total_time"`
	Difficulty    string         `gorm:"size:32" json:"difficulty"`
	Published     bool           `gorm:"not null;default:false;index" json:"published"`
	Ingredients   datatypes.JSON `gorm:"column:ingredients" json:"ingredients"`
	IngredientsEN datatypes.JSON `gorm:"column:ingredients_en" json:"ingredients_en"`
}

// Title returns the localized title, falling back to French
func (r Recipe) Title(locale Locale) string {
	if locale == LocaleEN && r.TitleEN != "" {
		return r.TitleEN
	}
	return r.TitleFR
}

// Slug returns the localized slug, falling back to French
func (r Recipe) Slug(locale Locale) string {
	if locale == LocaleEN && r.SlugEN != "" {
		return r.SlugEN
	}
	return r.SlugFR
}

// IngredientBlob returns the raw ingredient JSON for the locale. English
// recipes without a translation fall back to the French groups.
func (r Recipe) IngredientBlob(locale Locale) []byte {
	if locale == LocaleEN && len(r.IngredientsEN) > 0 && string(r.IngredientsEN) != "null" {
		return r.IngredientsEN
	}
	return r.Ingredients
}
