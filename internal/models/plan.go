package models

import "fmt"

// Category категория тарифа.
type Category string

// Допустимые категории.
const (
	CategoryBasic    Category = "Basic"
	CategoryStandard Category = "Standard"
	CategoryPremium  Category = "Premium"
	CategoryBusiness Category = "Business"
)

// NewCategory проверяет строку и возвращает категорию.
func NewCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case CategoryBasic, CategoryStandard, CategoryPremium, CategoryBusiness:
		return c, nil
	default:
		return "", fmt.Errorf("invalid plan category: %s", s)
	}
}

// Plan тариф каталога. Name уникален и служит ключом.
type Plan struct {
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Speed       string   `json:"speed"`
	Data        string   `json:"data"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

// PlanRequest тело запроса на создание тарифа.
type PlanRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Price       string `json:"price" validate:"required,max=32"`
	Speed       string `json:"speed" validate:"required,max=32"`
	Data        string `json:"data" validate:"required,max=32"`
	Category    string `json:"category" validate:"required,oneof=Basic Standard Premium Business"`
	Description string `json:"description" validate:"max=512"`
}

// PlanUpdate тело запроса на изменение тарифа. Пустые поля не меняются.
type PlanUpdate struct {
	Price       *string `json:"price,omitempty" validate:"omitempty,max=32"`
	Speed       *string `json:"speed,omitempty" validate:"omitempty,max=32"`
	Data        *string `json:"data,omitempty" validate:"omitempty,max=32"`
	Category    *string `json:"category,omitempty" validate:"omitempty,oneof=Basic Standard Premium Business"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=512"`
}

// Apply возвращает копию p с примененными изменениями.
func (u PlanUpdate) Apply(p Plan) Plan {
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Speed != nil {
		p.Speed = *u.Speed
	}
	if u.Data != nil {
		p.Data = *u.Data
	}
	if u.Category != nil {
		p.Category = Category(*u.Category)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	return p
}
