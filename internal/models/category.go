package models

import "strings"

// Category is one of the three daily prediction markets.
type Category string

const (
	CategoryCrypto Category = "crypto"
	CategoryStock  Category = "stock"
	CategoryForex  Category = "forex"
)

// Categories returns all categories in announcement order.
func Categories() []Category {
	return []Category{CategoryCrypto, CategoryStock, CategoryForex}
}

func ParseCategory(raw string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "crypto":
		return CategoryCrypto, nil
	case "stock", "stocks":
		return CategoryStock, nil
	case "forex":
		return CategoryForex, nil
	default:
		return "", ErrInvalidCategory
	}
}

// Direction is a price-movement prediction.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	default:
		return "", ErrInvalidDirection
	}
}
