package domain

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Artist      string    `json:"artist"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	Tracks      []Track   `json:"tracks,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Track struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Duration int    `json:"duration_seconds"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1"`
	Artist      string  `json:"artist" validate:"required,min=1"`
	Description string  `json:"description"`
	Price       int64   `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Category    string  `json:"category" validate:"required"`
	Tracks      []Track `json:"tracks"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Artist      *string `json:"artist" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Category    *string `json:"category"`
}

type ProductFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}
