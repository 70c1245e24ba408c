package models

import "time"

type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Category string `json:"category"`
	ReadTime string `json:"readTime"`
}

// Reminder is a medicine reminder set by a user.
type Reminder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	ProductID int       `json:"productId,omitempty"`
	Medicine  string    `json:"medicine" binding:"required"`
	Dosage    string    `json:"dosage,omitempty"`
	Times     []string  `json:"times,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
