package repository

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy-storefront/models"
)

//go:embed seed/*.json
var seedFS embed.FS

// SeedProducts returns the bundled catalog. Every entry passes
// models.Product.Validate.
func SeedProducts() ([]models.Product, error) {
	var raw []json.RawMessage
	if err := readSeed("seed/products.json", &raw); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(raw))
	for i, r := range raw {
		p, err := models.ParseProduct(r)
		if err != nil {
			return nil, fmt.Errorf("seed product #%d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func SeedCategories() ([]models.Category, error) {
	var cats []models.Category
	return cats, readSeed("seed/categories.json", &cats)
}

func SeedArticles() ([]models.Article, error) {
	var articles []models.Article
	return articles, readSeed("seed/articles.json", &articles)
}

func readSeed(name string, v any) error {
	data, err := seedFS.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

const (
	DemoEmail    = "rushikesh@example.com"
	DemoPassword = "password"
	DemoOrderID  = "4856214796"
)

// DemoUser is the account the storefront ships with.
func DemoUser() models.User {
	return models.User{
		Name:  "Rushikesh Kusmade",
		Email: DemoEmail,
		Phone: "+91 77158 15914",
		Addresses: []models.Address{
			{
				ID: 1, Type: "Home", Name: "Home Address",
				Street: "Baif Road", Area: "Wagholi", City: "Pune", State: "Maharashtra",
				Pincode: "412207", Phone: "+91 77158 15914", IsDefault: true,
			},
			{
				ID: 2, Type: "Office", Name: "Office Address",
				Street: "IT Park", Area: "Hinjewadi", City: "Pune", State: "Maharashtra",
				Pincode: "411057", Phone: "+91 77158 15914",
			},
		},
	}
}

// DemoOrder is a delivered order with a complete tracking history.
func DemoOrder(user models.User) *models.Order {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	addr, _ := user.DefaultAddress()
	o := models.NewOrder(DemoOrderID, user.ID, []models.OrderItem{
		{ProductID: 1, Name: "Biofer-F", Quantity: 2, Price: decimal.RequireFromString("50.13")},
		{ProductID: 3, Name: "Zincovit-C", Quantity: 1, Price: decimal.RequireFromString("201.41")},
	}, addr, "upi", at("2024-01-15T10:00:00Z"))

	for _, step := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T14:00:00Z",
		"2024-01-15T16:00:00Z",
		"2024-01-16T09:00:00Z",
		"2024-01-16T14:30:00Z",
	} {
		_ = o.Advance(at(step), "")
	}
	return o
}
