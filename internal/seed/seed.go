// Package seed fills a database with demo users, items and messages. It is
// meant for development and demos only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/model"
)

// Password is the password of every seeded account.
const Password = "password123"

// Options controls how much data Run creates.
type Options struct {
	Users    int
	Items    int
	Messages int
	// ResolvedShare is the fraction of items marked resolved, from 0 to 1.
	ResolvedShare float64
}

// Result counts what Run created.
type Result struct {
	Users    int
	Items    int
	Resolved int
	Messages int
}

var locations = []string{
	"Main Library", "Student Union", "Science Building", "Gym", "Cafeteria",
	"Parking Lot B", "Lecture Hall 2", "Dormitory A", "Bus Stop", "Computer Lab",
}

var things = map[model.Category][]string{
	model.CategoryElectronics: {"Phone", "Laptop", "Charger", "Earbuds", "Calculator"},
	model.CategoryBooks:       {"Textbook", "Notebook", "Novel", "Lab Manual"},
	model.CategoryClothing:    {"Jacket", "Scarf", "Hoodie", "Cap"},
	model.CategoryAccessories: {"Watch", "Sunglasses", "Umbrella", "Bracelet"},
	model.CategoryKeys:        {"Car Keys", "Key Ring", "Dorm Key"},
	model.CategoryBags:        {"Backpack", "Tote Bag", "Wallet", "Pencil Case"},
	model.CategoryDocuments:   {"Student ID", "Passport", "Driver's License"},
	model.CategorySports:      {"Basketball", "Water Bottle", "Yoga Mat", "Racket"},
	model.CategoryOther:       {"Lunch Box", "Plant", "Headphones Case"},
}

// Seeder creates demo data through the application services.
type Seeder struct {
	Accounts *accounts.Service
	Catalog  *catalog.Service
	Messages *messaging.Service

	faker *gofakeit.Faker
	now   time.Time
}

// New returns a Seeder whose data is fully determined by seed.
func New(acc *accounts.Service, cat *catalog.Service, msg *messaging.Service, seed int64) *Seeder {
	return &Seeder{
		Accounts: acc,
		Catalog:  cat,
		Messages: msg,
		faker:    gofakeit.New(seed),
		now:      time.Now(),
	}
}

// Run creates opts.Users users, then items owned by random users, then
// messages between random pairs about random items.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.Users < 1 {
		return res, nil
	}

	users := make([]*model.User, 0, opts.Users)
	for i := range opts.Users {
		u, err := s.user(ctx, i)
		if err != nil {
			return res, fmt.Errorf("seeding user %d: %w", i+1, err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	var items []*model.Item
	for i := range opts.Items {
		owner := users[s.faker.Number(0, len(users)-1)]
		item, err := s.Catalog.Create(ctx, owner, s.item())
		if err != nil {
			return res, fmt.Errorf("seeding item %d: %w", i+1, err)
		}
		items = append(items, item)
		res.Items++

		if s.faker.Float64Range(0, 1) < opts.ResolvedShare {
			if _, err := s.Catalog.Resolve(ctx, item.ID, owner); err != nil {
				return res, fmt.Errorf("resolving item %d: %w", item.ID, err)
			}
			res.Resolved++
		}
	}

	// Messages need two distinct users.
	if len(users) < 2 {
		return res, nil
	}
	for i := range opts.Messages {
		from := users[s.faker.Number(0, len(users)-1)]
		to := users[s.faker.Number(0, len(users)-1)]
		for to.ID == from.ID {
			to = users[s.faker.Number(0, len(users)-1)]
		}

		in := messaging.ComposeInput{
			To:      to.Username,
			Subject: strings.TrimSuffix(s.faker.Sentence(4), "."),
			Body:    s.faker.Paragraph(1, 2, 12, " "),
		}
		if len(items) > 0 {
			item := items[s.faker.Number(0, len(items)-1)]
			in.ItemID = &item.ID
			in.Subject = "Re: " + item.Title
		}

		if _, err := s.Messages.Compose(ctx, from, in); err != nil {
			return res, fmt.Errorf("seeding message %d: %w", i+1, err)
		}
		res.Messages++
	}

	slog.Info("seeded demo data", "users", res.Users, "items", res.Items, "resolved", res.Resolved, "messages", res.Messages)
	return res, nil
}

// user registers the i-th demo account. The index keeps usernames unique.
func (s *Seeder) user(ctx context.Context, i int) (*model.User, error) {
	base := usernameChars(strings.ToLower(s.faker.FirstName()))
	if base == "" {
		base = "user"
	}
	username := fmt.Sprintf("%s%d", base, i+1)

	return s.Accounts.Register(ctx, accounts.RegisterInput{
		Username:        username,
		Email:           username + "@campus.edu",
		Password:        Password,
		ConfirmPassword: Password,
		FullName:        s.faker.Name(),
		Phone:           s.faker.Numerify("###-###-####"),
	})
}

func (s *Seeder) item() catalog.ItemInput {
	category := model.Categories[s.faker.Number(0, len(model.Categories)-1)]
	names := things[category]
	thing := names[s.faker.Number(0, len(names)-1)]

	status := model.StatusLost
	if s.faker.Bool() {
		status = model.StatusFound
	}

	date := s.faker.DateRange(s.now.AddDate(0, 0, -30), s.now)
	return catalog.ItemInput{
		Title:         s.faker.Color() + " " + thing,
		Description:   s.faker.Paragraph(1, 3, 10, " "),
		Category:      string(category),
		Status:        string(status),
		Location:      locations[s.faker.Number(0, len(locations)-1)],
		DateLostFound: date.Format(model.DateLayout),
	}
}

// usernameChars drops characters usernames may not contain.
func usernameChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
