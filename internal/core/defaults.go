package core

// DefaultCategoryNames lists the expense categories seeded for every new user,
// in seeding order.
var DefaultCategoryNames = []string{
	"Food & Dining",
	"Transportation",
	"Utilities",
	"Entertainment",
	"Healthcare",
	"Shopping",
	"Business",
	"Other",
}

var defaultCategoryColors = map[string]string{
	"Food & Dining":  "#ef4444", // red
	"Transportation": "#3b82f6", // blue
	"Utilities":      "#eab308", // yellow
	"Entertainment":  "#a855f7", // purple
	"Healthcare":     "#10b981", // green
	"Shopping":       "#f43f5e", // pink
	"Business":       "#64748b", // slate
	"Other":          "#94a3b8", // gray
}

// FallbackColor is assigned to categories created without a color.
const FallbackColor = "#94a3b8"

// DefaultCategories returns the eight seed categories owned by userID.
func DefaultCategories(userID int64) []Category {
	out := make([]Category, 0, len(DefaultCategoryNames))
	for _, name := range DefaultCategoryNames {
		out = append(out, Category{
			Name:  name,
			Kind:  KindExpense,
			Color: defaultCategoryColors[name],
			Owner: OwnedBy(userID),
		})
	}
	return out
}
