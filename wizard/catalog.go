package wizard

// InterestTag is one selectable food-interest chip.
type InterestTag struct {
	ID       string
	Name     string
	Category string
}

// Interests returns the selectable interest catalog, grouped by category in
// display order.
func Interests() []InterestTag {
	return []InterestTag{
		{ID: "italian", Name: "Italian", Category: "Cuisines"},
		{ID: "japanese", Name: "Japanese", Category: "Cuisines"},
		{ID: "mexican", Name: "Mexican", Category: "Cuisines"},
		{ID: "indian", Name: "Indian", Category: "Cuisines"},
		{ID: "thai", Name: "Thai", Category: "Cuisines"},
		{ID: "french", Name: "French", Category: "Cuisines"},

		{ID: "street_food", Name: "Street Food", Category: "Dining Styles"},
		{ID: "fine_dining", Name: "Fine Dining", Category: "Dining Styles"},
		{ID: "casual", Name: "Casual", Category: "Dining Styles"},
		{ID: "vegetarian", Name: "Vegetarian", Category: "Dining Styles"},
		{ID: "vegan", Name: "Vegan", Category: "Dining Styles"},

		{ID: "dessert", Name: "Dessert", Category: "Sweet Treats"},
		{ID: "ice_cream", Name: "Ice Cream", Category: "Sweet Treats"},
		{ID: "chocolate", Name: "Chocolate", Category: "Sweet Treats"},

		{ID: "breakfast", Name: "Breakfast", Category: "Meal Times"},
		{ID: "brunch", Name: "Brunch", Category: "Meal Times"},
		{ID: "lunch", Name: "Lunch", Category: "Meal Times"},
		{ID: "dinner", Name: "Dinner", Category: "Meal Times"},
		{ID: "late_night", Name: "Late Night", Category: "Meal Times"},
	}
}

// SuggestedUser is one entry of the follow-suggestions step.
type SuggestedUser struct {
	ID          string
	Name        string
	Username    string
	Description string
	Initials    string
	PreFollowed bool
}

// SuggestedUsers returns the curated follow suggestions. Entries with
// PreFollowed set seed the draft's following list.
func SuggestedUsers() []SuggestedUser {
	return []SuggestedUser{
		{ID: "1", Name: "James Chen", Username: "@jamesc", Description: "Food critic • 2.3K followers", Initials: "JC"},
		{ID: "2", Name: "Sofia Rodriguez", Username: "@sofiar", Description: "Michelin contributor • 4.1K followers", Initials: "SR", PreFollowed: true},
		{ID: "3", Name: "Mike Kim", Username: "@mikekim", Description: "Local blogger • 890 followers", Initials: "MK"},
		{ID: "4", Name: "Emma Brown", Username: "@emmab", Description: "Restaurant reviewer • 1.8K followers", Initials: "EB"},
		{ID: "5", Name: "David Lee", Username: "@davidlee", Description: "Chef & influencer • 3.2K followers", Initials: "DL", PreFollowed: true},
	}
}

func preFollowedIDs() []string {
	var ids []string
	for _, su := range SuggestedUsers() {
		if su.PreFollowed {
			ids = append(ids, su.ID)
		}
	}
	return ids
}
