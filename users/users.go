package users

import (
	"encoding/json"
	"strings"
)

// User is the authenticated-user snapshot returned by the FoodClipz API.
// The deployed API is inconsistent about field casing (older endpoints emit
// snake_case, newer ones camelCase), so decoding accepts both.
type User struct {
	ID               int64  `json:"id,omitempty"`               // Unique identifier for the user
	Email            string `json:"email,omitempty"`            // User's email address
	Username         string `json:"username,omitempty"`         // Unique handle chosen during setup
	FirstName        string `json:"firstName,omitempty"`        // First name of the user
	LastName         string `json:"lastName,omitempty"`         // Last name of the user
	Bio              string `json:"bio,omitempty"`              // Short free-text bio
	FavoriteCuisine  string `json:"favoriteCuisine,omitempty"`  // Favourite cuisine tag
	Location         string `json:"location,omitempty"`         // Free-text location
	AvatarURL        string `json:"profilePicUrl,omitempty"`    // Remote profile picture URL
	ProfileCompleted bool   `json:"profileCompleted,omitempty"` // Has the setup wizard been finished at least once
}

// UnmarshalJSON accepts both camelCase and snake_case spellings of the
// fields the API is inconsistent about.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                    int64  `json:"id"`
		Email                 string `json:"email"`
		Username              string `json:"username"`
		FirstName             string `json:"firstName"`
		FirstNameSnake        string `json:"first_name"`
		LastName              string `json:"lastName"`
		LastNameSnake         string `json:"last_name"`
		Bio                   string `json:"bio"`
		FavoriteCuisine       string `json:"favoriteCuisine"`
		FavoriteCuisineSnake  string `json:"favorite_cuisine"`
		Location              string `json:"location"`
		AvatarURL             string `json:"profilePicUrl"`
		AvatarURLSnake        string `json:"profile_pic_url"`
		ProfileCompleted      bool   `json:"profileCompleted"`
		ProfileCompletedSnake bool   `json:"profile_completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.ID = raw.ID
	u.Email = raw.Email
	u.Username = raw.Username
	u.FirstName = firstNonEmpty(raw.FirstName, raw.FirstNameSnake)
	u.LastName = firstNonEmpty(raw.LastName, raw.LastNameSnake)
	u.Bio = raw.Bio
	u.FavoriteCuisine = firstNonEmpty(raw.FavoriteCuisine, raw.FavoriteCuisineSnake)
	u.Location = raw.Location
	u.AvatarURL = firstNonEmpty(raw.AvatarURL, raw.AvatarURLSnake)
	u.ProfileCompleted = raw.ProfileCompleted || raw.ProfileCompletedSnake
	return nil
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Initials returns up to two characters for avatar placeholders.
// Falls back to the first letter of the email, then "FC".
func (u *User) Initials() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return strings.ToUpper(u.FirstName[:1] + u.LastName[:1])
	case u.FirstName != "":
		return strings.ToUpper(u.FirstName[:1])
	case u.Email != "":
		return strings.ToUpper(u.Email[:1])
	}
	return "FC"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
