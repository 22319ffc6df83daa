package wizard

// PrivacyFlags are the named boolean toggles of the location & privacy step.
type PrivacyFlags struct {
	ProfileVisibility bool
	LocationSharing   bool
	PushNotifications bool
}

// Draft is the in-progress state of the setup wizard. It is owned by the
// Wizard, submitted atomically on completion and never partially persisted
// server-side.
type Draft struct {
	PhotoPath       string
	Username        string
	Bio             string
	FavoriteCuisine string
	Location        string
	Interests       []string
	Privacy         PrivacyFlags
	Following       []string
}

// NewDraft returns a draft with the defaults the setup flow starts from:
// every privacy toggle on and the pre-followed suggestions seeded.
func NewDraft() Draft {
	return Draft{
		Privacy: PrivacyFlags{
			ProfileVisibility: true,
			LocationSharing:   true,
			PushNotifications: true,
		},
		Following: preFollowedIDs(),
	}
}

// HasInterest reports whether the interest tag is selected.
func (d *Draft) HasInterest(id string) bool {
	for _, selected := range d.Interests {
		if selected == id {
			return true
		}
	}
	return false
}

// IsFollowing reports whether the suggested user is marked for following.
func (d *Draft) IsFollowing(id string) bool {
	for _, followed := range d.Following {
		if followed == id {
			return true
		}
	}
	return false
}

func (d *Draft) privacyMap() map[string]bool {
	return map[string]bool{
		"profileVisibility": d.Privacy.ProfileVisibility,
		"locationSharing":   d.Privacy.LocationSharing,
		"pushNotifications": d.Privacy.PushNotifications,
	}
}

// clone returns a deep copy so callers can never mutate the wizard's draft
// through a returned value.
func (d Draft) clone() Draft {
	copied := d
	copied.Interests = append([]string(nil), d.Interests...)
	copied.Following = append([]string(nil), d.Following...)
	return copied
}

func removeString(values []string, value string) []string {
	out := values[:0]
	for _, v := range values {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
