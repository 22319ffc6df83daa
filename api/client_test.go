package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/foodclipz/go-client/api"
	clienterrors "github.com/foodclipz/go-client/internal/errors"
	"github.com/foodclipz/go-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*api.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	require.NoError(t, err)
	return client, server
}

func TestNewClient(t *testing.T) {
	t.Run("requires base URL", func(t *testing.T) {
		_, err := api.NewClient("  ")
		require.Error(t, err)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/send-magic-link", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client, err := api.NewClient(server.URL + "/")
		require.NoError(t, err)
		require.NoError(t, client.SendMagicLink(context.Background(), "a@b.com", nil, nil))
	})
}

func TestClient_SendMagicLink(t *testing.T) {
	t.Run("login send has no name fields", func(t *testing.T) {
		var received map[string]any
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NotEmpty(t, r.Header.Get("X-Request-ID"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		})

		err := client.SendMagicLink(context.Background(), "a@b.com", nil, nil)
		require.NoError(t, err)
		require.Equal(t, "a@b.com", received["email"])
		require.NotContains(t, received, "firstName")
		require.NotContains(t, received, "lastName")
	})

	t.Run("registration send carries the name", func(t *testing.T) {
		var received map[string]any
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		})

		err := client.SendMagicLink(context.Background(), "a@b.com", utils.Ptr("Ada"), utils.Ptr("Lovelace"))
		require.NoError(t, err)
		require.Equal(t, "Ada", received["firstName"])
		require.Equal(t, "Lovelace", received["lastName"])
	})

	t.Run("USER_NOT_FOUND marker maps to ErrUserNotFound", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "USER_NOT_FOUND: no account for this email"})
		})

		err := client.SendMagicLink(context.Background(), "nobody@b.com", nil, nil)
		require.ErrorIs(t, err, clienterrors.ErrUserNotFound)
	})

	t.Run("other server errors surface the message", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
		})

		err := client.SendMagicLink(context.Background(), "a@b.com", nil, nil)
		require.ErrorIs(t, err, clienterrors.ErrServer)
		require.Contains(t, err.Error(), "rate limited")
	})

	t.Run("transport failure maps to ErrNetwork", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client, err := api.NewClient(server.URL)
		require.NoError(t, err)
		server.Close()

		err = client.SendMagicLink(context.Background(), "a@b.com", nil, nil)
		require.ErrorIs(t, err, clienterrors.ErrNetwork)
	})
}

func TestClient_CheckUsername(t *testing.T) {
	t.Run("decodes availability", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/users/check-username/ada_l", r.URL.Path)
			require.Empty(t, r.URL.Query().Get("excludeUserId"))
			_ = json.NewEncoder(w).Encode(map[string]bool{"available": true})
		})

		available, err := client.CheckUsername(context.Background(), "ada_l", "")
		require.NoError(t, err)
		require.True(t, available)
	})

	t.Run("passes excludeUserId", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "42", r.URL.Query().Get("excludeUserId"))
			_ = json.NewEncoder(w).Encode(map[string]bool{"available": false})
		})

		available, err := client.CheckUsername(context.Background(), "ada_l", "42")
		require.NoError(t, err)
		require.False(t, available)
	})
}

func TestClient_VerifyMagicLink(t *testing.T) {
	t.Run("rejects empty token", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.VerifyMagicLink(context.Background(), " ")
		require.ErrorIs(t, err, clienterrors.ErrValidation)
	})

	t.Run("decodes the user envelope", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/auth/verify/tok123", r.URL.Path)
			_, _ = w.Write([]byte(`{"user":{"id":1,"email":"a@b.com","profileCompleted":true}}`))
		})

		user, err := client.VerifyMagicLink(context.Background(), "tok123")
		require.NoError(t, err)
		require.Equal(t, int64(1), user.ID)
		require.True(t, user.ProfileCompleted)
	})
}

func TestClient_UpdateProfile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/profile", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada@b.com", body["email"])
		require.Equal(t, "new bio", body["bio"])
		_, _ = w.Write([]byte(`{"user":{"id":1,"bio":"new bio"}}`))
	})

	user, err := client.UpdateProfile(context.Background(), "ada@b.com", "Ada", "Lovelace", "new bio")
	require.NoError(t, err)
	require.Equal(t, "new bio", user.Bio)
}

func TestClient_CompleteProfileSetup(t *testing.T) {
	submission := api.ProfileSubmission{
		UserID:          1,
		Username:        "ada_l",
		Bio:             "food journaling",
		FavoriteCuisine: "italian",
		Location:        "London",
		Interests:       []string{"italian", "dessert"},
		PrivacySettings: map[string]bool{"profileVisibility": true, "locationSharing": false, "pushNotifications": true},
		FollowingUsers:  []string{"2", "5"},
	}

	t.Run("encodes every field of the draft", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Equal(t, "1", r.FormValue("userId"))
			require.Equal(t, "ada_l", r.FormValue("username"))
			require.Equal(t, "food journaling", r.FormValue("bio"))
			require.Equal(t, "italian", r.FormValue("favoriteCuisine"))
			require.Equal(t, "London", r.FormValue("location"))

			var interests []string
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("interests")), &interests))
			require.Equal(t, []string{"italian", "dessert"}, interests)

			var privacy map[string]bool
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("privacySettings")), &privacy))
			require.False(t, privacy["locationSharing"])

			var following []string
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("followingUsers")), &following))
			require.Equal(t, []string{"2", "5"}, following)

			_, _, err := r.FormFile("profileImage")
			require.Error(t, err) // no image attached

			_, _ = w.Write([]byte(`{"user":{"id":1,"username":"ada_l","profileCompleted":true}}`))
		})

		user, err := client.CompleteProfileSetup(context.Background(), submission)
		require.NoError(t, err)
		require.True(t, user.ProfileCompleted)
	})

	t.Run("attaches the profile image with an inferred content type", func(t *testing.T) {
		imagePath := filepath.Join(t.TempDir(), "avatar.png")
		require.NoError(t, os.WriteFile(imagePath, []byte("not-really-a-png"), 0o600))

		withImage := submission
		withImage.ProfileImage = imagePath

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("profileImage")
			require.NoError(t, err)
			defer func() { _ = file.Close() }()
			require.Equal(t, "avatar.png", header.Filename)
			require.Equal(t, "image/png", header.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"user":{"id":1,"profileCompleted":true}}`))
		})

		_, err := client.CompleteProfileSetup(context.Background(), withImage)
		require.NoError(t, err)
	})

	t.Run("failure surfaces the server message", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "username already taken"})
		})

		_, err := client.CompleteProfileSetup(context.Background(), submission)
		require.ErrorIs(t, err, clienterrors.ErrServer)
		require.Contains(t, err.Error(), "username already taken")
	})
}

func TestClient_UploadProfilePicture(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "me.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("jpeg-bytes"), 0o600))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "ada@b.com", r.FormValue("email"))
		file, header, err := r.FormFile("profilePic")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		require.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"user":{"id":1,"profilePicUrl":"https://cdn/me.jpg"}}`))
	})

	user, err := client.UploadProfilePicture(context.Background(), "ada@b.com", imagePath)
	require.NoError(t, err)
	require.Equal(t, "https://cdn/me.jpg", user.AvatarURL)
}
