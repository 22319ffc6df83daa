package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foodclipz/go-client/users"
	"github.com/pkg/errors"
)

// ProfileSubmission is the complete payload of the setup wizard, submitted
// atomically on final completion. ProfileImage, when set, is a local file
// path attached as a binary part.
type ProfileSubmission struct {
	UserID          int64
	Username        string
	Bio             string
	FavoriteCuisine string
	Location        string
	Interests       []string
	PrivacySettings map[string]bool
	FollowingUsers  []string
	ProfileImage    string
}

// CompleteProfileSetup submits the finished wizard draft as one multipart
// request and returns the server's updated user snapshot.
func (c *Client) CompleteProfileSetup(ctx context.Context, submission ProfileSubmission) (*users.User, error) {
	body, contentType, err := encodeProfileSubmission(submission)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CompleteProfileSetup] encode")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/complete-profile-setup", body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CompleteProfileSetup] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", contentType)

	var response userEnvelope
	if err := c.do(req, &response); err != nil {
		return nil, errors.Wrap(err, "[Client.CompleteProfileSetup]")
	}
	user, err := response.user()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CompleteProfileSetup]")
	}
	return user, nil
}

// UploadProfilePicture replaces the account's profile picture outside the
// setup flow (used by profile editing).
func (c *Client) UploadProfilePicture(ctx context.Context, email, imagePath string) (*users.User, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("email", email); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadProfilePicture] WriteField")
	}
	if err := attachImage(writer, "profilePic", imagePath); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadProfilePicture]")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadProfilePicture] writer.Close")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/upload-profile-picture", &body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UploadProfilePicture] http.NewRequestWithContext")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var response userEnvelope
	if err := c.do(req, &response); err != nil {
		return nil, errors.Wrap(err, "[Client.UploadProfilePicture]")
	}
	user, err := response.user()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UploadProfilePicture]")
	}
	return user, nil
}

func encodeProfileSubmission(submission ProfileSubmission) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	interests, err := json.Marshal(submission.Interests)
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal interests")
	}
	privacy, err := json.Marshal(submission.PrivacySettings)
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal privacySettings")
	}
	following, err := json.Marshal(submission.FollowingUsers)
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal followingUsers")
	}

	fields := map[string]string{
		"userId":          strconv.FormatInt(submission.UserID, 10),
		"username":        submission.Username,
		"bio":             submission.Bio,
		"favoriteCuisine": submission.FavoriteCuisine,
		"location":        submission.Location,
		"interests":       string(interests),
		"privacySettings": string(privacy),
		"followingUsers":  string(following),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", errors.Wrapf(err, "WriteField %s", name)
		}
	}

	if submission.ProfileImage != "" {
		if err := attachImage(writer, "profileImage", submission.ProfileImage); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "writer.Close")
	}
	return &body, writer.FormDataContentType(), nil
}

// attachImage streams a local image file into a multipart part with an
// image/* content type inferred from the file extension (jpeg fallback).
func attachImage(writer *multipart.Writer, fieldName, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open image")
	}
	defer func() { _ = file.Close() }()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+fieldName+`"; filename="`+filepath.Base(path)+`"`)
	header.Set("Content-Type", imageContentType(path))

	part, err := writer.CreatePart(header)
	if err != nil {
		return errors.Wrap(err, "CreatePart")
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(err, "copy image")
	}
	return nil
}

func imageContentType(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "image/jpeg"
	}
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "image/" + ext
}
