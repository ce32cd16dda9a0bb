package handler

import (
	"net/url"
	"strings"

	"typeindex/internal/typeindex/models"
	dErrors "typeindex/pkg/domain-errors"
)

// InitializeRequest is the body of POST /registry/init. An empty Container
// places the index documents next to the profile document.
type InitializeRequest struct {
	Container string `json:"container"`
}

func (r *InitializeRequest) Validate() error {
	r.Container = strings.TrimSpace(r.Container)
	if r.Container == "" {
		return nil
	}
	u, err := url.Parse(r.Container)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return dErrors.New(dErrors.CodeValidation, "container must be an absolute URL")
	}
	return nil
}

// RegisterRequest is the body of POST /registrations.
type RegisterRequest struct {
	Class        string `json:"class"`
	Location     string `json:"location"`
	LocationType string `json:"location_type"`
	Visibility   string `json:"visibility"`

	locationType models.LocationType
	visibility   models.Visibility
}

func (r *RegisterRequest) Validate() error {
	r.Class = strings.TrimSpace(r.Class)
	r.Location = strings.TrimSpace(r.Location)
	lt, err := models.ParseLocationType(r.LocationType)
	if err != nil {
		return err
	}
	v, err := parseVisibility(r.Visibility)
	if err != nil {
		return err
	}
	r.locationType, r.visibility = lt, v
	return nil
}

func (r *RegisterRequest) ToDomain() models.RegisterRequest {
	return models.RegisterRequest{
		Class:        r.Class,
		Location:     r.Location,
		LocationType: r.locationType,
		Visibility:   r.visibility,
	}
}

// unregisterFromQuery reads DELETE /registrations?class=&location=&visibility=.
func unregisterFromQuery(q url.Values) (models.UnregisterRequest, error) {
	v, err := parseVisibility(q.Get("visibility"))
	if err != nil {
		return models.UnregisterRequest{}, err
	}
	return models.UnregisterRequest{
		Class:      strings.TrimSpace(q.Get("class")),
		Location:   strings.TrimSpace(q.Get("location")),
		Visibility: v,
	}, nil
}

// parseVisibility accepts "listed" and "unlisted". Empty means unlisted.
func parseVisibility(s string) (models.Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unlisted", "private":
		return models.Unlisted, nil
	case "listed", "public":
		return models.Listed, nil
	default:
		return 0, dErrors.New(dErrors.CodeValidation, "visibility must be listed or unlisted")
	}
}
