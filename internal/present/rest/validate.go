package rest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dandihub/dandinotes"
)

type submitRequest struct {
	ResourceName          string `json:"resource_name"`
	ResourceURL           string `json:"resource_url"`
	ResourceIdentifier    string `json:"resource_identifier"`
	Repository            string `json:"repository"`
	Relation              string `json:"relation"`
	ResourceType          string `json:"resource_type"`
	ContributorName       string `json:"contributor_name"`
	ContributorEmail      string `json:"contributor_email"`
	ContributorIdentifier string `json:"contributor_identifier"`
	ContributorURL        string `json:"contributor_url"`
}

type approveRequest struct {
	ModeratorName       string `json:"moderator_name"`
	ModeratorEmail      string `json:"moderator_email"`
	ModeratorIdentifier string `json:"moderator_identifier"`
	ModeratorURL        string `json:"moderator_url"`
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// validate checks a submission in a fixed order: required fields first, then
// field formats, then vocabulary membership. It returns a map of field names
// to messages, empty when the request is valid.
func (r *submitRequest) validate() map[string]string {
	required := []struct {
		name  string
		value string
	}{
		{"resource_name", r.ResourceName},
		{"resource_url", r.ResourceURL},
		{"repository", r.Repository},
		{"relation", r.Relation},
		{"resource_type", r.ResourceType},
		{"contributor_name", r.ContributorName},
		{"contributor_email", r.ContributorEmail},
	}

	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		problems := make(map[string]string, len(missing))
		for _, name := range missing {
			problems[name] = "This field is required"
		}
		problems["_missing"] = strings.Join(missing, ", ")
		return problems
	}

	problems := map[string]string{}

	if !dandinotes.IsEmail(r.ContributorEmail) {
		problems["contributor_email"] = "Invalid email format"
	}
	if !dandinotes.IsURL(r.ResourceURL) {
		problems["resource_url"] = "Invalid URL format"
	}
	if r.ContributorURL != "" && !dandinotes.IsURL(r.ContributorURL) {
		problems["contributor_url"] = "Invalid URL format"
	}
	if r.ContributorIdentifier != "" && !dandinotes.IsORCID(r.ContributorIdentifier) {
		problems["contributor_identifier"] = "Invalid ORCID format"
	}
	if len(problems) > 0 {
		return problems
	}

	if _, err := dandinotes.ParseRelation(r.Relation); err != nil {
		problems["relation"] = fmt.Sprintf("Unknown relation: %s", r.Relation)
	}
	if _, err := dandinotes.ParseResourceType(r.ResourceType); err != nil {
		problems["resource_type"] = fmt.Sprintf("Unknown resource type: %s", r.ResourceType)
	}
	return problems
}

// resource builds the domain record from a validated request.
func (r *submitRequest) resource(dandisetID string) dandinotes.Resource {
	relation, _ := dandinotes.ParseRelation(r.Relation)
	resourceType, _ := dandinotes.ParseResourceType(r.ResourceType)
	return dandinotes.Resource{
		DandisetID:   dandisetID,
		Name:         r.ResourceName,
		URL:          r.ResourceURL,
		Identifier:   r.ResourceIdentifier,
		Repository:   r.Repository,
		Relation:     relation,
		ResourceType: resourceType,
		AnnotationContributor: dandinotes.Contributor{
			Name:       r.ContributorName,
			Email:      r.ContributorEmail,
			Identifier: r.ContributorIdentifier,
			URL:        r.ContributorURL,
		},
	}
}

func (r *approveRequest) validate() map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(r.ModeratorName) == "" {
		problems["moderator_name"] = "This field is required"
	}
	if strings.TrimSpace(r.ModeratorEmail) == "" {
		problems["moderator_email"] = "This field is required"
	} else if !dandinotes.IsEmail(r.ModeratorEmail) {
		problems["moderator_email"] = "Invalid email format"
	}
	if r.ModeratorIdentifier != "" && !dandinotes.IsORCID(r.ModeratorIdentifier) {
		problems["moderator_identifier"] = "Invalid ORCID format"
	}
	if r.ModeratorURL != "" && !dandinotes.IsURL(r.ModeratorURL) {
		problems["moderator_url"] = "Invalid URL format"
	}
	return problems
}

func (r *registerRequest) validate() map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(r.Email) == "" {
		problems["email"] = "This field is required"
	} else if !dandinotes.IsEmail(r.Email) {
		problems["email"] = "Invalid email format"
	}
	if len(r.Password) < 6 {
		problems["password"] = "Password must be at least 6 characters"
	}
	if r.Password != r.ConfirmPassword {
		problems["confirm_password"] = "Passwords do not match"
	}
	return problems
}

// pageParams reads and bounds-checks the page and per_page query parameters.
func pageParams(c echo.Context) (page, perPage int, err error) {
	page, perPage = 1, 10

	if raw := c.QueryParam("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		perPage, err = strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > 100 {
			return 0, 0, fmt.Errorf("per_page must be between 1 and 100")
		}
	}
	return page, perPage, nil
}

func isJSONRequest(c echo.Context) bool {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}
