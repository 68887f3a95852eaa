package cms

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Content statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Content is a content item.
type Content struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body,omitempty"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags,omitempty"`
	AuthorID    string     `json:"authorId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// ContentFilter narrows a content listing.
type ContentFilter struct {
	Status   string   `mapstructure:"status,omitempty"`
	Type     string   `mapstructure:"type,omitempty"`
	Tags     []string `mapstructure:"tag,omitempty"`
	AuthorID string   `mapstructure:"authorId,omitempty"`
	Search   string   `mapstructure:"q,omitempty"`
}

// ContentInput is the payload of Create and Update.
type ContentInput struct {
	Title  string   `json:"title"`
	Slug   string   `json:"slug,omitempty"`
	Body   string   `json:"body,omitempty"`
	Type   string   `json:"type,omitempty"`
	Status string   `json:"status,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Validate checks the input.
func (in ContentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Slug, validation.Length(0, 255)),
		validation.Field(&in.Status, validation.In(StatusDraft, StatusPublished, StatusArchived)),
	)
}

// Publication is a content item published to a channel.
type Publication struct {
	ID          string     `json:"id"`
	ContentID   string     `json:"contentId"`
	Channel     string     `json:"channel"`
	Status      string     `json:"status"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// PublicationFilter narrows a publication listing.
type PublicationFilter struct {
	ContentID string `mapstructure:"contentId,omitempty"`
	Channel   string `mapstructure:"channel,omitempty"`
	Status    string `mapstructure:"status,omitempty"`
}

// Location is an office or site.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Person is an entry of the people directory.
type Person struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	Active     bool   `json:"active"`
}

// PeopleFilter narrows a people listing. A nil Active matches everyone.
type PeopleFilter struct {
	Department string `mapstructure:"department,omitempty"`
	LocationID string `mapstructure:"locationId,omitempty"`
	Active     *bool  `mapstructure:"active,omitempty"`
}

// Bool returns a pointer to v, for optional filter fields.
func Bool(v bool) *bool {
	return &v
}

// Deployment states.
const (
	DeploymentPending   = "pending"
	DeploymentRunning   = "running"
	DeploymentSucceeded = "succeeded"
	DeploymentFailed    = "failed"
)

// Deployment is a site deployment.
type Deployment struct {
	ID          string     `json:"id"`
	Environment string     `json:"environment"`
	Ref         string     `json:"ref,omitempty"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	TriggeredBy string     `json:"triggeredBy,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// DeploymentInput starts a deployment.
type DeploymentInput struct {
	Environment string `json:"environment"`
	Ref         string `json:"ref,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Validate checks the input.
func (in DeploymentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Environment, validation.Required),
	)
}

// Sync targets.
const (
	SyncContent = "content"
	SyncPeople  = "people"
	SyncAFAS    = "afas"
	SyncAll     = "all"
)

// SyncJob is a background synchronisation job.
type SyncJob struct {
	ID         string     `json:"id"`
	Target     string     `json:"target"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Employee is an employee record imported from AFAS.
type Employee struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
}

// TimeEntry is a registration of hours worked.
type TimeEntry struct {
	ID          string  `json:"id"`
	PersonID    string  `json:"personId"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Project     string  `json:"project,omitempty"`
	Description string  `json:"description,omitempty"`
}

// TimeEntryFilter narrows a time entry listing. Dates use YYYY-MM-DD.
type TimeEntryFilter struct {
	PersonID string `mapstructure:"personId,omitempty"`
	Project  string `mapstructure:"project,omitempty"`
	From     string `mapstructure:"from,omitempty"`
	To       string `mapstructure:"to,omitempty"`
}

// TimeEntryInput registers hours.
type TimeEntryInput struct {
	PersonID    string  `json:"personId"`
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	Project     string  `json:"project,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Validate checks the input.
func (in TimeEntryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PersonID, validation.Required),
		validation.Field(&in.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&in.Hours, validation.Required, validation.Min(0.25), validation.Max(24.0)),
	)
}

// File is an uploaded asset.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ScheduledJob is a job known to the scheduler.
type ScheduledJob struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	Enabled  bool       `json:"enabled"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
}

// JobRun is a single run of a scheduled job.
type JobRun struct {
	RunID     string     `json:"runId"`
	JobID     string     `json:"jobId"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}
