package issue

import (
	"errors"
	"strings"
	"time"
)

// ErrApplicationNameRequired indicates a missing application name.
var ErrApplicationNameRequired = errors.New("application name is required")

// Application is a piece of software that issues are tracked against.
// Keywords are consumed by external crawl collaborators only; the search
// core never reads them.
type Application struct {
	id        string
	name      string
	vendor    string
	keywords  []string
	createdAt time.Time
}

// NewApplication creates an Application. Keywords default to the lowercased
// name when none are given.
func NewApplication(name, vendor string, keywords []string) (Application, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Application{}, ErrApplicationNameRequired
	}

	if len(keywords) == 0 {
		keywords = []string{strings.ToLower(name)}
	}
	cp := make([]string, len(keywords))
	copy(cp, keywords)

	return Application{
		name:     name,
		vendor:   strings.TrimSpace(vendor),
		keywords: cp,
	}, nil
}

// ReconstructApplication rebuilds an Application from stored state.
func ReconstructApplication(id, name, vendor string, keywords []string, createdAt time.Time) Application {
	cp := make([]string, len(keywords))
	copy(cp, keywords)
	return Application{
		id:        id,
		name:      name,
		vendor:    vendor,
		keywords:  cp,
		createdAt: createdAt,
	}
}

// ID returns the application identifier.
func (a Application) ID() string { return a.id }

// Name returns the application name.
func (a Application) Name() string { return a.name }

// Vendor returns the vendor name, or empty if unknown.
func (a Application) Vendor() string { return a.vendor }

// Keywords returns a copy of the crawl keywords.
func (a Application) Keywords() []string {
	cp := make([]string, len(a.keywords))
	copy(cp, a.keywords)
	return cp
}

// CreatedAt returns the creation timestamp.
func (a Application) CreatedAt() time.Time { return a.createdAt }
