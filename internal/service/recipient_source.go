package service

import (
	"context"
	"slices"
	"strings"

	"github.com/vhvplatform/go-campaign-service/internal/domain"
	"github.com/vhvplatform/go-campaign-service/internal/shared/errors"
)

// RecipientFilter is an exact-match query on the recipient database.
// An empty Status places no constraint on status.
type RecipientFilter struct {
	Year   int
	Cycle  string
	Status string
}

// RecipientRecord is one row returned by a RecipientDirectory
type RecipientRecord struct {
	Email string
}

// RecipientDirectory looks up recipients in the user database
type RecipientDirectory interface {
	FindRecipients(ctx context.Context, filter RecipientFilter) ([]RecipientRecord, error)
}

// RecipientSource resolves the address list of a campaign
type RecipientSource interface {
	Kind() domain.RecipientSourceKind
	Resolve(ctx context.Context, dir RecipientDirectory) ([]string, error)
}

// DatabaseSource resolves recipients by querying the directory
type DatabaseSource struct {
	Filter RecipientFilter
}

// Kind implements RecipientSource
func (DatabaseSource) Kind() domain.RecipientSourceKind {
	return domain.RecipientSourceDatabase
}

// Resolve queries the directory and keeps only usable addresses, in the
// order the directory returned them. Duplicates are kept.
func (s DatabaseSource) Resolve(ctx context.Context, dir RecipientDirectory) ([]string, error) {
	if dir == nil {
		return nil, errors.NewConfigurationError("Recipient database is not configured", nil)
	}

	records, err := dir.FindRecipients(ctx, s.Filter)
	if err != nil {
		return nil, errors.NewResolutionError("Database query failed", err)
	}

	emails := make([]string, 0, len(records))
	for _, r := range records {
		if IsUsableAddress(r.Email) {
			emails = append(emails, r.Email)
		}
	}
	return emails, nil
}

// CustomSource is an operator supplied list, used verbatim
type CustomSource struct {
	Emails []string
}

// Kind implements RecipientSource
func (CustomSource) Kind() domain.RecipientSourceKind {
	return domain.RecipientSourceCustom
}

// Resolve returns a copy of the list. The directory is not consulted.
func (s CustomSource) Resolve(_ context.Context, _ RecipientDirectory) ([]string, error) {
	return slices.Clone(s.Emails), nil
}

// IsUsableAddress reports whether a directory address can be mailed
func IsUsableAddress(addr string) bool {
	return addr != "" && strings.Contains(addr, "@")
}

// SourceFromRequest builds the recipient source the request names
func SourceFromRequest(req *domain.CampaignRequest) (RecipientSource, error) {
	switch req.RecipientSource {
	case domain.RecipientSourceDatabase:
		if req.Year == 0 || strings.TrimSpace(req.Cycle) == "" {
			return nil, errors.NewValidationError("Year and cycle are required for database recipients", nil)
		}
		return DatabaseSource{Filter: RecipientFilter{
			Year:   req.Year,
			Cycle:  strings.TrimSpace(req.Cycle),
			Status: strings.TrimSpace(req.Status),
		}}, nil
	case domain.RecipientSourceCustom:
		return CustomSource{Emails: req.Emails}, nil
	default:
		return nil, errors.NewValidationError("recipientSource must be database or custom", nil)
	}
}
