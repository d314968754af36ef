package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/xraph/benefits/employee"
	"github.com/xraph/benefits/id"
)

// ErrCollaboratorUnavailable is returned when a document or verification
// service fails. Callers retry; the core does not.
var ErrCollaboratorUnavailable = errors.New("benefits: collaborator unavailable")

// StorageStatus is the document store's report on an upload.
type StorageStatus string

const (
	StorageStored StorageStatus = "stored"
	StorageFailed StorageStatus = "failed"
)

// Document is an uploaded document as reported by the intake service.
type Document struct {
	Type     string        `json:"type"`
	Storage  StorageStatus `json:"storage"`
	Accepted bool          `json:"accepted"`
	Reason   string        `json:"reason,omitempty"`
}

// DocumentIntake reports the documents uploaded for a subscription.
type DocumentIntake interface {
	Documents(ctx context.Context, subID id.SubscriptionID) ([]Document, error)
}

// DocumentIntakeFunc adapts a function to DocumentIntake.
type DocumentIntakeFunc func(ctx context.Context, subID id.SubscriptionID) ([]Document, error)

func (f DocumentIntakeFunc) Documents(ctx context.Context, subID id.SubscriptionID) ([]Document, error) {
	return f(ctx, subID)
}

// Verification is the identity service's verdict on one person.
type Verification struct {
	PersonID id.PersonID `json:"person_id"`
	Verified bool        `json:"verified"`
	Reason   string      `json:"reason,omitempty"`
}

// IdentityVerifier checks a covered person's demographics.
type IdentityVerifier interface {
	Verify(ctx context.Context, p *employee.Person) (Verification, error)
}

// IdentityVerifierFunc adapts a function to IdentityVerifier.
type IdentityVerifierFunc func(ctx context.Context, p *employee.Person) (Verification, error)

func (f IdentityVerifierFunc) Verify(ctx context.Context, p *employee.Person) (Verification, error) {
	return f(ctx, p)
}

// DocumentReview compares uploads against the documents a plan requires.
type DocumentReview struct {
	Accepted []string `json:"accepted"`
	Missing  []string `json:"missing,omitempty"`
	Rejected []string `json:"rejected,omitempty"`
}

// Complete reports whether every required document was accepted.
func (r DocumentReview) Complete() bool { return len(r.Missing) == 0 && len(r.Rejected) == 0 }

// ReviewDocuments checks docs against required. A required document whose
// storage failed makes the review unavailable rather than rejected.
func ReviewDocuments(required []string, docs []Document) (DocumentReview, error) {
	var review DocumentReview
	for _, want := range required {
		i := slices.IndexFunc(docs, func(d Document) bool { return d.Type == want && d.Accepted && d.Storage == StorageStored })
		if i >= 0 {
			review.Accepted = append(review.Accepted, want)
			continue
		}

		j := slices.IndexFunc(docs, func(d Document) bool { return d.Type == want })
		switch {
		case j < 0:
			review.Missing = append(review.Missing, want)
		case docs[j].Storage == StorageFailed:
			return review, fmt.Errorf("%w: storing %s failed", ErrCollaboratorUnavailable, want)
		default:
			review.Rejected = append(review.Rejected, want)
		}
	}
	return review, nil
}
