package triage

import (
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/domain"
)

// Stock thresholds for the health and age rules.
const (
	DefaultMinHealthyBytes = 10 * 1024
	DefaultOldAfter        = 90 * 24 * time.Hour
	DefaultVeryOldAfter    = 365 * 24 * time.Hour
)

// Policy holds the thresholds classification runs against.
type Policy struct {
	// MinHealthyBytes is the smallest stored size that still counts as a
	// complete fetch. Anything smaller is treated as a failed scrape.
	MinHealthyBytes int

	// OldAfter and VeryOldAfter are the ages at which an article picks up
	// the old and very-old labels. An article past VeryOldAfter gets only
	// very-old, never both.
	OldAfter     time.Duration
	VeryOldAfter time.Duration
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinHealthyBytes: DefaultMinHealthyBytes,
		OldAfter:        DefaultOldAfter,
		VeryOldAfter:    DefaultVeryOldAfter,
	}
}

// Classify decides which maintenance labels an article should carry at
// the given instant. Quality fields the server did not report never count
// against the article, and an article with no creation time gets no age
// label at all.
func (p Policy) Classify(article domain.Article, now time.Time) domain.LabelSet {
	labels := domain.NewLabelSet()
	if p.broken(article) {
		labels.Add(domain.LabelBroken)
	}
	if !article.CreatedAt.IsZero() {
		switch age := now.Sub(article.CreatedAt); {
		case age >= p.VeryOldAfter:
			labels.Add(domain.LabelVeryOld)
		case age >= p.OldAfter:
			labels.Add(domain.LabelOld)
		}
	}
	return labels
}

func (p Policy) broken(article domain.Article) bool {
	if article.Pages != nil && *article.Pages == 0 {
		return true
	}
	if article.SizeBytes != nil && *article.SizeBytes < p.MinHealthyBytes {
		return true
	}
	if article.ReadingTime != nil && *article.ReadingTime == 0 {
		return true
	}
	return false
}
