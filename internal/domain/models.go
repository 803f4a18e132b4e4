// Package domain contains the core models shared by the maintenance jobs.
package domain

import (
	"sort"
	"time"
)

// Label is one of the fixed tag markers the jobs manage on wallabag entries.
type Label string

const (
	LabelBroken   Label = "broken"
	LabelOld      Label = "old"
	LabelVeryOld  Label = "very-old"
	LabelRSS      Label = "rss"
	LabelArchived Label = "archived"
)

// Article is a normalized snapshot of one wallabag entry. Numeric fields use
// pointers because absence and zero carry different meanings for the rules:
// pages==0 marks a broken fetch, pages==nil means wallabag never reported it.
type Article struct {
	ID          int
	URL         string
	Host        string
	Title       string
	CreatedAt   time.Time // zero value when wallabag reported no date
	Pages       *int
	SizeBytes   *int
	ReadingTime *int // minutes
	Archived    bool // wallabag read/archived flag, not the archived label
	Tags        []string
}

// HasTag reports whether the article currently carries the given tag.
func (a Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagDelta is the tag reconciliation proposed for one article in one run.
// It is produced fresh per run and never persisted.
type TagDelta struct {
	ArticleID int
	Add       []Label
	Remove    []Label
}

// Empty reports whether the delta proposes no changes at all.
func (d TagDelta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// LabelSet is an unordered collection of unique labels. Rule evaluation
// unions into a set so result contents cannot depend on evaluation order.
type LabelSet map[Label]struct{}

// NewLabelSet builds a set from the given labels.
func NewLabelSet(labels ...Label) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

// Add inserts a label into the set.
func (s LabelSet) Add(l Label) {
	s[l] = struct{}{}
}

// Has reports whether the label is in the set.
func (s LabelSet) Has(l Label) bool {
	_, ok := s[l]
	return ok
}

// Union merges other into s and returns s.
func (s LabelSet) Union(other LabelSet) LabelSet {
	for l := range other {
		s.Add(l)
	}
	return s
}

// Sorted returns the labels in lexical order for stable output and logging.
func (s LabelSet) Sorted() []Label {
	out := make([]Label, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted labels as plain strings for API payloads.
func (s LabelSet) Strings() []string {
	labels := s.Sorted()
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out
}
