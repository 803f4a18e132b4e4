package triage

import "github.com/tm-robinson/wallabag-tools/internal/domain"

// Reconcile compares the labels an article carries against the labels it
// should, and returns the changes needed to close the gap. Additions are
// the desired labels the article lacks. The only removal ever produced is
// the old label on an article that has aged into very-old; every other
// tag on the article, including tags the user put there, is left alone.
func Reconcile(article domain.Article, desired domain.LabelSet) domain.TagDelta {
	delta := domain.TagDelta{ArticleID: article.ID}
	for _, label := range desired.Sorted() {
		if !article.HasTag(string(label)) {
			delta.Add = append(delta.Add, label)
		}
	}
	if desired.Has(domain.LabelVeryOld) && article.HasTag(string(domain.LabelOld)) {
		delta.Remove = append(delta.Remove, domain.LabelOld)
	}
	return delta
}
