// Package intelligence recognises whether extracted text comes from a tax
// credit statement, so an empty parse can be explained to the user.
package intelligence

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DocumentType is the classification outcome
type DocumentType string

const (
	DocumentTypeForm26AS DocumentType = "form_26as"
	DocumentTypeAIS      DocumentType = "annual_information_statement"
	DocumentTypeForm16A  DocumentType = "form_16a"
	DocumentTypeUnknown  DocumentType = "unknown"
)

// ClassificationRule scores one document type by keyword and pattern hits
type ClassificationRule struct {
	Name            string
	DocumentType    DocumentType
	Keywords        []string
	KeywordPatterns []string
	Weight          float64

	patterns []*regexp.Regexp
}

// ClassificationReason records one piece of evidence
type ClassificationReason struct {
	Rule     string `json:"rule"`
	Evidence string `json:"evidence"`
}

// ClassificationResult is the classifier verdict for one text blob
type ClassificationResult struct {
	Type       DocumentType           `json:"type"`
	Confidence float64                `json:"confidence"` // 0..1
	Reasons    []ClassificationReason `json:"reasons,omitempty"`
}

// IsForm26AS reports whether the text looks like a Form 26AS statement
func (r ClassificationResult) IsForm26AS() bool {
	return r.Type == DocumentTypeForm26AS
}

// minConfidence is the score below which the type stays unknown
const minConfidence = 0.3

// DocumentClassifier performs rule-based document classification. It is
// safe for concurrent use once constructed.
type DocumentClassifier struct {
	rules []ClassificationRule
}

// NewDocumentClassifier creates a classifier with the default rules
func NewDocumentClassifier() *DocumentClassifier {
	rules := getDefaultRules()
	for i := range rules {
		for _, p := range rules[i].KeywordPatterns {
			rules[i].patterns = append(rules[i].patterns, regexp.MustCompile("(?i)"+p))
		}
	}
	return &DocumentClassifier{rules: rules}
}

// Classify scores text against every rule and returns the best type
func (dc *DocumentClassifier) Classify(text string) ClassificationResult {
	lower := strings.ToLower(text)
	scores := make(map[DocumentType]float64)
	reasons := make(map[DocumentType][]ClassificationReason)

	for _, rule := range dc.rules {
		var confidence float64
		for _, keyword := range rule.Keywords {
			if count := strings.Count(lower, keyword); count > 0 {
				confidence += 0.2
				reasons[rule.DocumentType] = append(reasons[rule.DocumentType], ClassificationReason{
					Rule:     rule.Name,
					Evidence: fmt.Sprintf("found keyword '%s' %d times", keyword, count),
				})
			}
		}
		for i, re := range rule.patterns {
			if matches := re.FindAllStringIndex(text, -1); len(matches) > 0 {
				confidence += 0.25
				reasons[rule.DocumentType] = append(reasons[rule.DocumentType], ClassificationReason{
					Rule:     rule.Name,
					Evidence: fmt.Sprintf("pattern '%s' matched %d times", rule.KeywordPatterns[i], len(matches)),
				})
			}
		}
		scores[rule.DocumentType] += confidence * rule.Weight
	}

	best, bestScore := DocumentTypeUnknown, 0.0
	types := make([]DocumentType, 0, len(scores))
	for t := range scores {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}

	if bestScore > 1 {
		bestScore = 1
	}
	if bestScore < minConfidence {
		return ClassificationResult{Type: DocumentTypeUnknown, Confidence: bestScore}
	}
	return ClassificationResult{Type: best, Confidence: bestScore, Reasons: reasons[best]}
}

func getDefaultRules() []ClassificationRule {
	return []ClassificationRule{
		{
			Name:         "form26as_keywords",
			DocumentType: DocumentTypeForm26AS,
			Keywords: []string{
				"form 26as", "annual tax statement", "tax deducted at source",
				"tan of deductor", "total tds deposited", "traces",
			},
			KeywordPatterns: []string{
				`part[\s-]*i\b`,
				`\b[A-Z]{4}[A-Z0-9][0-9]{4}[A-Z]\b`,
			},
			Weight: 1.0,
		},
		{
			Name:         "ais_keywords",
			DocumentType: DocumentTypeAIS,
			Keywords: []string{
				"annual information statement", "taxpayer information summary", "sft",
			},
			Weight: 0.9,
		},
		{
			Name:         "form16a_keywords",
			DocumentType: DocumentTypeForm16A,
			Keywords: []string{
				"form no. 16a", "form 16a", "certificate under section 203",
			},
			Weight: 0.9,
		},
	}
}
