package metrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/genn/painel-os/internal/orders/types"
)

var ErrOverlappingStatus = errors.New("status in both open and closed sets")

// StatusSets splits status labels into open (in progress) and closed
// (completed or invoiced). The sets are disjoint; labels in neither set are
// uncategorized.
type StatusSets struct {
	Open   []string `yaml:"open" json:"open"`
	Closed []string `yaml:"closed" json:"closed"`
}

func (s StatusSets) Validate() error {
	open := make(map[string]struct{}, len(s.Open))
	for _, label := range s.Open {
		open[label] = struct{}{}
	}
	var overlap []string
	for _, label := range s.Closed {
		if _, ok := open[label]; ok {
			overlap = append(overlap, label)
		}
	}
	if len(overlap) > 0 {
		return fmt.Errorf("%w: %s", ErrOverlappingStatus, strings.Join(overlap, ", "))
	}
	return nil
}

type StatusClass int

const (
	Uncategorized StatusClass = iota
	Open
	Closed
)

func (c StatusClass) String() string {
	switch c {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "uncategorized"
	}
}

func (s StatusSets) classifier() func(string) StatusClass {
	classes := make(map[string]StatusClass, len(s.Open)+len(s.Closed))
	for _, label := range s.Open {
		classes[label] = Open
	}
	for _, label := range s.Closed {
		classes[label] = Closed
	}
	return func(label string) StatusClass {
		return classes[label]
	}
}

func (s StatusSets) Classify(label string) StatusClass {
	return s.classifier()(label)
}

type StatusBreakdown struct {
	Open          int `json:"open"`
	Closed        int `json:"closed"`
	Uncategorized int `json:"uncategorized"`
	// UncategorizedLabels counts each label found in neither set; empty
	// statuses are reported under types.MissingLabel.
	UncategorizedLabels map[string]int `json:"uncategorized_labels"`
}

// ClassifyStatuses counts the rows of contract per status class and reports
// the labels that fell outside both sets.
func ClassifyStatuses(ds *types.Dataset, sets StatusSets, contract string) (StatusBreakdown, error) {
	out := StatusBreakdown{UncategorizedLabels: map[string]int{}}
	if err := sets.Validate(); err != nil {
		return out, err
	}
	view, err := ds.ForContract(contract)
	if err != nil {
		return out, err
	}
	statuses, err := view.Texts(view.StatusColumn())
	if err != nil {
		return out, err
	}

	classify := sets.classifier()
	for _, label := range statuses {
		switch classify(label) {
		case Open:
			out.Open++
		case Closed:
			out.Closed++
		default:
			out.Uncategorized++
			if label == "" {
				label = types.MissingLabel
			}
			out.UncategorizedLabels[label]++
		}
	}
	return out, nil
}

// ClassifyStatusCounts returns the open and closed counts of contract.
// Uncategorized rows are in neither count.
func ClassifyStatusCounts(ds *types.Dataset, sets StatusSets, contract string) (open, closed int, err error) {
	b, err := ClassifyStatuses(ds, sets, contract)
	if err != nil {
		return 0, 0, err
	}
	return b.Open, b.Closed, nil
}

// WithStatus keeps the rows whose status is one of labels.
func WithStatus(ds *types.Dataset, labels ...string) (*types.Dataset, error) {
	return ds.WhereIn(ds.StatusColumn(), labels...)
}

// CompletionPercentage is closed/(open+closed)*100, and 0 when both are 0.
// Use Completion to tell "no data" apart from "nothing finished".
func CompletionPercentage(open, closed int) float64 {
	total := open + closed
	if total == 0 {
		return 0
	}
	return float64(closed*100) / float64(total)
}

type CompletionRate struct {
	Open       int     `json:"open"`
	Closed     int     `json:"closed"`
	Percentage float64 `json:"percentage"`
	HasData    bool    `json:"has_data"`
}

func Completion(open, closed int) CompletionRate {
	return CompletionRate{
		Open:       open,
		Closed:     closed,
		Percentage: CompletionPercentage(open, closed),
		HasData:    open+closed > 0,
	}
}
