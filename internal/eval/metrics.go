// Package eval scores retrieved document sets against relevance judgments
// and keeps a history of evaluation reports.
package eval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// Metrics compares a retrieved set with a relevant set. Duplicates in
// either input count once.
type Metrics struct {
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Compute returns set-based precision, recall and F1. Any ratio whose
// denominator is zero is 0.
func Compute(retrieved, relevant []int) Metrics {
	ret := toSet(retrieved)
	rel := toSet(relevant)

	var m Metrics
	for id := range ret {
		if _, ok := rel[id]; ok {
			m.TP++
		} else {
			m.FP++
		}
	}
	m.FN = len(rel) - m.TP

	if m.TP+m.FP > 0 {
		m.Precision = float64(m.TP) / float64(m.TP+m.FP)
	}
	if m.TP+m.FN > 0 {
		m.Recall = float64(m.TP) / float64(m.TP+m.FN)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Report is one evaluated query.
type Report struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Mode        string    `json:"mode"`
	Retrieved   []int     `json:"retrieved"`
	Relevant    []int     `json:"relevant"`
	Metrics     Metrics   `json:"metrics"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// NewReport computes metrics and stamps the report with a fresh id.
// Relevant is stored sorted and de-duplicated; Retrieved keeps its order.
func NewReport(query, mode string, retrieved, relevant []int) Report {
	rel := make([]int, 0, len(relevant))
	for id := range toSet(relevant) {
		rel = append(rel, id)
	}
	sort.Ints(rel)
	return Report{
		ID:          uuid.NewString(),
		Query:       query,
		Mode:        mode,
		Retrieved:   append([]int{}, retrieved...),
		Relevant:    rel,
		Metrics:     Compute(retrieved, relevant),
		EvaluatedAt: time.Now().UTC(),
	}
}

// ParseIDs reads a comma- or whitespace-separated list of non-negative
// document ids, e.g. "2,3, 4".
func ParseIDs(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id < 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "bad document id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Format renders a report the way the CLI prints it.
func (r Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", r.Query)
	fmt.Fprintf(&b, "Mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "Retrieved: %v\n", r.Retrieved)
	fmt.Fprintf(&b, "Relevant: %v\n", r.Relevant)
	fmt.Fprintf(&b, "TP=%d FP=%d FN=%d\n", r.Metrics.TP, r.Metrics.FP, r.Metrics.FN)
	fmt.Fprintf(&b, "Precision: %.4f\n", r.Metrics.Precision)
	fmt.Fprintf(&b, "Recall:    %.4f\n", r.Metrics.Recall)
	fmt.Fprintf(&b, "F1 Score:  %.4f\n", r.Metrics.F1)
	return b.String()
}
