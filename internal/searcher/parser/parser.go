// Package parser turns raw query strings into evaluation plans for the
// Boolean and proximity searchers.
package parser

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Operator int

const (
	OpAND Operator = iota
	OpOR
)

func (o Operator) String() string {
	if o == OpOR {
		return "OR"
	}
	return "AND"
}

// Clause is one term combined into the running result with Op.
type Clause struct {
	Op   Operator
	Term string
}

// BooleanPlan is a left-to-right fold: the first clause seeds the result,
// each later clause is applied with its operator. No precedence, no
// grouping.
type BooleanPlan struct {
	Clauses  []Clause
	RawQuery string
}

// Empty reports whether the plan has no terms.
func (p *BooleanPlan) Empty() bool { return len(p.Clauses) == 0 }

// Terms returns the plan's terms in query order.
func (p *BooleanPlan) Terms() []string {
	terms := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		terms[i] = c.Term
	}
	return terms
}

// ParseBoolean lower-cases and whitespace-splits query. "and" and "or" in
// any case set the operator for every following term until the next
// operator; terms seen before any operator combine with AND. Every other
// token, including "not" and parentheses, is a literal term.
func ParseBoolean(query string) *BooleanPlan {
	plan := &BooleanPlan{
		Clauses:  make([]Clause, 0),
		RawQuery: query,
	}
	current := OpAND
	for _, word := range strings.Fields(strings.ToLower(query)) {
		switch word {
		case "and":
			current = OpAND
			continue
		case "or":
			current = OpOR
			continue
		}
		plan.Clauses = append(plan.Clauses, Clause{Op: current, Term: word})
	}
	return plan
}

var proximityPattern = regexp.MustCompile(`^(\w+)\s*/(\d+)\s*(\w+)`)

// ProximityPlan asks for documents where Left and Right occur at most
// Window positions apart.
type ProximityPlan struct {
	Left   string
	Right  string
	Window int
}

// ParseProximity matches "<term1> /<k> <term2>" at the start of the
// lower-cased query. ok is false when the query is not a proximity query,
// in which case callers fall back to phrase search.
func ParseProximity(query string) (plan ProximityPlan, ok bool) {
	m := proximityPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(query)))
	if m == nil {
		return ProximityPlan{}, false
	}
	k, err := strconv.Atoi(m[2])
	if errors.Is(err, strconv.ErrRange) {
		k = math.MaxInt
	} else if err != nil {
		return ProximityPlan{}, false
	}
	return ProximityPlan{Left: m[1], Right: m[3], Window: k}, true
}
