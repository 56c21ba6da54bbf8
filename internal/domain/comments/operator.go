package comments

import "strings"

// Operator compares an average rating against a threshold.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// ParseOperator accepts the symbolic operators. An empty string means
// equality. Any other unknown operator is ErrInvalidOperator, not equality.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.TrimSpace(s))
	if op == "" {
		return OpEqual, nil
	}
	if !op.Valid() {
		return "", ErrInvalidOperator
	}
	return op, nil
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		return true
	}
	return false
}

// Compare applies op to (avg, value).
func (op Operator) Compare(avg, value float64) bool {
	switch op {
	case OpEqual:
		return avg == value
	case OpNotEqual:
		return avg != value
	case OpGreater:
		return avg > value
	case OpGreaterOrEqual:
		return avg >= value
	case OpLess:
		return avg < value
	case OpLessOrEqual:
		return avg <= value
	}
	return false
}
