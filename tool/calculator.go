package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/tools"
)

var _ tools.Tool = Calculator{}

// Calculator evaluates a single binary operation such as "3 * 4".
type Calculator struct{}

// Name returns the name of the tool.
func (Calculator) Name() string {
	return "calculator"
}

// Description returns the description of the tool.
func (Calculator) Description() string {
	return "A simple calculator for one operation on two numbers. " +
		"Input format: 'a + b', 'a - b', 'a * b', 'a / b', 'a % b' or 'a ^ b'."
}

// Call evaluates the expression.
func (Calculator) Call(_ context.Context, input string) (string, error) {
	a, op, b, err := parseBinary(input)
	if err != nil {
		return "", err
	}

	var result float64
	switch op {
	case '+':
		result = a + b
	case '-':
		result = a - b
	case '*', 'x':
		result = a * b
	case '/':
		if b == 0 {
			return "", fmt.Errorf("division by zero")
		}
		result = a / b
	case '%':
		if b == 0 {
			return "", fmt.Errorf("division by zero")
		}
		result = float64(int64(a) % int64(b))
	case '^':
		result = 1
		for range int(b) {
			result *= a
		}
	}
	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

// parseBinary splits "a op b". The operator search starts after the first
// character so that a leading minus belongs to a.
func parseBinary(input string) (float64, byte, float64, error) {
	expr := strings.TrimSpace(input)
	if expr == "" {
		return 0, 0, 0, fmt.Errorf("empty expression")
	}

	idx := strings.IndexAny(expr[1:], "+-*x/%^")
	if idx < 0 {
		return 0, 0, 0, fmt.Errorf("no operator in %q", expr)
	}
	idx++

	a, err := strconv.ParseFloat(strings.TrimSpace(expr[:idx]), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid number %q", strings.TrimSpace(expr[:idx]))
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(expr[idx+1:]), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid number %q", strings.TrimSpace(expr[idx+1:]))
	}
	op := expr[idx]
	if op == '^' && (b < 0 || b != float64(int(b))) {
		return 0, 0, 0, fmt.Errorf("exponent must be a non-negative integer")
	}
	return a, op, b, nil
}
