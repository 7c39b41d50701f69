package tool

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/tools"
)

const (
	maxDice  = 100
	maxSides = 1000
)

var _ tools.Tool = (*Dice)(nil)

// Dice rolls dice in NdM notation ("2d6", "d20").
type Dice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDice creates a dice roller. A nil rng uses a randomly seeded source.
func NewDice(rng *rand.Rand) *Dice {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Dice{rng: rng}
}

// Name returns the name of the tool.
func (*Dice) Name() string {
	return "dice"
}

// Description returns the description of the tool.
func (*Dice) Description() string {
	return "Rolls dice. Input uses NdM notation, e.g. '2d6' rolls two six-sided dice; 'd20' rolls one."
}

// Call rolls the dice and reports each roll and the total.
func (d *Dice) Call(_ context.Context, input string) (string, error) {
	count, sides, err := parseDice(input)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	rolls := make([]string, count)
	total := 0
	for i := range count {
		roll := d.rng.IntN(sides) + 1
		total += roll
		rolls[i] = strconv.Itoa(roll)
	}
	d.mu.Unlock()

	return fmt.Sprintf("rolled %s: total %d", strings.Join(rolls, ", "), total), nil
}

func parseDice(input string) (int, int, error) {
	notation := strings.ToLower(strings.TrimSpace(input))
	countStr, sidesStr, ok := strings.Cut(notation, "d")
	if !ok {
		return 0, 0, fmt.Errorf("invalid dice notation %q", input)
	}

	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n < 1 || n > maxDice {
			return 0, 0, fmt.Errorf("dice count must be between 1 and %d", maxDice)
		}
		count = n
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides < 2 || sides > maxSides {
		return 0, 0, fmt.Errorf("sides must be between 2 and %d", maxSides)
	}
	return count, sides, nil
}
