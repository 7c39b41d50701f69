package arcade

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/smallnest/pixelgraph/schemas"
)

// DefaultDemoAgent animates demo runs when no agents are configured.
const DefaultDemoAgent = "wizard"

// DefaultDemoTool is the tool the demo agents pretend to use.
const DefaultDemoTool = "crystal_ball"

// DemoRunner plays a scripted simulation when the server has no graph.
// Each agent in turn thinks, consults a tool, speaks and goes idle.
type DemoRunner struct {
	Agents []string
	// Delay is the pause between two events.
	Delay time.Duration
	Tool  string
}

// NewDemoRunner animates every node of cfg in name order.
func NewDemoRunner(cfg schemas.VisualConfig, delay time.Duration) *DemoRunner {
	agents := make([]string, 0, len(cfg.Nodes))
	for id := range cfg.Nodes {
		agents = append(agents, id)
	}
	slices.Sort(agents)
	return &DemoRunner{Agents: agents, Delay: delay, Tool: DefaultDemoTool}
}

// Run implements Runner.
func (d *DemoRunner) Run(ctx context.Context, input string, em *Emitter) error {
	agents := d.Agents
	if len(agents) == 0 {
		agents = []string{DefaultDemoAgent}
	}
	tool := d.Tool
	if tool == "" {
		tool = DefaultDemoTool
	}

	for _, agent := range agents {
		steps := []func() error{
			func() error { return em.ThinkStart(ctx, agent) },
			func() error { return em.ToolStart(ctx, agent, tool, input) },
			func() error { return em.ToolEnd(ctx, agent, tool, demoVision(input)) },
			func() error { return em.Speak(ctx, agent, demoReply(input)) },
			func() error { return em.Idle(ctx, agent) },
		}
		for i, step := range steps {
			if i > 0 {
				if err := d.pause(ctx); err != nil {
					return err
				}
			}
			if err := step(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *DemoRunner) pause(ctx context.Context) error {
	if d.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func demoVision(input string) string {
	return fmt.Sprintf("The crystal ball glows: %d words seen", len(strings.Fields(input)))
}

func demoReply(input string) string {
	return fmt.Sprintf("You said: **%s**. I am only a demo, but I heard you!", input)
}
