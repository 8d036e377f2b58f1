// Package saga runs an ordered list of steps where each step carries a
// compensating action. When a step fails, the compensations of every
// step that already ran are executed in reverse order. Multi-row
// creation flows (account + credentials + outlet link) use this
// instead of hand-written rollback chains.
package saga

import (
	"fmt"
	"log"
)

type Step struct {
	Name string
	// Run performs the step's forward action.
	Run func() error
	// Compensate undoes a previously successful Run. May be nil for
	// steps with nothing to undo.
	Compensate func() error
}

type Saga struct {
	steps []Step
}

func New(steps ...Step) *Saga {
	return &Saga{steps: steps}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs every step in order. On the first failure it unwinds
// the completed steps in reverse and returns the original error. A
// failing compensation cannot be repaired here; it is logged and
// reported alongside the step error.
func (s *Saga) Execute() error {
	for i, step := range s.steps {
		err := step.Run()
		if err == nil {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			prev := s.steps[j]
			if prev.Compensate == nil {
				continue
			}
			if cerr := prev.Compensate(); cerr != nil {
				log.Printf("saga: compensation %q failed: %v", prev.Name, cerr)
				return fmt.Errorf("step %q failed: %w (compensation %q also failed: %v)",
					step.Name, err, prev.Name, cerr)
			}
		}

		return fmt.Errorf("step %q failed: %w", step.Name, err)
	}

	return nil
}
