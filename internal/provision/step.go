// SPDX-License-Identifier: MPL-2.0

package provision

// Step identifies a stage of the silent install sequence. Steps advance in
// order; StepFailed can follow any of them.
type Step uint8

const (
	StepStart Step = iota
	StepRuntimeReady
	StepMachineReady
	StepImageReady
	StepVerified
	StepComplete
	StepFailed
)

// String returns a short machine-friendly name for the step.
func (s Step) String() string {
	switch s {
	case StepStart:
		return "start"
	case StepRuntimeReady:
		return "runtime-ready"
	case StepMachineReady:
		return "machine-ready"
	case StepImageReady:
		return "image-ready"
	case StepVerified:
		return "verified"
	case StepComplete:
		return "complete"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// checkpoint returns the progress percentage reached when the step completes.
// Values are strictly increasing along the step order so observers always see
// monotone progress, including on platforms where the machine step is a no-op.
func checkpoint(s Step) int {
	switch s {
	case StepStart:
		return 0
	case StepRuntimeReady:
		return 25
	case StepMachineReady:
		return 50
	case StepImageReady:
		return 75
	case StepVerified:
		return 90
	case StepComplete:
		return 100
	default:
		return 0
	}
}

type (
	// Progress is a single installer progress event.
	Progress struct {
		// Step is the stage just reached (or StepFailed).
		Step Step
		// Message is a human-readable description of what happened.
		Message string
		// Percent is the cumulative progress, 0 to 100.
		Percent int
	}

	// ProgressFunc observes installer progress. It is called synchronously
	// from Install and must not block for long.
	ProgressFunc func(Progress)
)
