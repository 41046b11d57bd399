package order

// Step is a position in the linear order flow.
type Step int

const (
	StepItems   Step = iota // Review the product and quantity
	StepAddress             // Pick or create a delivery address
	StepConfirm             // Final review
)

func (s Step) String() string {
	switch s {
	case StepItems:
		return "Items"
	case StepAddress:
		return "Select Address"
	case StepConfirm:
		return "Confirm Order"
	default:
		return "unknown"
	}
}

// Steps lists the flow in order, for progress displays.
var Steps = []Step{StepItems, StepAddress, StepConfirm}

// NextLabel is the caption of the forward action at this step.
func (s Step) NextLabel() string {
	if s == StepConfirm {
		return "Confirm"
	}
	return "Next"
}
