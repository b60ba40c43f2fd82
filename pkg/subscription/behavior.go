package subscription

// OperationsClass describes how much of the register stays usable.
type OperationsClass string

const (
	OperationsFull     OperationsClass = "full"
	OperationsDegraded OperationsClass = "degraded"
)

// Behavior is the product policy attached to an effective status.
type Behavior struct {
	FeaturesAvailable bool            `json:"features_available"`
	ShowWarning       bool            `json:"show_warning"`
	Operations        OperationsClass `json:"operations"`
}

var behaviors = map[Status]Behavior{
	StatusTrial:     {FeaturesAvailable: true, ShowWarning: true, Operations: OperationsFull},
	StatusActive:    {FeaturesAvailable: true, ShowWarning: false, Operations: OperationsFull},
	StatusExpired:   {FeaturesAvailable: false, ShowWarning: true, Operations: OperationsDegraded},
	StatusCancelled: {FeaturesAvailable: false, ShowWarning: true, Operations: OperationsDegraded},
}

// BehaviorOf returns the behaviour for s. Unknown statuses behave as expired.
func BehaviorOf(s Status) Behavior {
	if b, ok := behaviors[s]; ok {
		return b
	}
	return behaviors[StatusExpired]
}
