package domain

type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "IDLE"
	CheckoutValidating CheckoutState = "VALIDATING"
	CheckoutCommitting CheckoutState = "COMMITTING"
	CheckoutDone       CheckoutState = "DONE"
	CheckoutFailed     CheckoutState = "FAILED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutIdle:       {CheckoutValidating, CheckoutFailed},
	CheckoutValidating: {CheckoutCommitting, CheckoutFailed},
	CheckoutCommitting: {CheckoutDone, CheckoutFailed},
}

func (s CheckoutState) String() string {
	return string(s)
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
