package models

import "strings"

// Status is the lifecycle state of a tracked order.
//
//	processing -> confirmed -> packed -> shipped -> in_transit -> out_for_delivery -> delivered
//
// failed and returned are absorbing failure states reachable from any non-terminal status.
type Status string

const (
	StatusProcessing     Status = "processing"
	StatusConfirmed      Status = "confirmed"
	StatusPacked         Status = "packed"
	StatusShipped        Status = "shipped"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusFailed         Status = "failed"
	StatusReturned       Status = "returned"
)

// FinalStep is the step of StatusDelivered.
const FinalStep = 7

// StatusInfo is the static metadata attached to a status.
type StatusInfo struct {
	Label       string `json:"label"`
	Progress    int    `json:"progress"`
	Step        int    `json:"step"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Sequence is the forward sequence, index i holds the status at step i+1.
var Sequence = []Status{
	StatusProcessing,
	StatusConfirmed,
	StatusPacked,
	StatusShipped,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
}

// AllStatuses lists every known status, forward sequence first.
var AllStatuses = append(append([]Status{}, Sequence...), StatusFailed, StatusReturned)

// Info returns the metadata of s. The second value is false for unknown statuses.
func (s Status) Info() (StatusInfo, bool) {
	switch s {
	case StatusProcessing:
		return StatusInfo{Label: "Processing", Progress: 10, Step: 1, Description: "Order is being processed", Color: "#f0ad4e"}, true
	case StatusConfirmed:
		return StatusInfo{Label: "Confirmed", Progress: 20, Step: 2, Description: "Order has been confirmed", Color: "#5bc0de"}, true
	case StatusPacked:
		return StatusInfo{Label: "Packed", Progress: 35, Step: 3, Description: "Package has been packed and is ready for shipment", Color: "#337ab7"}, true
	case StatusShipped:
		return StatusInfo{Label: "Shipped", Progress: 50, Step: 4, Description: "Package has been handed over to the carrier", Color: "#6f42c1"}, true
	case StatusInTransit:
		return StatusInfo{Label: "In Transit", Progress: 70, Step: 5, Description: "Package is on its way", Color: "#17a2b8"}, true
	case StatusOutForDelivery:
		return StatusInfo{Label: "Out for Delivery", Progress: 90, Step: 6, Description: "Package is out for delivery", Color: "#fd7e14"}, true
	case StatusDelivered:
		return StatusInfo{Label: "Delivered", Progress: 100, Step: 7, Description: "Package has been delivered", Color: "#28a745"}, true
	case StatusFailed:
		return StatusInfo{Label: "Delivery Failed", Progress: 0, Step: 0, Description: "Delivery attempt failed", Color: "#dc3545"}, true
	case StatusReturned:
		return StatusInfo{Label: "Returned", Progress: 0, Step: 0, Description: "Package has been returned to sender", Color: "#6c757d"}, true
	}
	return StatusInfo{}, false
}

func (s Status) Valid() bool {
	_, ok := s.Info()
	return ok
}

func (s Status) Progress() int {
	info, _ := s.Info()
	return info.Progress
}

func (s Status) Step() int {
	info, _ := s.Info()
	return info.Step
}

func (s Status) Label() string {
	info, _ := s.Info()
	return info.Label
}

func (s Status) Description() string {
	info, _ := s.Info()
	return info.Description
}

// IsFailure reports whether s is one of the absorbing failure states.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusReturned
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s.IsFailure()
}

// Next returns the status following s in the forward sequence.
func (s Status) Next() (Status, bool) {
	if s.IsTerminal() {
		return "", false
	}
	step := s.Step()
	if step < 1 || step >= FinalStep {
		return "", false
	}
	return Sequence[step], true
}

// CanMoveTo reports whether an out-of-band override from s to target keeps the
// order monotonic: forward jumps and failure states are allowed, nothing else.
func (s Status) CanMoveTo(target Status) bool {
	if !target.Valid() || s.IsTerminal() || s == target {
		return false
	}
	if target.IsFailure() {
		return true
	}
	return target.Step() > s.Step()
}

// StepsRemaining is the number of forward transitions left before delivery.
func (s Status) StepsRemaining() int {
	if s.IsFailure() {
		return 0
	}
	return FinalStep - s.Step()
}

// ParseStatus normalizes user input ("In Transit", "IN_TRANSIT", "in-transit").
func ParseStatus(raw string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	s := Status(norm)
	return s, s.Valid()
}

// NonTerminalStatuses lists the statuses the simulator may advance.
func NonTerminalStatuses() []Status {
	out := make([]Status, 0, len(Sequence)-1)
	for _, s := range Sequence {
		if !s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}
