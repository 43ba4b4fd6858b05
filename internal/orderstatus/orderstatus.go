// Package orderstatus derives everything a view shows about an order's
// progress from its stored status: the single-state badge and the five step
// timeline. All functions are pure and safe to recompute on every render.
package orderstatus

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Preparing Status = "preparing"
	Shipped   Status = "shipped"
	Delivered Status = "delivered"
)

// Sequence is the fixed forward order of the workflow.
var Sequence = []Status{Pending, Confirmed, Preparing, Shipped, Delivered}

var ErrUnknownStatus = errors.New("unknown order status")

type Badge struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`
}

var badges = map[Status]Badge{
	Pending:   {Status: string(Pending), Label: "Beklemede", Icon: "alert-circle", Color: "bg-orange-100 text-orange-800"},
	Confirmed: {Status: string(Confirmed), Label: "Onaylandı", Icon: "package", Color: "bg-blue-100 text-blue-800"},
	Preparing: {Status: string(Preparing), Label: "Hazırlanıyor", Icon: "clock", Color: "bg-yellow-100 text-yellow-800"},
	Shipped:   {Status: string(Shipped), Label: "Kargoda", Icon: "truck", Color: "bg-blue-100 text-blue-800"},
	Delivered: {Status: string(Delivered), Label: "Teslim Edildi", Icon: "check-circle", Color: "bg-green-100 text-green-800"},
}

var unknownBadge = Badge{Label: "Bilinmiyor", Icon: "package", Color: "bg-gray-100 text-gray-800"}

func Parse(s string) (Status, error) {
	st := Status(s)
	if _, ok := badges[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Index is the position of s in Sequence, or -1 for an unknown status.
func (s Status) Index() int {
	for i, st := range Sequence {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool {
	return s.Index() >= 0
}

func (s Status) Label() string {
	return BadgeFor(string(s)).Label
}

// Reached reports whether an order currently at current has passed or is at
// step. Unknown statuses reach nothing.
func Reached(current, step Status) bool {
	ci, si := current.Index(), step.Index()
	if ci < 0 || si < 0 {
		return false
	}
	return ci >= si
}

// IsBackward reports whether moving from one status to another goes against
// the forward sequence.
func IsBackward(from, to Status) bool {
	fi, ti := from.Index(), to.Index()
	return fi >= 0 && ti >= 0 && ti < fi
}

// BadgeFor maps a stored status string to its display badge. Unknown values
// get the neutral fallback badge carrying the raw status.
func BadgeFor(status string) Badge {
	if b, ok := badges[Status(status)]; ok {
		return b
	}
	b := unknownBadge
	b.Status = status
	return b
}

type Step struct {
	Status    Status     `json:"status"`
	Label     string     `json:"label"`
	Icon      string     `json:"icon"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date"`
}

// BuildTimeline returns the five steps for an order. The pending step is
// always completed and dated by createdAt, even for an unrecognised status.
// The current step is dated by updatedAt, and the delivered
// step by deliveredAt (or updatedAt when deliveredAt is missing). Steps that
// have not been reached carry no date.
func BuildTimeline(status string, createdAt, updatedAt time.Time, deliveredAt *time.Time) []Step {
	current := Status(status)
	steps := make([]Step, 0, len(Sequence))

	for _, st := range Sequence {
		b := badges[st]
		step := Step{
			Status:    st,
			Label:     b.Label,
			Icon:      b.Icon,
			Completed: st == Pending || Reached(current, st),
		}

		switch {
		case st == Pending:
			step.Date = timePtr(createdAt)
		case !step.Completed:
		case st == Delivered:
			if deliveredAt != nil {
				step.Date = timePtr(*deliveredAt)
			} else {
				step.Date = timePtr(updatedAt)
			}
		case st == current:
			step.Date = timePtr(updatedAt)
		}

		steps = append(steps, step)
	}

	return steps
}

func timePtr(t time.Time) *time.Time {
	return &t
}
