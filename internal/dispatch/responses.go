package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

const spokenLayout = "Monday, January 2 at 3:04 PM"

func clarifyScheduleText(in intent.Intent) string {
	_, haveDate := in.Field(intent.SlotDate)
	_, haveTime := in.Field(intent.SlotTime)
	switch {
	case !haveDate && !haveTime:
		return "Happy to book that for you. What day and time work best?"
	case !haveDate:
		return "What day would you like to come in?"
	default:
		return "What time works for you that day?"
	}
}

func confirmBookingText(b model.Booking) string {
	return fmt.Sprintf("You're booked for %s. See you then!", b.SlotStart.Format(spokenLayout))
}

func conflictText(requested time.Time, alts []time.Time) string {
	if len(alts) == 0 {
		return fmt.Sprintf("Sorry, %s is taken and nothing nearby is open. Could you suggest another day?",
			requested.Format(spokenLayout))
	}
	formatted := make([]string, len(alts))
	for i, t := range alts {
		formatted[i] = t.Format(spokenLayout)
	}
	return fmt.Sprintf("Sorry, %s is taken. I could do %s instead - would either work?",
		requested.Format(spokenLayout), strings.Join(formatted, " or "))
}

func rescheduleText(old, updated model.Booking) string {
	return fmt.Sprintf("Done - I've moved your %s appointment to %s.",
		old.SlotStart.Format(spokenLayout), updated.SlotStart.Format(spokenLayout))
}

func cancelText(b model.Booking) string {
	return fmt.Sprintf("Your %s appointment is cancelled. Hope to see you another time.",
		b.SlotStart.Format(spokenLayout))
}

func noBookingText() string {
	return "I couldn't find an upcoming appointment under this number. Would you like to book one?"
}

func contactSavedText(c collab.Contact) string {
	if c.Name != "" {
		return fmt.Sprintf("Thanks %s, I've saved your details and someone will be in touch.", c.Name)
	}
	return "Thanks, I've saved your details and someone will be in touch."
}

func clarifyContactText() string {
	return "Could you share a name and the best way to reach you?"
}

func escalationText() string {
	return "Good question - I don't have that on hand, so I'll have a member of the team get back to you."
}

func fallbackText() string {
	return "Sorry, I didn't quite catch that. I can book, move, or cancel appointments, or answer questions about the practice."
}
