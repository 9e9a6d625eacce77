package service

import (
	"fmt"
	"strings"

	"github.com/eightball/booking_api/internal/model"
)

const icsTimeLayout = "20060102T150405Z"

// BookingICS собирает календарное событие (iCalendar) для брони,
// чтобы клиент мог добавить запись себе в календарь. Времена в UTC.
func BookingICS(booking *model.Booking) string {
	summary := "Booking"
	locationName := ""
	if booking.Service != nil && booking.Service.Title != "" {
		summary = booking.Service.Title
	}
	if booking.Location != nil {
		locationName = booking.Location.Name
	}

	description := fmt.Sprintf("Seats: %d", booking.Seats)
	if booking.CustomerName != "" {
		description += "\nName: " + booking.CustomerName
	}

	var b strings.Builder
	writeICSLine(&b, "BEGIN:VCALENDAR")
	writeICSLine(&b, "VERSION:2.0")
	writeICSLine(&b, "PRODID:-//booking_api//EN")
	writeICSLine(&b, "CALSCALE:GREGORIAN")
	writeICSLine(&b, "METHOD:PUBLISH")
	writeICSLine(&b, "BEGIN:VEVENT")
	writeICSLine(&b, fmt.Sprintf("UID:booking-%d@booking-api", booking.ID))
	writeICSLine(&b, "DTSTAMP:"+booking.CreatedAt.UTC().Format(icsTimeLayout))
	writeICSLine(&b, "DTSTART:"+booking.SlotStartUTC.UTC().Format(icsTimeLayout))
	writeICSLine(&b, "DTEND:"+booking.SlotEndUTC.UTC().Format(icsTimeLayout))
	writeICSLine(&b, "SUMMARY:"+escapeICS(summary))
	if locationName != "" {
		writeICSLine(&b, "LOCATION:"+escapeICS(locationName))
	}
	writeICSLine(&b, "DESCRIPTION:"+escapeICS(description))
	writeICSLine(&b, "STATUS:CONFIRMED")
	writeICSLine(&b, "END:VEVENT")
	writeICSLine(&b, "END:VCALENDAR")

	return b.String()
}

// writeICSLine строка формата iCalendar, разделитель CRLF
func writeICSLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escapeICS экранирование текста по RFC 5545
func escapeICS(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
