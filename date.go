package vfat

import (
	"time"
)

// ParseDate decodes a packed FAT date:
//
//	Bits 0–4:  day of month, 1–31
//	Bits 5–8:  month of year, 1–12
//	Bits 9–15: years since 1980, 0–127
//
// The result is midnight UTC of that day.
// Day or month 0 are invalid and yield time.Time{}, so time.Time.IsZero() can be used to detect them.
// A month above 12 rolls over into the next year like time.Date does.
func ParseDate(input uint16) time.Time {
	day := int(input & 0x1F)
	month := int(input >> 5 & 0x0F)
	year := 1980 + int(input>>9)

	if day == 0 || month == 0 {
		return time.Time{}
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ParseTime decodes a packed FAT time with a granularity of two seconds:
//
//	Bits 0–4:   2 second count, 0–29
//	Bits 5–10:  minutes, 0–59
//	Bits 11–15: hours, 0–23
//
// The result lies on January 1 of year 1, so midnight is time.Time{}.
// Out of range fields are clamped to 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := int(input >> 5 & 0x3F)
	hours := int(input >> 11)

	result := time.Date(1, 1, 1, hours, minutes, seconds, 0, time.UTC)
	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}
	return result
}

// ParseTimestamp combines a packed date and time.
// tenth is the 10 millisecond count (0–199) which refines the creation time.
// An invalid date yields time.Time{} regardless of the time.
func ParseTimestamp(date, clock uint16, tenth byte) time.Time {
	d := ParseDate(date)
	if d.IsZero() {
		return time.Time{}
	}

	t := ParseTime(clock)
	if tenth > 199 {
		tenth = 199
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC).
		Add(time.Duration(tenth) * 10 * time.Millisecond)
}
