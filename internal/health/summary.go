package health

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	// trendThreshold is the systolic delta (mmHg) under which a trend counts
	// as stable.
	trendThreshold = 5.0
	// trendMinReadings is the minimum number of readings needed before a
	// trend is reported at all.
	trendMinReadings = 4

	minutesPerDay = 24 * 60

	defaultWeeklyGoal = 5
)

// ComputeHealthSummary derives the home-screen summary from the document as of
// now. Pure except for the mocked adherence figure; inject now for testability.
func ComputeHealthSummary(doc *Document, now time.Time) HealthSummary {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.Add(-7 * 24 * time.Hour)

	activeCount := 0
	for _, med := range doc.Medications {
		if med.IsActive {
			activeCount++
		}
	}

	var recent []BloodPressureReading
	for _, reading := range doc.BloodPressureReadings {
		if !reading.Timestamp.Before(weekAgo) {
			recent = append(recent, reading)
		}
	}

	var average7d *BPAverage
	if len(recent) > 0 {
		totalSystolic, totalDiastolic := 0, 0
		for _, reading := range recent {
			totalSystolic += reading.Systolic
			totalDiastolic += reading.Diastolic
		}
		average7d = &BPAverage{
			Systolic:  roundDiv(totalSystolic, len(recent)),
			Diastolic: roundDiv(totalDiastolic, len(recent)),
		}
	}

	todayCount := 0
	tomorrow := today.Add(24 * time.Hour)
	for _, session := range doc.TherapySessions {
		if !session.Timestamp.Before(today) && session.Timestamp.Before(tomorrow) {
			todayCount++
		}
	}

	summary := HealthSummary{
		Medications: MedicationSummary{
			Total:       len(doc.Medications),
			Active:      activeCount,
			NextDose:    nextDose(doc.Medications, now),
			Adherence7d: rand.Intn(20) + 80, // TODO: compute from AdherenceData once dose logging lands
		},
		BloodPressure: BloodPressureSummary{
			Average7d: average7d,
			Trend:     systolicTrend(recent),
		},
		Therapy: TherapySummary{
			TodaySessions: todayCount,
			WeeklyGoal:    defaultWeeklyGoal,
		},
	}

	if len(doc.BloodPressureReadings) > 0 {
		last := doc.BloodPressureReadings[0]
		summary.BloodPressure.LastReading = &last
	}
	if len(doc.TherapySessions) > 0 {
		last := doc.TherapySessions[0]
		summary.Therapy.LastSession = &last
	}

	return summary
}

// nextDose scans active reminders of active medications and picks the one that
// fires soonest, wrapping past times forward to the next day. Ties keep the
// first reminder encountered in collection order.
func nextDose(medications []Medication, now time.Time) *NextDose {
	nowMinutes := now.Hour()*60 + now.Minute()

	var winner *NextDose
	minDiff := math.MaxInt

	for _, med := range medications {
		if !med.IsActive {
			continue
		}
		for _, reminder := range med.Reminders {
			if !reminder.IsActive {
				continue
			}

			reminderMinutes := reminder.Hour*60 + reminder.Minute
			diff := reminderMinutes - nowMinutes
			if diff < 0 {
				diff += minutesPerDay
			}

			if diff < minDiff {
				minDiff = diff
				winner = &NextDose{
					Medication: med.Name,
					Time:       fmt.Sprintf("%02d:%02d", reminder.Hour, reminder.Minute),
				}
			}
		}
	}

	return winner
}

// ComputeBloodPressureStats summarizes the full list of readings, assumed to be
// in insertion order, newest first.
func ComputeBloodPressureStats(readings []BloodPressureReading) BloodPressureStats {
	if len(readings) == 0 {
		return BloodPressureStats{Trend: TrendUnknown}
	}

	totalSystolic, totalDiastolic := 0, 0
	totalPulse, pulseCount := 0, 0
	for _, reading := range readings {
		totalSystolic += reading.Systolic
		totalDiastolic += reading.Diastolic
		if reading.Pulse != nil {
			totalPulse += *reading.Pulse
			pulseCount++
		}
	}

	stats := BloodPressureStats{
		AverageSystolic:  roundDiv(totalSystolic, len(readings)),
		AverageDiastolic: roundDiv(totalDiastolic, len(readings)),
		ReadingsCount:    len(readings),
		Trend:            systolicTrend(readings),
	}

	// Pulse is optional per reading: average only the subset that has one.
	if pulseCount > 0 {
		avg := roundDiv(totalPulse, pulseCount)
		stats.AveragePulse = &avg
	}

	last := readings[0]
	stats.LastReading = &last

	return stats
}

// systolicTrend splits the readings at their midpoint, preserving list order
// (insertion order, newest first — not chronological), and compares mean
// systolic of the second half against the first.
func systolicTrend(readings []BloodPressureReading) Trend {
	if len(readings) < trendMinReadings {
		return TrendUnknown
	}

	mid := len(readings) / 2
	firstAvg := meanSystolic(readings[:mid])
	secondAvg := meanSystolic(readings[mid:])

	diff := secondAvg - firstAvg
	switch {
	case math.Abs(diff) < trendThreshold:
		return TrendStable
	case diff > 0:
		return TrendIncreasing
	default:
		return TrendDecreasing
	}
}

func meanSystolic(readings []BloodPressureReading) float64 {
	total := 0
	for _, reading := range readings {
		total += reading.Systolic
	}
	return float64(total) / float64(len(readings))
}

// roundDiv is integer division rounded to the nearest integer.
func roundDiv(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}
