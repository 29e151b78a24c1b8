package analytics

import (
	"strconv"
	"time"

	"github.com/holasaidlola/shop-analytics/internal/domain"
)

// weekdays in dashboard order, Monday first.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// hourLabel renders an hour of day the way the dashboard shows it: "12 AM",
// "1 AM", ..., "12 PM", "1 PM", ...
func hourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return strconv.Itoa(hour) + " AM"
	case hour == 12:
		return "12 PM"
	default:
		return strconv.Itoa(hour-12) + " PM"
	}
}

func countByHour(orders []domain.Order) []Bucket {
	var counts [24]int
	for _, order := range orders {
		counts[order.CreatedAt.Hour()]++
	}

	buckets := make([]Bucket, 0, 24)
	for hour, count := range counts {
		if count == 0 {
			continue
		}
		buckets = append(buckets, Bucket{Label: hourLabel(hour), Count: count})
	}
	return buckets
}

func countByWeekday(orders []domain.Order) []Bucket {
	counts := make(map[time.Weekday]int, 7)
	for _, order := range orders {
		counts[order.CreatedAt.Weekday()]++
	}

	buckets := make([]Bucket, 0, 7)
	for _, day := range weekdays {
		if counts[day] == 0 {
			continue
		}
		buckets = append(buckets, Bucket{Label: day.String(), Count: counts[day]})
	}
	return buckets
}

func countByDayOfMonth(orders []domain.Order) []Bucket {
	var counts [32]int
	for _, order := range orders {
		counts[order.CreatedAt.Day()]++
	}

	var buckets []Bucket
	for day := 1; day <= 31; day++ {
		if counts[day] == 0 {
			continue
		}
		buckets = append(buckets, Bucket{Label: strconv.Itoa(day), Count: counts[day]})
	}
	return buckets
}

func countByMonth(orders []domain.Order) []Bucket {
	counts := make(map[time.Month]int, 12)
	for _, order := range orders {
		counts[order.CreatedAt.Month()]++
	}

	buckets := make([]Bucket, 0, 12)
	for month := time.January; month <= time.December; month++ {
		if counts[month] == 0 {
			continue
		}
		buckets = append(buckets, Bucket{Label: month.String(), Count: counts[month]})
	}
	return buckets
}

func countByWeekOfYear(orders []domain.Order) []Bucket {
	counts := make(map[int]int)
	for _, order := range orders {
		_, week := order.CreatedAt.ISOWeek()
		counts[week]++
	}

	var buckets []Bucket
	for week := 1; week <= 53; week++ {
		if counts[week] == 0 {
			continue
		}
		buckets = append(buckets, Bucket{Label: strconv.Itoa(week), Count: counts[week]})
	}
	return buckets
}
