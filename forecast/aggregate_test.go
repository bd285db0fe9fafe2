package forecast

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"weather-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, value string) int64 {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts.Unix()
}

func TestAggregate_Empty(t *testing.T) {
	days := Aggregate(nil)
	assert.NotNil(t, days)
	assert.Empty(t, days)

	days = Aggregate([]models.ForecastSample{})
	assert.Empty(t, days)
}

func TestAggregate_TwoDays(t *testing.T) {
	samples := []models.ForecastSample{
		{Timestamp: at(t, "2024-03-01T09:00:00Z"), TemperatureC: 10, Condition: "rain"},
		{Timestamp: at(t, "2024-03-01T15:00:00Z"), TemperatureC: 14, Condition: "clear sky"},
		{Timestamp: at(t, "2024-03-02T09:00:00Z"), TemperatureC: 8, Condition: "snow"},
	}

	days := Aggregate(samples)

	assert.Equal(t, []models.DailyForecast{
		{Date: "2024-03-01", TemperatureC: 12.0, Condition: "rain"},
		{Date: "2024-03-02", TemperatureC: 8.0, Condition: "snow"},
	}, days)
}

func TestAggregate_ConditionIsFirstInInputOrder(t *testing.T) {
	// Out of chronological order within the day: the first encountered sample wins
	samples := []models.ForecastSample{
		{Timestamp: at(t, "2024-03-01T18:00:00Z"), TemperatureC: 5, Condition: "mist"},
		{Timestamp: at(t, "2024-03-01T06:00:00Z"), TemperatureC: 3, Condition: "clear sky"},
		{Timestamp: at(t, "2024-03-01T12:00:00Z"), TemperatureC: 7, Condition: "clear sky"},
	}

	days := Aggregate(samples)

	require.Len(t, days, 1)
	assert.Equal(t, "mist", days[0].Condition)
	assert.InDelta(t, 5.0, days[0].TemperatureC, 1e-9)
}

func TestAggregate_UsesUTCDate(t *testing.T) {
	samples := []models.ForecastSample{
		{Timestamp: at(t, "2024-03-01T23:00:00-05:00"), TemperatureC: 1, Condition: "snow"}, // 2024-03-02 04:00 UTC
		{Timestamp: at(t, "2024-03-01T21:00:00Z"), TemperatureC: 3, Condition: "fog"},
	}

	days := Aggregate(samples)

	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-01", days[0].Date)
	assert.Equal(t, "fog", days[0].Condition)
	assert.Equal(t, "2024-03-02", days[1].Date)
	assert.Equal(t, "snow", days[1].Condition)
}

func TestAggregate_LimitsToFourEarliestDays(t *testing.T) {
	start := at(t, "2024-03-01T00:00:00Z")
	var samples []models.ForecastSample
	// 40 points at 3-hour spacing cover five days
	for i := 0; i < 40; i++ {
		samples = append(samples, models.ForecastSample{
			Timestamp:    start + int64(i)*3*3600,
			TemperatureC: float64(i),
			Condition:    "rain",
		})
	}

	days := Aggregate(samples)

	require.Len(t, days, MaxDays)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"},
		[]string{days[0].Date, days[1].Date, days[2].Date, days[3].Date})
	// Day one holds temperatures 0..7
	assert.InDelta(t, 3.5, days[0].TemperatureC, 1e-9)
	assert.InDelta(t, 11.5, days[1].TemperatureC, 1e-9)
}

func TestAggregateDays_NoLimit(t *testing.T) {
	start := at(t, "2024-03-01T12:00:00Z")
	var samples []models.ForecastSample
	for i := 0; i < 6; i++ {
		samples = append(samples, models.ForecastSample{Timestamp: start + int64(i)*86400, TemperatureC: 1})
	}

	assert.Len(t, AggregateDays(samples, 0), 6)
	assert.Len(t, AggregateDays(samples, 2), 2)
}

// Randomized check of the count, ordering and mean properties
func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := at(t, "2024-01-01T00:00:00Z")

	for round := 0; round < 50; round++ {
		distinct := 1 + rng.Intn(7)
		var samples []models.ForecastSample
		expected := make(map[string][]float64)

		for day := 0; day < distinct; day++ {
			points := 1 + rng.Intn(8)
			for p := 0; p < points; p++ {
				sample := models.ForecastSample{
					Timestamp:    base + int64(day)*86400 + int64(rng.Intn(86400)),
					TemperatureC: rng.Float64()*60 - 30,
					Condition:    "clear sky",
				}
				samples = append(samples, sample)
				expected[sample.DateKey()] = append(expected[sample.DateKey()], sample.TemperatureC)
			}
		}
		rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })

		days := Aggregate(samples)

		want := distinct
		if want > MaxDays {
			want = MaxDays
		}
		require.Len(t, days, want)
		assert.True(t, sort.SliceIsSorted(days, func(i, j int) bool { return days[i].Date < days[j].Date }))

		for _, day := range days {
			temps := expected[day.Date]
			require.NotEmpty(t, temps)
			var sum float64
			for _, temp := range temps {
				sum += temp
			}
			assert.InDelta(t, sum/float64(len(temps)), day.TemperatureC, 1e-9)
		}
	}
}
