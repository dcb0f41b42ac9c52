package metrics

// CaloriesFromPower estimates kcal from average watts and duration. Work in
// kJ approximates kcal once ~22% gross efficiency is applied, which collapses
// to the 3.6 factor.
func CaloriesFromPower(avgPower, movingSeconds float64) float64 {
	if avgPower <= 0 || movingSeconds <= 0 {
		return 0
	}
	return avgPower * (movingSeconds / secondsPerHour) * 3.6
}

// CaloriesFromHeartRate estimates kcal from the Keytel regression for male
// subjects, given average HR, body weight and age. Returns 0 when any input
// is missing.
func CaloriesFromHeartRate(avgHR, weightKg, age, movingSeconds float64) float64 {
	if avgHR <= 0 || weightKg <= 0 || age <= 0 || movingSeconds <= 0 {
		return 0
	}
	minutes := movingSeconds / 60
	perMinute := (-55.0969 + 0.6309*avgHR + 0.1988*weightKg + 0.2017*age) / 4.184
	if perMinute < 0 {
		return 0
	}
	return perMinute * minutes
}

// Calories prefers the power-based estimate, falls back to the HR regression,
// and yields 0 when neither is computable.
func Calories(avgPower, avgHR, weightKg, age, movingSeconds float64) float64 {
	if kcal := CaloriesFromPower(avgPower, movingSeconds); kcal > 0 {
		return kcal
	}
	return CaloriesFromHeartRate(avgHR, weightKg, age, movingSeconds)
}
