package stdout

import "strconv"

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', 2, 64) + " km"
}

func formatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', 2, 64) + " kg"
}
