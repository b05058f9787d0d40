package models

import (
	"fmt"
	"strings"
)

// IconURL returns the OpenWeatherMap icon URL for code, or "" when code is empty.
func IconURL(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf(iconURLFormat, code)
}

// NewForecastView turns each day of df into a card with unit labels attached.
func NewForecastView(df *DailyForecast) ForecastView {
	unit := df.Result.Units.TemperatureLabel()
	cards := make([]ForecastCard, 0, len(df.Result.Days))
	for _, day := range df.Result.Days {
		cards = append(cards, ForecastCard{
			Date:        day.DateKey,
			DateLabel:   dateLabel(day.DateKey),
			Weekday:     day.Weekday,
			IconURL:     IconURL(day.IconCode),
			Min:         day.MinTemp,
			Max:         day.MaxTemp,
			Unit:        unit,
			Description: day.Description,
		})
	}

	return ForecastView{
		City:      df.City,
		Country:   df.Country,
		Source:    df.Source,
		Units:     df.Result.Units,
		UnitLabel: unit,
		Days:      cards,
	}
}

func NewCurrentWeatherView(cw *CurrentWeather) CurrentWeatherView {
	return CurrentWeatherView{
		CurrentWeather:  cw,
		TemperatureUnit: cw.Units.TemperatureLabel(),
		WindUnit:        cw.Units.SpeedLabel(),
		IconURL:         IconURL(cw.Icon),
	}
}

// dateLabel renders YYYY-MM-DD as MM/DD.
func dateLabel(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return key
	}
	return parts[1] + "/" + parts[2]
}
