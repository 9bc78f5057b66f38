package weather

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a forecast as the line block injected into the prompt.
// Precipitation appears only when positive; feels-like and the daily range only when present.
// Without a current temperature nothing is rendered.
func Format(f *Forecast) string {
	if f == nil || f.Current == nil || f.Current.Temperature == nil {
		return ""
	}
	cur := f.Current

	code := 0
	if cur.WeatherCode != nil {
		code = *cur.WeatherCode
	}

	lines := []string{
		"현재 날씨: " + Describe(code),
		"기온: " + num(cur.Temperature) + "°C",
		"습도: " + num(cur.RelativeHumidity) + "%",
		"풍속: " + num(cur.WindSpeed) + " km/h",
	}
	if cur.Precipitation != nil && *cur.Precipitation > 0 {
		lines = append(lines, "강수량: "+num(cur.Precipitation)+" mm")
	}
	if cur.ApparentTemperature != nil {
		lines = append(lines, "체감기온: "+num(cur.ApparentTemperature)+"°C")
	}
	if d := f.Daily; d != nil && len(d.TemperatureMax) > 0 && len(d.TemperatureMin) > 0 {
		lines = append(lines, fmt.Sprintf("내일 예상: 최저 %s°C, 최고 %s°C",
			formatFloat(d.TemperatureMin[0]), formatFloat(d.TemperatureMax[0])))
	}
	return strings.Join(lines, "\n")
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
