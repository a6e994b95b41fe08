package domain

type Weather struct {
	City        string
	Country     string
	Main        string
	Description string
	IconURL     string
	Temp        float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Clouds      int
}

// Gloomy: nublado o frío, el footer de Skyrim.
func (w Weather) Gloomy() bool {
	return w.Clouds >= 70 || int(w.Temp) <= 12
}
