package upstream

import (
	"context"
	"net/url"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

type WeatherClient struct {
	c     *Client
	token string
}

func NewWeather(c *Client, token string) *WeatherClient { return &WeatherClient{c: c, token: token} }

func (w *WeatherClient) Current(ctx context.Context, city string) (domain.Weather, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", w.token)
	q.Set("units", "metric")

	var dto weatherDTO
	if err := w.c.doJSON(ctx, "GET", "", q, &dto); err != nil {
		return domain.Weather{}, err
	}
	out := domain.Weather{
		City:      dto.Name,
		Country:   dto.Sys.Country,
		Temp:      dto.Main.Temp,
		FeelsLike: dto.Main.FeelsLike,
		Humidity:  dto.Main.Humidity,
		WindSpeed: dto.Wind.Speed,
		Clouds:    dto.Clouds.All,
	}
	if len(dto.Weather) > 0 {
		wd := dto.Weather[0]
		out.Main = wd.Main
		out.Description = wd.Description
		if wd.Icon != "" {
			out.IconURL = "http://openweathermap.org/img/w/" + wd.Icon + ".png"
		}
	}
	return out, nil
}
