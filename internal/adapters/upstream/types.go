package upstream

// DTOs mínimos: sólo lo que mapeamos al dominio.

type weatherDTO struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
}

type volumesDTO struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			Categories          []string `json:"categories"`
			AverageRating       float64  `json:"averageRating"`
			Language            string   `json:"language"`
			CanonicalVolumeLink string   `json:"canonicalVolumeLink"`
			ImageLinks          struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

type statValue struct {
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue"`
	Metadata     struct {
		Name    string `json:"name"`
		IconURL string `json:"iconUrl"`
	} `json:"metadata"`
}

type profileDTO struct {
	Data struct {
		PlatformInfo struct {
			PlatformUserIdentifier string `json:"platformUserIdentifier"`
		} `json:"platformInfo"`
		Segments []struct {
			Type     string `json:"type"`
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
			Stats map[string]statValue `json:"stats"`
		} `json:"segments"`
	} `json:"data"`
}
