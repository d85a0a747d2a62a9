package remote

import (
	"strconv"
	"strings"
	"time"

	"github.com/aribau/cartelera/internal/domain"
)

// searchRequest is the filter descriptor on the wire. Empty exclusion
// sets are sent as an absent field, never as [].
type searchRequest struct {
	Term              string   `json:"term,omitempty"`
	Genre             string   `json:"genre,omitempty"`
	Country           string   `json:"country,omitempty"`
	Director          string   `json:"director,omitempty"`
	YearFrom          int      `json:"year_from,omitempty"`
	YearTo            int      `json:"year_to,omitempty"`
	ExcludedGenres    []string `json:"excluded_genres,omitempty"`
	ExcludedCountries []string `json:"excluded_countries,omitempty"`
	SortField         string   `json:"sort_field,omitempty"`
	SortDirection     string   `json:"sort_direction,omitempty"`
	MediaType         string   `json:"media_type,omitempty"`
	Limit             int      `json:"limit"`
	Offset            int      `json:"offset"`
}

type searchResponse struct {
	Items []movieDTO `json:"items"`
	Total int        `json:"total"`
}

type movieDTO struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	Year          int      `json:"year"`
	Genres        []string `json:"genres"`
	Country       string   `json:"country"`
	Director      string   `json:"director"`
	Synopsis      string   `json:"synopsis"`
	Score         float64  `json:"score"`
	PosterURL     string   `json:"poster_url"`
	MediaType     string   `json:"media_type"`
}

// userRowDTO is the persisted per-item user record, upserted keyed by
// (user_id, item_id).
type userRowDTO struct {
	ItemID      string `json:"item_id"`
	UserID      string `json:"user_id"`
	Rating      *int   `json:"rating"`
	OnWatchlist bool   `json:"on_watchlist"`
	UpdatedAt   string `json:"updated_at"`
}

type suggestRequest struct {
	Category string `json:"category"`
	Term     string `json:"term"`
}

func buildSearchRequest(f domain.ActiveFilters, page, pageSize int) searchRequest {
	req := searchRequest{
		Term:     strings.TrimSpace(f.Term),
		Genre:    f.Genre,
		Country:  f.Country,
		Director: f.Director,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if len(f.ExcludedGenres) > 0 {
		req.ExcludedGenres = append([]string(nil), f.ExcludedGenres...)
	}
	if len(f.ExcludedCountries) > 0 {
		req.ExcludedCountries = append([]string(nil), f.ExcludedCountries...)
	}
	req.YearFrom, req.YearTo = splitYearRange(f.Years)
	req.SortField, req.SortDirection = splitSort(f.Sort)
	if f.MediaType != "" && f.MediaType != domain.MediaTypeAll {
		req.MediaType = string(f.MediaType)
	}
	return req
}

// splitYearRange splits the combined "from-to" string into its bounds.
// Malformed input yields zero bounds, i.e. no year constraint.
func splitYearRange(years string) (from, to int) {
	parts := strings.SplitN(years, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	to, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return from, to
}

// splitSort splits the combined "field,direction" string.
func splitSort(sort string) (field, direction string) {
	parts := strings.SplitN(sort, ",", 2)
	field = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		direction = strings.TrimSpace(parts[1])
	}
	return field, direction
}

func (d movieDTO) toDomain() domain.Movie {
	mt := domain.MediaType(d.MediaType)
	if mt == "" {
		mt = domain.MediaTypeMovie
	}
	return domain.Movie{
		ID:            d.ID,
		Title:         d.Title,
		OriginalTitle: d.OriginalTitle,
		Year:          d.Year,
		Genres:        d.Genres,
		Country:       d.Country,
		Director:      d.Director,
		Synopsis:      d.Synopsis,
		Score:         d.Score,
		PosterURL:     d.PosterURL,
		Type:          mt,
	}
}

func toUserRow(userID, itemID string, e domain.UserMovieEntry, now time.Time) userRowDTO {
	return userRowDTO{
		ItemID:      itemID,
		UserID:      userID,
		Rating:      e.Rating,
		OnWatchlist: e.OnWatchlist,
		UpdatedAt:   now.UTC().Format(time.RFC3339),
	}
}

func (r userRowDTO) toEntry() domain.UserMovieEntry {
	return domain.UserMovieEntry{OnWatchlist: r.OnWatchlist, Rating: r.Rating}
}
