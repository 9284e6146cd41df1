package lastfm

import (
	"strconv"
)

// Track is a recent or top track
type Track struct {
	Name      string
	Artist    string
	URL       string
	ImageURL  string
	IsPlaying bool
	Playcount uint64 // Zero for recent tracks
}

// Album is a top album
type Album struct {
	Name      string
	Artist    string
	URL       string
	ImageURL  string
	Playcount uint64
}

// Artist is a top artist
type Artist struct {
	Name      string
	URL       string
	ImageURL  string
	Playcount uint64
}

// UserStats are the library totals of the configured user
type UserStats struct {
	TotalScrobbles uint64
	TotalArtists   uint64
	TotalAlbums    uint64
	TotalTracks    uint64
}

// Wire format. last.fm encodes every number as a string.

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type pageAttr struct {
	Total string `json:"total"`
	User  string `json:"user"`
}

type textObj struct {
	Text string `json:"#text"`
}

type simpleArtist struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type recentTracksResponse struct {
	RecentTracks struct {
		Tracks []struct {
			Name   string  `json:"name"`
			URL    string  `json:"url"`
			Artist textObj `json:"artist"`
			Album  textObj `json:"album"`
			Images []image `json:"image"`
			Attr   *struct {
				NowPlaying string `json:"nowplaying"`
			} `json:"@attr"`
		} `json:"track"`
		Attr pageAttr `json:"@attr"`
	} `json:"recenttracks"`
}

type topArtistsResponse struct {
	TopArtists struct {
		Artists []struct {
			Name      string  `json:"name"`
			URL       string  `json:"url"`
			Playcount string  `json:"playcount"`
			Images    []image `json:"image"`
		} `json:"artist"`
		Attr pageAttr `json:"@attr"`
	} `json:"topartists"`
}

type topTracksResponse struct {
	TopTracks struct {
		Tracks []struct {
			Name      string       `json:"name"`
			URL       string       `json:"url"`
			Playcount string       `json:"playcount"`
			Artist    simpleArtist `json:"artist"`
			Images    []image      `json:"image"`
		} `json:"track"`
		Attr pageAttr `json:"@attr"`
	} `json:"toptracks"`
}

type topAlbumsResponse struct {
	TopAlbums struct {
		Albums []struct {
			Name      string       `json:"name"`
			URL       string       `json:"url"`
			Playcount string       `json:"playcount"`
			Artist    simpleArtist `json:"artist"`
			Images    []image      `json:"image"`
		} `json:"album"`
		Attr pageAttr `json:"@attr"`
	} `json:"topalbums"`
}

// apiError is the body last.fm returns for failed calls, often with status 200
type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// lastImage returns the largest image, which last.fm lists last
func lastImage(images []image) string {
	if len(images) == 0 {
		return ""
	}
	return images[len(images)-1].URL
}

// count parses a last.fm numeric string, 0 when malformed
func count(s string) uint64 {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
