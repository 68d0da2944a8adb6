package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Amenity string

var amenities = []Amenity{
	"WiFi",
	"Air Conditioning",
	"Kitchen",
	"Parking",
	"Pets Allowed",
	"Pool",
	"Gym",
	"TV",
	"Washer",
	"Dryer",
	"Heating",
	"Smoke Detector",
	"Carbon Monoxide Detector",
	"Fire Extinguisher",
	"Essentials",
	"Hangers",
	"Iron",
	"Hair Dryer",
	"Laptop Friendly Workspace",
	"Self Check-In",
	"Hot Water",
}

func Amenities() []Amenity {
	out := make([]Amenity, len(amenities))
	copy(out, amenities)
	return out
}

func IsAmenity(s string) bool {
	for _, a := range amenities {
		if string(a) == s {
			return true
		}
	}
	return false
}

// GeoPoint is a GeoJSON point; Coordinates is [longitude, latitude].
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }
func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }

type DateRange struct {
	From time.Time `bson:"from" json:"from"`
	To   time.Time `bson:"to" json:"to"`
}

// Contains reports whether [checkIn, checkOut] lies entirely inside the range.
func (r DateRange) Contains(checkIn, checkOut time.Time) bool {
	return !checkIn.Before(r.From) && !checkOut.After(r.To)
}

func (r DateRange) Overlaps(other DateRange) bool {
	return r.From.Before(other.To) && r.To.After(other.From)
}

type Review struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Listing struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	City                string             `bson:"city" json:"city"`
	Country             string             `bson:"country" json:"country"`
	Address             string             `bson:"address" json:"address"`
	Location            GeoPoint           `bson:"location" json:"location"`
	PricePerNight       float64            `bson:"pricePerNight" json:"pricePerNight"`
	Images              []string           `bson:"images" json:"images"`
	Host                primitive.ObjectID `bson:"host" json:"-"`
	AvailableDates      []DateRange        `bson:"availableDates" json:"availableDates"`
	Amenities           []Amenity          `bson:"amenities" json:"amenities"`
	Reviews             []Review           `bson:"reviews" json:"reviews"`
	AvailabilityVersion int64              `bson:"availabilityVersion" json:"-"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FitsAvailability reports whether a single available range holds the whole stay.
// Adjacent ranges are never stitched together.
func (l *Listing) FitsAvailability(checkIn, checkOut time.Time) bool {
	for _, r := range l.AvailableDates {
		if r.Contains(checkIn, checkOut) {
			return true
		}
	}
	return false
}

// AvailabilityAfterBooking drops every range that fully contains the reserved
// stay and keeps the rest untouched.
func (l *Listing) AvailabilityAfterBooking(checkIn, checkOut time.Time) []DateRange {
	remaining := make([]DateRange, 0, len(l.AvailableDates))
	for _, r := range l.AvailableDates {
		if r.Contains(checkIn, checkOut) {
			continue
		}
		remaining = append(remaining, r)
	}
	return remaining
}

func (l *Listing) AverageRating() float64 {
	if len(l.Reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range l.Reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(l.Reviews))
}

func (l *Listing) Summary() *ListingSummary {
	s := &ListingSummary{
		ID:            l.ID,
		Title:         l.Title,
		City:          l.City,
		Country:       l.Country,
		PricePerNight: l.PricePerNight,
	}
	if len(l.Images) > 0 {
		s.Image = l.Images[0]
	}
	return s
}

// ListingResponse is a listing with its host resolved to a public profile.
type ListingResponse struct {
	*Listing
	Host          *UserResponse `json:"host,omitempty"`
	AverageRating float64       `json:"averageRating"`
}

type ListingSummary struct {
	ID            primitive.ObjectID `json:"_id"`
	Title         string             `json:"title"`
	City          string             `json:"city"`
	Country       string             `json:"country"`
	PricePerNight float64            `json:"pricePerNight"`
	Image         string             `json:"image,omitempty"`
}

type Coordinates struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type LocationInput struct {
	City        string      `json:"city" validate:"required"`
	Country     string      `json:"country" validate:"required"`
	Address     string      `json:"address" validate:"required"`
	Coordinates Coordinates `json:"coordinates"`
}

type DateRangeInput struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// ListingInput is the host-supplied body for create and update.
type ListingInput struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Description    string           `json:"description" validate:"required,max=5000"`
	Location       *LocationInput   `json:"location" validate:"required"`
	PricePerNight  float64          `json:"pricePerNight" validate:"required,gt=0"`
	AvailableDates []DateRangeInput `json:"availableDates" validate:"required,min=1,dive"`
	Amenities      []string         `json:"amenities" validate:"omitempty,dive,amenity"`
	Images         []string         `json:"images" validate:"omitempty,max=5,dive,url"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ListingSearch holds the optional search filters; zero values mean "no filter".
type ListingSearch struct {
	Query     string
	City      string
	Country   string
	MinPrice  float64
	MaxPrice  float64
	Amenities []Amenity
	Near      *GeoPoint
	RadiusKm  float64
	From      time.Time
	To        time.Time
	Page      int
	Limit     int
}

// SearchQuery is the raw query string of a listing search.
type SearchQuery struct {
	Q         string `form:"q"`
	City      string `form:"city"`
	Country   string `form:"country"`
	MinPrice  string `form:"minPrice"`
	MaxPrice  string `form:"maxPrice"`
	Amenities string `form:"amenities"`
	Lat       string `form:"lat"`
	Lng       string `form:"lng"`
	Radius    string `form:"radius"`
	From      string `form:"from"`
	To        string `form:"to"`
	Page      string `form:"page"`
	Limit     string `form:"limit"`
}

// NormalizeRanges sorts ranges by start and reports whether any two overlap.
func NormalizeRanges(ranges []DateRange) ([]DateRange, bool) {
	sorted := make([]DateRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From.Before(sorted[j].From) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return sorted, false
		}
	}
	return sorted, true
}
