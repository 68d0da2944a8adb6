package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	Upcoming  BookingStatus = "upcoming"
	Completed BookingStatus = "completed"
)

type Booking struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Listing        primitive.ObjectID `bson:"listing" json:"listing"`
	Guest          primitive.ObjectID `bson:"guest" json:"guest"`
	CheckIn        time.Time          `bson:"checkIn" json:"checkIn"`
	CheckOut       time.Time          `bson:"checkOut" json:"checkOut"`
	Nights         int                `bson:"nights" json:"nights"`
	Guests         int                `bson:"guests" json:"guests"`
	TotalPrice     float64            `bson:"totalPrice" json:"totalPrice"`
	PaymentOrderID string             `bson:"paymentOrderId,omitempty" json:"paymentOrderId,omitempty"`
	PaymentID      string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Overlaps uses half-open intervals, so back-to-back stays do not collide.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// StatusAt is completed once checkout is strictly in the past.
func (b *Booking) StatusAt(now time.Time) BookingStatus {
	if b.CheckOut.Before(now) {
		return Completed
	}
	return Upcoming
}

type BookingView struct {
	*Booking
	Status      BookingStatus   `json:"status"`
	ListingInfo *ListingSummary `json:"listingInfo,omitempty"`
}

// BookingRequest is the body shared by /booking/create and /booking/verify.
type BookingRequest struct {
	ListingID         string   `json:"listingId"`
	StartDate         string   `json:"startDate"`
	EndDate           string   `json:"endDate"`
	Guests            int      `json:"guests"`
	Amount            *float64 `json:"amount"`
	RazorpayOrderID   string   `json:"razorpay_order_id"`
	RazorpayPaymentID string   `json:"razorpay_payment_id"`
	RazorpaySignature string   `json:"razorpay_signature"`
}

type QuoteRequest struct {
	ListingID string `form:"listingId"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Guests    int    `form:"guests"`
}

type PriceBreakdown struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"pricePerNight"`
	BasePrice     float64 `json:"basePrice"`
	CleaningFee   float64 `json:"cleaningFee"`
	ServiceFee    float64 `json:"serviceFee"`
	ExtraGuestFee float64 `json:"extraGuestFee"`
	Total         float64 `json:"total"`
}

type BookingCheck struct {
	ListingID primitive.ObjectID `json:"listingId"`
	CheckIn   time.Time          `json:"checkIn"`
	CheckOut  time.Time          `json:"checkOut"`
	Guests    int                `json:"guests"`
	Price     PriceBreakdown     `json:"price"`
}
